// Package leagueweek maps instants to league week keys. A league week opens
// at Friday 21:00 in the league time zone and is named by that Friday's date.
package leagueweek

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	DefaultLocation = "America/New_York"
	keyLayout       = "2006-01-02"
	boundaryHour    = 21
)

// Key is the YYYY-MM-DD date of the Friday that opens a league week.
type Key string

func (k Key) String() string {
	return string(k)
}

type Clock struct {
	loc *time.Location
}

func NewClock(loc *time.Location) *Clock {
	if loc == nil {
		loc, _ = time.LoadLocation(DefaultLocation)
	}
	return &Clock{loc: loc}
}

// LoadClock builds a Clock for an IANA zone name. Empty means DefaultLocation.
func LoadClock(zone string) (*Clock, error) {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		zone = DefaultLocation
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load league time zone %q: %w", zone, err)
	}
	return &Clock{loc: loc}, nil
}

func (c *Clock) Location() *time.Location {
	return c.loc
}

// KeyFor returns the key of the week active at t.
func (c *Clock) KeyFor(t time.Time) Key {
	local := t.In(c.loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	if local.Hour() >= boundaryHour {
		day = day.AddDate(0, 0, 1)
	}
	offset := (int(day.Weekday()) - int(time.Saturday) + 7) % 7
	return Key(day.AddDate(0, 0, -offset-1).Format(keyLayout))
}

func (c *Clock) Next(key Key) Key {
	return shift(key, 7)
}

func (c *Clock) Previous(key Key) Key {
	return shift(key, -7)
}

// StartOf is the boundary instant that opens the week.
func (c *Clock) StartOf(key Key) time.Time {
	day, err := time.Parse(keyLayout, string(key))
	if err != nil {
		return time.Time{}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), boundaryHour, 0, 0, 0, c.loc)
}

// DeadlineOf is the boundary instant that closes the week.
func (c *Clock) DeadlineOf(key Key) time.Time {
	return c.StartOf(c.Next(key))
}

// NextOccurrence returns the first instant strictly after now that falls on
// weekday at 21:00 league time plus delay.
func (c *Clock) NextOccurrence(now time.Time, weekday time.Weekday, delay time.Duration) time.Time {
	local := now.In(c.loc)
	for i := 0; i <= 7; i++ {
		d := local.AddDate(0, 0, i)
		if d.Weekday() != weekday {
			continue
		}
		at := time.Date(d.Year(), d.Month(), d.Day(), boundaryHour, 0, 0, 0, c.loc).Add(delay)
		if at.After(now) {
			return at
		}
	}
	d := local.AddDate(0, 0, 7)
	return time.Date(d.Year(), d.Month(), d.Day(), boundaryHour, 0, 0, 0, c.loc).Add(delay)
}

// ParseKey validates a YYYY-MM-DD string. It does not check the weekday.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(keyLayout, s); err != nil {
		return "", fmt.Errorf("invalid week key %q: expected YYYY-MM-DD", s)
	}
	return Key(s), nil
}

// KeyForDate returns the key of the week active at 21:00 of the given date.
func (c *Clock) KeyForDate(s string) (Key, error) {
	key, err := ParseKey(s)
	if err != nil {
		return "", err
	}
	return c.KeyFor(c.StartOf(key)), nil
}

func shift(key Key, days int) Key {
	day, err := time.Parse(keyLayout, string(key))
	if err != nil {
		return key
	}
	return Key(day.AddDate(0, 0, days).Format(keyLayout))
}
