package ledger

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	NotApplicable = "n/a"
	DNF           = "DNF"

	SubmittedAtLayout = "2006-01-02 15:04:05"

	WeekColumn        = "Week"
	SubmittedAtColumn = "Submitted"
	RunnerColumn      = "Runner"
	TimeColumn        = "Time"
	VODColumn         = "VOD"
)

// Submission is one ledger row.
type Submission struct {
	Week        string
	SubmittedAt string
	Runner      string
	Time        string
	VOD         string
}

// Row renders the submission in sheet column order.
func (s Submission) Row() []any {
	return []any{s.Week, s.SubmittedAt, s.Runner, s.Time, s.VOD}
}

// DNFSubmission is the row appended for a runner who never submitted.
func DNFSubmission(week, runner string) Submission {
	return Submission{
		Week:        week,
		SubmittedAt: NotApplicable,
		Runner:      runner,
		Time:        DNF,
		VOD:         NotApplicable,
	}
}

// RunnerSet is a set of runner display names.
type RunnerSet map[string]struct{}

func NewRunnerSet(names ...string) RunnerSet {
	set := make(RunnerSet, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		set[n] = struct{}{}
	}
	return set
}

func (s RunnerSet) Has(name string) bool {
	_, ok := s[strings.TrimSpace(name)]
	return ok
}

// Minus returns the sorted names in s that are not in other.
func (s RunnerSet) Minus(other RunnerSet) []string {
	out := make([]string, 0, len(s))
	for name := range s {
		if _, ok := other[name]; ok {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s RunnerSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

var timerPattern = regexp.MustCompile(`^(?:([0-9]+):)?([0-9]{2}):([0-9]{2})(?:\.([0-9]+))?$`)

// ParseTimer normalizes a submitted time to HH:MM:SS.mmm, or DNF.
// Fractions are read as decimal seconds, so ".6" is 600ms.
func ParseTimer(value string) (string, error) {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, "dnf") {
		return DNF, nil
	}

	m := timerPattern.FindStringSubmatch(value)
	if m == nil {
		return "", fmt.Errorf("time %q must look like [H:]MM:SS[.mmm] or DNF", value)
	}

	hours := 0
	if m[1] != "" {
		h, err := strconv.Atoi(m[1])
		if err != nil {
			return "", fmt.Errorf("time %q has invalid hours", value)
		}
		hours = h
	}
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	if minutes > 59 || seconds > 59 {
		return "", fmt.Errorf("time %q has minutes or seconds above 59", value)
	}

	frac := m[4]
	if len(frac) > 3 {
		frac = frac[:3]
	}
	frac += strings.Repeat("0", 3-len(frac))
	millis, _ := strconv.Atoi(frac)

	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis), nil
}

var seasonTitlePattern = regexp.MustCompile(`^S([0-9]+) .*$`)

// ParseSeason returns the highest season number among worksheet titles.
func ParseSeason(titles []string) (int, error) {
	season := 0
	for _, title := range titles {
		m := seasonTitlePattern.FindStringSubmatch(title)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > season {
			season = n
		}
	}
	if season == 0 {
		return 0, fmt.Errorf("no season worksheet found")
	}
	return season, nil
}

func RosterSheet(season int) string {
	return fmt.Sprintf("S%d Names", season)
}

func LedgerSheet(season int) string {
	return fmt.Sprintf("S%d Raw Data", season)
}
