package leaguesettings

import (
	"fmt"
	"strings"
)

// Recognized setting names.
const (
	NameLogicMode  = "logic_mode"
	NameKeyMode    = "key_mode"
	NameGoalMode   = "goal_mode"
	NameSpawn      = "spawn"
	NameItemPool   = "item_pool"
	NameRelicCount = "relic_count"
	NameSeedName   = "seed_name"
	NameVariation1 = "variation1"
	NameVariation2 = "variation2"
	NameVariation3 = "variation3"
)

var knownNames = map[string]struct{}{
	NameLogicMode:  {},
	NameKeyMode:    {},
	NameGoalMode:   {},
	NameSpawn:      {},
	NameItemPool:   {},
	NameRelicCount: {},
	NameSeedName:   {},
	NameVariation1: {},
	NameVariation2: {},
	NameVariation3: {},
}

// Setting is one override stored for a league week.
type Setting struct {
	Date  string
	Name  string
	Value string
}

// Entry is a name/value pair to upsert under a date.
type Entry struct {
	Name  string
	Value string
}

func (e Entry) Validate() error {
	if _, ok := knownNames[e.Name]; !ok {
		return fmt.Errorf("unknown setting %q", e.Name)
	}
	if strings.TrimSpace(e.Value) == "" {
		return fmt.Errorf("setting %q requires a value", e.Name)
	}
	return nil
}

func IsKnownName(name string) bool {
	_, ok := knownNames[name]
	return ok
}

// IsVariation reports whether name is one of the variation slots.
func IsVariation(name string) bool {
	return strings.HasPrefix(name, "variation")
}

// Lookup returns the value stored for name.
func Lookup(settings []Setting, name string) (string, bool) {
	for _, s := range settings {
		if s.Name == name {
			return s.Value, true
		}
	}
	return "", false
}
