package seed

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"
	"strconv"
	"strings"
)

const (
	DefaultLogicMode  = "Standard"
	DefaultKeyMode    = "Clues"
	DefaultGoalMode   = "Force Trees"
	DefaultSpawn      = "Glades"
	DefaultItemPool   = "Standard"
	DefaultRelicCount = 8

	MinRelicCount = 1
	MaxRelicCount = 11

	FileName = "randomizer.dat"
)

// Options are the user-facing seed parameters.
type Options struct {
	SeedName   string
	LogicMode  string
	KeyMode    string
	GoalMode   string
	Spawn      string
	ItemPool   string
	RelicCount int
	Variations []string
}

// WithDefaults fills unset fields with the league defaults.
func (o Options) WithDefaults() Options {
	if o.LogicMode == "" {
		o.LogicMode = DefaultLogicMode
	}
	if o.KeyMode == "" {
		o.KeyMode = DefaultKeyMode
	}
	if o.GoalMode == "" {
		o.GoalMode = DefaultGoalMode
	}
	if o.Spawn == "" {
		o.Spawn = DefaultSpawn
	}
	if o.ItemPool == "" {
		o.ItemPool = DefaultItemPool
	}
	if o.RelicCount == 0 {
		o.RelicCount = DefaultRelicCount
	}
	return o
}

func (o Options) Validate() error {
	if strings.TrimSpace(o.SeedName) == "" {
		return fmt.Errorf("seed name is required")
	}
	if _, ok := logicPaths[o.LogicMode]; !ok {
		return fmt.Errorf("unknown logic mode %q", o.LogicMode)
	}
	if _, ok := KeyModes[o.KeyMode]; !ok {
		return fmt.Errorf("unknown key mode %q", o.KeyMode)
	}
	if _, ok := GoalModes[o.GoalMode]; !ok {
		return fmt.Errorf("unknown goal mode %q", o.GoalMode)
	}
	if !contains(Spawns, o.Spawn) {
		return fmt.Errorf("unknown spawn %q", o.Spawn)
	}
	if !contains(ItemPools, o.ItemPool) {
		return fmt.Errorf("unknown item pool %q", o.ItemPool)
	}
	if o.RelicCount < MinRelicCount || o.RelicCount > MaxRelicCount {
		return fmt.Errorf("relic count must be between %d and %d", MinRelicCount, MaxRelicCount)
	}
	for _, v := range o.Variations {
		if _, ok := Variations[v]; !ok {
			return fmt.Errorf("unknown variation %q", v)
		}
	}
	return nil
}

// Fingerprint is a stable identity of the options, seed name excluded.
func (o Options) Fingerprint() string {
	vars := append([]string(nil), o.Variations...)
	sort.Strings(vars)
	parts := []string{
		o.LogicMode, o.KeyMode, o.GoalMode, o.Spawn, o.ItemPool,
		strconv.Itoa(o.RelicCount), strings.Join(vars, "+"),
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.Join(parts, "|")))
	return strconv.FormatUint(h.Sum64(), 36)
}

// Artifact is a generated seed ready to hand out.
type Artifact struct {
	SeedName   string
	Header     string
	SpoilerURL string
	MapURL     string
	HistoryURL string
	File       []byte
}

// Generator calls the remote seed generator.
type Generator interface {
	GenerateSeed(ctx context.Context, opts Options) (Artifact, error)
}

// DeriveName returns the deterministic seed name for a week key.
func DeriveName(key string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	return strconv.FormatInt(1+rng.Int63n(1_000_000_000), 10)
}

// RandomName returns a seed name for one-off seeds.
func RandomName(rng *rand.Rand) string {
	if rng == nil {
		return strconv.FormatInt(1+rand.Int63n(1_000_000_000), 10)
	}
	return strconv.FormatInt(1+rng.Int63n(1_000_000_000), 10)
}
