package discordbot

import (
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/riskibarqy/rando-league/internal/domain/leaguesettings"
	"github.com/riskibarqy/rando-league/internal/domain/seed"
)

const (
	optionDate       = "date"
	optionTimer      = "timer"
	optionVOD        = "vod"
	optionRelicCount = leaguesettings.NameRelicCount
)

// settingOptionOrder is the order settings are read from a /league set call.
var settingOptionOrder = []string{
	leaguesettings.NameLogicMode,
	leaguesettings.NameKeyMode,
	leaguesettings.NameGoalMode,
	leaguesettings.NameSpawn,
	leaguesettings.NameVariation1,
	leaguesettings.NameVariation2,
	leaguesettings.NameVariation3,
	leaguesettings.NameItemPool,
	leaguesettings.NameRelicCount,
	leaguesettings.NameSeedName,
}

type optionSet map[string]*discordgo.ApplicationCommandInteractionDataOption

func newOptionSet(opts []*discordgo.ApplicationCommandInteractionDataOption) optionSet {
	set := make(optionSet, len(opts))
	for _, opt := range opts {
		if opt != nil {
			set[opt.Name] = opt
		}
	}
	return set
}

func (o optionSet) String(name string) string {
	opt, ok := o[name]
	if !ok {
		return ""
	}
	switch v := opt.Value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

func (o optionSet) Int(name string) (int, bool) {
	opt, ok := o[name]
	if !ok {
		return 0, false
	}
	switch v := opt.Value.(type) {
	case float64:
		return int(v), true
	case int64:
		return int(v), true
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	default:
		return 0, false
	}
}

// settingEntries collects the settings given to /league set.
func (o optionSet) settingEntries() []leaguesettings.Entry {
	entries := make([]leaguesettings.Entry, 0, len(settingOptionOrder))
	for _, name := range settingOptionOrder {
		if value := o.String(name); value != "" {
			entries = append(entries, leaguesettings.Entry{Name: name, Value: value})
		}
	}
	return entries
}

// seedOptions maps /seed and /daily options onto generator options.
func (o optionSet) seedOptions() seed.Options {
	opts := seed.Options{
		SeedName:  o.String(leaguesettings.NameSeedName),
		LogicMode: o.String(leaguesettings.NameLogicMode),
		KeyMode:   o.String(leaguesettings.NameKeyMode),
		GoalMode:  o.String(leaguesettings.NameGoalMode),
		Spawn:     o.String(leaguesettings.NameSpawn),
		ItemPool:  o.String(leaguesettings.NameItemPool),
	}
	if n, ok := o.Int(optionRelicCount); ok {
		opts.RelicCount = n
	}
	for _, name := range []string{leaguesettings.NameVariation1, leaguesettings.NameVariation2, leaguesettings.NameVariation3} {
		if v := o.String(name); v != "" {
			opts.Variations = append(opts.Variations, v)
		}
	}
	return opts
}
