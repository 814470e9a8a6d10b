package discordbot

import (
	"github.com/bwmarrin/discordgo"
	"github.com/riskibarqy/rando-league/internal/domain/leaguesettings"
	"github.com/riskibarqy/rando-league/internal/domain/seed"
)

const (
	commandLeague = "league"
	commandSeed   = "seed"
	commandDaily  = "daily"

	subcommandSet    = "set"
	subcommandView   = "view"
	subcommandClear  = "clear"
	subcommandSubmit = "submit"
	subcommandSeed   = "seed"
)

func choices(values []string) []*discordgo.ApplicationCommandOptionChoice {
	out := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(values))
	for _, v := range values {
		out = append(out, &discordgo.ApplicationCommandOptionChoice{Name: v, Value: v})
	}
	return out
}

func stringOption(name, description string, values []string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: description,
		Choices:     choices(values),
	}
}

// seedSettingOptions are the randomizer options shared by /seed, /daily and /league set.
func seedSettingOptions() []*discordgo.ApplicationCommandOption {
	minRelics := float64(seed.MinRelicCount)
	return []*discordgo.ApplicationCommandOption{
		stringOption(leaguesettings.NameLogicMode, "Randomizer logic mode", seed.LogicModes),
		stringOption(leaguesettings.NameKeyMode, "Randomizer key mode", seed.KeyModeOrder),
		stringOption(leaguesettings.NameGoalMode, "Randomizer goal mode", seed.GoalModeOrder),
		stringOption(leaguesettings.NameSpawn, "Start location", seed.Spawns),
		stringOption(leaguesettings.NameVariation1, "Extra randomizer variation", seed.VariationOrder),
		stringOption(leaguesettings.NameVariation2, "Extra randomizer variation", seed.VariationOrder),
		stringOption(leaguesettings.NameVariation3, "Extra randomizer variation", seed.VariationOrder),
		stringOption(leaguesettings.NameItemPool, "Randomizer item pool", seed.ItemPools),
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        leaguesettings.NameRelicCount,
			Description: "(World Tour only) The number of relics to place in the seed",
			MinValue:    &minRelics,
			MaxValue:    float64(seed.MaxRelicCount),
		},
	}
}

func seedNameOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        leaguesettings.NameSeedName,
		Description: description,
		MaxLength:   64,
	}
}

func dateOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        optionDate,
		Description: description,
	}
}

func commandDefinitions() []*discordgo.ApplicationCommand {
	setOptions := append(seedSettingOptions(),
		seedNameOption("Seed name override for the week"),
		dateOption("Any date inside the league week (YYYY-MM-DD)"),
	)

	return []*discordgo.ApplicationCommand{
		{
			Name:        commandLeague,
			Description: "Ori rando league commands",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        subcommandSet,
					Description: "Set rando league seed settings (admin)",
					Options:     setOptions,
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        subcommandView,
					Description: "View rando league seed settings (admin)",
					Options:     []*discordgo.ApplicationCommandOption{dateOption("Any date inside the league week (YYYY-MM-DD)")},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        subcommandClear,
					Description: "Clear rando league seed settings (admin)",
					Options:     []*discordgo.ApplicationCommandOption{dateOption("Any date inside the league week (YYYY-MM-DD)")},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        subcommandSubmit,
					Description: "Submit a rando league result",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        optionTimer,
							Description: `The LiveSplit time (e.g. "40:43", "1:40:43" or "1:40:43.630")`,
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        optionVOD,
							Description: "The link to the VOD",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        subcommandSeed,
					Description: "Get this week's league seed",
				},
			},
		},
		{
			Name:        commandSeed,
			Description: "Generate an Ori and the Blind Forest randomizer seed",
			Options:     append([]*discordgo.ApplicationCommandOption{seedNameOption("A string to be used as seed")}, seedSettingOptions()...),
		},
		{
			Name:        commandDaily,
			Description: "Generate the seed of the day",
			Options:     seedSettingOptions(),
		},
	}
}
