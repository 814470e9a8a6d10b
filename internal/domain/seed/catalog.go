package seed

// Choice tables map user-facing names to seed generator codes.

var LogicModes = []string{"Casual", "Standard", "Expert", "Master", "Glitched"}

var KeyModes = map[string]string{
	"None":      "Default",
	"Shards":    "Shards",
	"Limitkeys": "Limitkeys",
	"Clues":     "Clues",
	"Free":      "Free",
}

var GoalModes = map[string]string{
	"None":         "",
	"Force Trees":  "ForceTrees",
	"World Tour":   "WorldTour",
	"Force Maps":   "ForceMaps",
	"Warmth Frags": "WarmthFrags",
	"Bingo":        "Bingo",
}

var Spawns = []string{
	"Random", "Glades", "Grove", "Swamp", "Grotto", "Forlorn",
	"Valley", "Horu", "Ginso", "Sorrow", "Blackroot",
}

var Variations = map[string]string{
	"Starved":           "Starved",
	"OHKO":              "OHKO",
	"0XP":               "0XP",
	"Closed Dungeons":   "ClosedDungeons",
	"Extra Copies":      "DoubleSkills",
	"Strict Mapstones":  "StrictMapstones",
	"TP Starved":        "TPStarved",
	"Skip Final Escape": "GoalModeFinish",
	"Wall Starved":      "WallStarved",
	"Grenade Starved":   "GrenadeStarved",
	"In-Logic Warps":    "InLogicWarps",
}

var ItemPools = []string{"Standard", "Competitive", "Bonus Lite", "Extra Bonus", "Hard"}

// Display orders for command choices; map iteration order is random.
var (
	KeyModeOrder   = []string{"None", "Shards", "Limitkeys", "Clues", "Free"}
	GoalModeOrder  = []string{"None", "Force Trees", "World Tour", "Force Maps", "Warmth Frags", "Bingo"}
	VariationOrder = []string{
		"Starved", "OHKO", "0XP", "Closed Dungeons", "Extra Copies", "Strict Mapstones",
		"TP Starved", "Skip Final Escape", "Wall Starved", "Grenade Starved", "In-Logic Warps",
	}
)

const pathDiffHard = "Hard"

var (
	casualPaths   = []string{"casual-core", "casual-dboost"}
	standardPaths = append(append([]string(nil), casualPaths...),
		"standard-core", "standard-dboost", "standard-lure", "standard-abilities")
	expertPaths = append(append([]string(nil), standardPaths...),
		"expert-core", "expert-dboost", "expert-lure", "expert-abilities", "dbash")
	masterPaths = append(append([]string(nil), expertPaths...),
		"master-core", "master-dboost", "master-lure")
	glitchedPaths = append(append([]string(nil), expertPaths...),
		"glitched", "timed-level")
)

var logicPaths = map[string][]string{
	"Casual":   casualPaths,
	"Standard": standardPaths,
	"Expert":   expertPaths,
	"Master":   masterPaths,
	"Glitched": glitchedPaths,
}

// LogicPaths returns the inherited logic paths of a preset.
func LogicPaths(logicMode string) []string {
	return append([]string(nil), logicPaths[logicMode]...)
}

func contains(values []string, v string) bool {
	for _, item := range values {
		if item == v {
			return true
		}
	}
	return false
}
