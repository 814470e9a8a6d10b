package seed

import (
	"net/url"
	"strconv"
)

// BuildQuery maps options onto generator query parameters. Options are
// expected to be defaulted and validated.
func BuildQuery(opts Options) url.Values {
	q := url.Values{}
	q.Set("seed", opts.SeedName)
	for _, path := range logicPaths[opts.LogicMode] {
		q.Add("path", path)
	}
	q.Set("key_mode", KeyModes[opts.KeyMode])

	seenVar := map[string]struct{}{}
	addVar := func(code string) {
		if code == "" {
			return
		}
		if _, ok := seenVar[code]; ok {
			return
		}
		seenVar[code] = struct{}{}
		q.Add("var", code)
	}

	addVar(GoalModes[opts.GoalMode])
	q.Set("pool_preset", opts.ItemPool)
	q.Set("spawn", opts.Spawn)
	if opts.GoalMode == "World Tour" {
		q.Set("relics", strconv.Itoa(opts.RelicCount))
	}
	for _, v := range opts.Variations {
		addVar(Variations[v])
	}

	switch opts.LogicMode {
	case "Casual":
		q.Set("cell_freq", "20")
	case "Standard":
		q.Set("cell_freq", "40")
	case "Master":
		q.Set("path_diff", pathDiffHard)
		addVar(Variations["Starved"])
	case "Glitched":
		q.Set("path_diff", pathDiffHard)
	}
	return q
}
