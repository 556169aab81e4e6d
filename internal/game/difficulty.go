package game

import (
	"strings"

	"github.com/samber/lo"

	models "github.com/CodeAndHammer/guessr/internal/models"
)

type Rules struct {
	Difficulty  models.Difficulty `json:"difficulty"`
	RangeMax    int               `json:"range_max"`
	MaxAttempts int               `json:"max_attempts"`
}

var rules = []Rules{
	{Difficulty: models.DifficultyEasy, RangeMax: 20, MaxAttempts: 5},
	{Difficulty: models.DifficultyMedium, RangeMax: 50, MaxAttempts: 7},
	{Difficulty: models.DifficultyHard, RangeMax: 100, MaxAttempts: 10},
}

// Difficulties lists every difficulty in display order.
func Difficulties() []models.Difficulty {
	return lo.Map(rules, func(r Rules, _ int) models.Difficulty { return r.Difficulty })
}

func AllRules() []Rules {
	out := make([]Rules, len(rules))
	copy(out, rules)
	return out
}

// Policy returns the range and attempt budget for d. Unknown difficulties
// get the easy rules.
func Policy(d models.Difficulty) (rangeMax, maxAttempts int) {
	r, ok := lo.Find(rules, func(r Rules) bool { return r.Difficulty == d })
	if !ok {
		r = rules[0]
	}
	return r.RangeMax, r.MaxAttempts
}

func IsValidDifficulty(d models.Difficulty) bool {
	return lo.Contains(Difficulties(), d)
}

// ParseDifficulty normalizes user input, falling back to easy.
func ParseDifficulty(s string) models.Difficulty {
	d := models.Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if IsValidDifficulty(d) {
		return d
	}
	return models.DifficultyEasy
}
