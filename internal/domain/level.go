package domain

import (
	"math"
	"strings"
)

// Difficulty bands for problems, ordered from easiest to hardest.
const (
	DifficultyElementary = "elementary"
	DifficultyMiddle     = "middle"
	DifficultyHigh       = "high"
	DifficultyAdvanced   = "advanced"
)

// difficultyOrder lists the bands from easiest to hardest for escalation logic.
var difficultyOrder = []string{DifficultyElementary, DifficultyMiddle, DifficultyHigh, DifficultyAdvanced}

// xpBaseByDifficulty maps a difficulty band to its base XP award.
var xpBaseByDifficulty = map[string]int{
	DifficultyElementary: 5,
	DifficultyMiddle:     10,
	DifficultyHigh:       15,
	DifficultyAdvanced:   20,
}

const (
	// MinProblemAward is the floor applied after hint penalties.
	MinProblemAward = 5
	// HintPenalty is the XP deducted per hint used.
	HintPenalty = 2

	// Login bonus amounts. First-ever login pays more than a repeat daily login.
	LoginBonusFirst  = 20
	LoginBonusRepeat = 5

	baseLevelThreshold = 100
)

// LevelForXP maps cumulative XP to a level and the XP still needed for the
// next level. The curve starts at 100 XP for level 2 and each subsequent
// increment grows by roughly 1.5x: 100, 250, 400, 600, ...
//
// The curve has no upper bound and must be walked iteratively; there is no
// closed form for the rounded thresholds.
func LevelForXP(totalXP int) (level int, xpToNext int) {
	if totalXP < 0 {
		totalXP = 0
	}
	level = 1
	threshold := baseLevelThreshold
	accumulated := 0
	for accumulated+threshold <= totalXP {
		accumulated += threshold
		level++
		threshold = int(math.Round(float64(baseLevelThreshold)*float64(level-1)*1.5)) + baseLevelThreshold
	}
	return level, threshold - (totalXP - accumulated)
}

// ProblemAward computes the XP for a completed problem: a base by difficulty
// band minus 2 XP per hint, floored at 5. Unknown bands pay the middle base.
func ProblemAward(difficulty string, hintsUsed int) int {
	base, ok := xpBaseByDifficulty[strings.ToLower(difficulty)]
	if !ok {
		base = xpBaseByDifficulty[DifficultyMiddle]
	}
	if hintsUsed < 0 {
		hintsUsed = 0
	}
	amount := base - hintsUsed*HintPenalty
	if amount < MinProblemAward {
		amount = MinProblemAward
	}
	return amount
}

// IsValidDifficulty reports whether the given band is one of the four known bands.
func IsValidDifficulty(difficulty string) bool {
	_, ok := xpBaseByDifficulty[strings.ToLower(difficulty)]
	return ok
}

// EscalateDifficulty returns the band one step harder than the given one.
// The hardest band escalates to itself.
func EscalateDifficulty(difficulty string) string {
	for i, d := range difficultyOrder {
		if d == strings.ToLower(difficulty) {
			if i+1 < len(difficultyOrder) {
				return difficultyOrder[i+1]
			}
			return d
		}
	}
	return DifficultyMiddle
}

// HardestDifficulty returns the top band of the ladder.
func HardestDifficulty() string {
	return difficultyOrder[len(difficultyOrder)-1]
}

// RankTitleForLevel maps a level to the display title shown on the leaderboard.
func RankTitleForLevel(level int) string {
	switch {
	case level >= 20:
		return "Grandmaster"
	case level >= 15:
		return "Master"
	case level >= 10:
		return "Scholar"
	case level >= 5:
		return "Apprentice"
	default:
		return "Novice"
	}
}
