package domain

import "strings"

// Session types accepted by the adaptive practice selector.
const (
	SessionWeakness  = "weakness"
	SessionStrength  = "strength"
	SessionChallenge = "challenge"
	SessionBalanced  = "balanced"
)

// Bounds on the number of problems in a generated session. Out-of-range
// counts are clamped, not rejected; this leniency is deliberate.
const (
	MinSessionCount = 1
	MaxSessionCount = 10
)

// PracticeItem is one recommended problem in a generated session.
// EstimatedXP is the zero-hint award for the chosen band, an upper bound the
// UI can show before the user solves it.
type PracticeItem struct {
	Subject     string
	Difficulty  string
	Reason      string
	EstimatedXP int
}

// IsValidSessionType reports whether the given type is one of the four
// supported session intents.
func IsValidSessionType(sessionType string) bool {
	switch strings.ToLower(sessionType) {
	case SessionWeakness, SessionStrength, SessionChallenge, SessionBalanced:
		return true
	}
	return false
}

// ClampSessionCount clamps a requested problem count into [1, 10].
func ClampSessionCount(count int) int {
	if count < MinSessionCount {
		return MinSessionCount
	}
	if count > MaxSessionCount {
		return MaxSessionCount
	}
	return count
}

// PracticeDifficultyFor maps a per-subject classification to the band a
// practice item should use: struggling subjects drop to elementary, strong
// ones climb to high.
func PracticeDifficultyFor(classification string) string {
	switch classification {
	case ClassificationHard:
		return DifficultyElementary
	case ClassificationEasy:
		return DifficultyHigh
	default:
		return DifficultyMiddle
	}
}
