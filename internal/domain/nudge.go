package domain

import (
	"context"
	"time"
)

// NudgeType identifies which engagement rule produced a nudge.
type NudgeType string

const (
	NudgeStreakAtRisk   NudgeType = "streak_at_risk"
	NudgeComeback       NudgeType = "comeback"
	NudgeMilestoneClose NudgeType = "milestone_close"
	NudgeDailyGoal      NudgeType = "daily_goal"
	NudgeSkillDecay     NudgeType = "skill_decay"
	NudgeNewUser        NudgeType = "new_user"
)

// NudgePriority orders nudges for display; high sorts first.
type NudgePriority string

const (
	PriorityHigh   NudgePriority = "high"
	PriorityMedium NudgePriority = "medium"
	PriorityLow    NudgePriority = "low"
)

// priorityRank gives high the smallest sort key.
var priorityRank = map[NudgePriority]int{
	PriorityHigh:   0,
	PriorityMedium: 1,
	PriorityLow:    2,
}

// Less reports whether p sorts before other.
func (p NudgePriority) Less(other NudgePriority) bool {
	return priorityRank[p] < priorityRank[other]
}

// NudgeAction is an optional suggested next step attached to a nudge.
type NudgeAction struct {
	Label string `json:"label"`
	Kind  string `json:"kind"`
	Data  string `json:"data,omitempty"`
}

// Nudge is a rule-triggered re-engagement message. It is created when a rule
// fires and no active nudge of the same type exists for the same key, mutated
// only by dismissal, and expires passively at read time.
type Nudge struct {
	ID        string
	Key       ProfileKey
	Type      NudgeType
	Title     string
	Message   string
	Priority  NudgePriority
	Action    *NudgeAction
	Dismissed bool
	CreatedAt time.Time
	ExpiresAt *time.Time
}

// IsActive reports whether the nudge is neither dismissed nor expired.
func (n *Nudge) IsActive(now time.Time) bool {
	if n.Dismissed {
		return false
	}
	if n.ExpiresAt != nil && !now.Before(*n.ExpiresAt) {
		return false
	}
	return true
}

// EngagementSnapshot is the read model the nudge rules evaluate. It is
// assembled from the XP record, streak record and recent attempt history.
type EngagementSnapshot struct {
	Now            time.Time
	LastActive     time.Time
	CurrentStreak  int
	LongestStreak  int
	TotalXP        int
	Level          int
	XPToNextLevel  int
	ProblemsToday  int
	DailyGoal      int
	RecentSubjects []string
}

// DaysSinceActive returns whole calendar days since the last activity, or -1
// when the user was never active.
func (s EngagementSnapshot) DaysSinceActive() int {
	if s.LastActive.IsZero() {
		return -1
	}
	return int(s.Now.Sub(s.LastActive).Hours() / 24)
}

// NudgeRepository defines persistence for nudges.
type NudgeRepository interface {
	// FindActiveNudge returns (nil, nil) when no undismissed, unexpired nudge
	// of the type exists for the key.
	FindActiveNudge(ctx context.Context, key ProfileKey, nudgeType NudgeType, now time.Time) (*Nudge, error)
	InsertNudge(ctx context.Context, nudge *Nudge) error
	// DismissNudge flips dismissed to true; the transition is one-way.
	DismissNudge(ctx context.Context, id string) error
	// ListActiveNudges returns undismissed, unexpired nudges, newest first.
	ListActiveNudges(ctx context.Context, key ProfileKey, now time.Time) ([]Nudge, error)
}
