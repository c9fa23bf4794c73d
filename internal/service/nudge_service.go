package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"math-tutor/internal/config"
	"math-tutor/internal/domain"
	"math-tutor/internal/dto"
	"math-tutor/internal/logger"
	"math-tutor/internal/util"

	"go.uber.org/zap"
)

// maxNudges caps how many nudges one request may surface.
const maxNudges = 3

// recentSubjectsWindow bounds the history window the skill-decay rule looks at.
const recentSubjectsWindow = 7 * 24 * time.Hour

// NudgeService evaluates the engagement rules and manages nudge lifecycle.
type NudgeService interface {
	GetNudges(ctx context.Context, key domain.ProfileKey) (*dto.NudgesResponse, error)
	DismissNudge(ctx context.Context, key domain.ProfileKey, nudgeID string) error
}

type nudgeService struct {
	xpRepo      domain.XPRepository
	streakRepo  domain.StreakRepository
	attemptRepo domain.AttemptRepository
	nudgeRepo   domain.NudgeRepository
	cfg         *config.Config
}

// NewNudgeService creates a new instance of NudgeService.
func NewNudgeService(
	xpRepo domain.XPRepository,
	streakRepo domain.StreakRepository,
	attemptRepo domain.AttemptRepository,
	nudgeRepo domain.NudgeRepository,
	cfg *config.Config,
) NudgeService {
	return &nudgeService{
		xpRepo:      xpRepo,
		streakRepo:  streakRepo,
		attemptRepo: attemptRepo,
		nudgeRepo:   nudgeRepo,
		cfg:         cfg,
	}
}

// GetNudges implements NudgeService. Rules are evaluated against a fresh
// engagement snapshot; an already-active nudge of the same type is reused
// rather than duplicated, so repeated calls against an unchanged snapshot are
// idempotent.
func (s *nudgeService) GetNudges(ctx context.Context, key domain.ProfileKey) (*dto.NudgesResponse, error) {
	now := time.Now()
	snapshot, err := s.buildSnapshot(ctx, key, now)
	if err != nil {
		return nil, err
	}

	candidates := evaluateRules(*snapshot)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority.Less(candidates[j].Priority)
	})
	if len(candidates) > maxNudges {
		candidates = candidates[:maxNudges]
	}

	resp := &dto.NudgesResponse{Nudges: make([]dto.NudgeItem, 0, len(candidates))}
	for _, candidate := range candidates {
		nudge, err := s.materialize(ctx, key, candidate, now)
		if err != nil {
			logger.Get().Error("Failed to persist nudge",
				zap.Error(err),
				zap.String("userID", key.UserID),
				zap.String("type", string(candidate.Type)))
			continue
		}
		resp.Nudges = append(resp.Nudges, toNudgeItem(nudge))
	}
	return resp, nil
}

// DismissNudge implements NudgeService. Dismissal is one-way; there is no
// re-activation path. The nudge must be active and belong to the caller's key.
func (s *nudgeService) DismissNudge(ctx context.Context, key domain.ProfileKey, nudgeID string) error {
	active, err := s.nudgeRepo.ListActiveNudges(ctx, key, time.Now())
	if err != nil {
		return domain.NewInternalError("Failed to list active nudges", err)
	}
	for _, n := range active {
		if n.ID == nudgeID {
			if err := s.nudgeRepo.DismissNudge(ctx, nudgeID); err != nil {
				return err
			}
			logger.Get().Info("Nudge dismissed",
				zap.String("userID", key.UserID),
				zap.String("nudgeID", nudgeID))
			return nil
		}
	}
	return domain.NewNudgeNotFoundError(nudgeID)
}

// materialize reuses an active nudge of the candidate's type or inserts the
// candidate as a new row.
func (s *nudgeService) materialize(ctx context.Context, key domain.ProfileKey, candidate domain.Nudge, now time.Time) (*domain.Nudge, error) {
	existing, err := s.nudgeRepo.FindActiveNudge(ctx, key, candidate.Type, now)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	candidate.ID = util.NewULID()
	candidate.Key = key
	candidate.CreatedAt = now
	expiresAt := now.Add(s.cfg.Gamification.NudgeExpiry)
	candidate.ExpiresAt = &expiresAt
	if err := s.nudgeRepo.InsertNudge(ctx, &candidate); err != nil {
		return nil, err
	}
	return &candidate, nil
}

// buildSnapshot assembles the read model the rules evaluate from the XP
// record, streak record and recent attempt history.
func (s *nudgeService) buildSnapshot(ctx context.Context, key domain.ProfileKey, now time.Time) (*domain.EngagementSnapshot, error) {
	record, err := s.xpRepo.GetXP(ctx, key)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get XP record", err)
	}
	if record == nil {
		record = domain.NewXPRecord(key)
	}

	streak, err := s.streakRepo.GetStreak(ctx, key)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get streak record", err)
	}
	if streak == nil {
		streak = domain.NewStreakRecord(key)
	}

	problemsToday, err := s.attemptRepo.CountCompletedOn(ctx, key, now)
	if err != nil {
		return nil, domain.NewInternalError("Failed to count today's completions", err)
	}

	recentSubjects, err := s.attemptRepo.RecentSubjects(ctx, key, domain.HistoryWindow{Since: now.Add(-recentSubjectsWindow)})
	if err != nil {
		return nil, domain.NewInternalError("Failed to get recent subjects", err)
	}

	var lastActive time.Time
	if streak.LastStudyDate != nil {
		lastActive = *streak.LastStudyDate
	} else if !record.UpdatedAt.IsZero() {
		lastActive = record.UpdatedAt
	}

	return &domain.EngagementSnapshot{
		Now:            now,
		LastActive:     lastActive,
		CurrentStreak:  streak.CurrentStreak,
		LongestStreak:  streak.LongestStreak,
		TotalXP:        record.TotalXP,
		Level:          record.Level(),
		XPToNextLevel:  record.XPToNextLevel(),
		ProblemsToday:  problemsToday,
		DailyGoal:      s.cfg.Gamification.DailyGoal,
		RecentSubjects: recentSubjects,
	}, nil
}

// evaluateRules runs every rule against the snapshot. Each rule emits zero or
// one candidate; rules never see each other's output.
func evaluateRules(snap domain.EngagementSnapshot) []domain.Nudge {
	var nudges []domain.Nudge
	rules := []func(domain.EngagementSnapshot) *domain.Nudge{
		ruleStreakAtRisk,
		ruleComeback,
		ruleMilestoneClose,
		ruleDailyGoal,
		ruleSkillDecay,
		ruleNewUser,
	}
	for _, rule := range rules {
		if n := rule(snap); n != nil {
			nudges = append(nudges, *n)
		}
	}
	return nudges
}

func ruleStreakAtRisk(snap domain.EngagementSnapshot) *domain.Nudge {
	if snap.ProblemsToday != 0 || snap.CurrentStreak <= 0 {
		return nil
	}
	priority := domain.PriorityMedium
	if snap.CurrentStreak >= 7 {
		priority = domain.PriorityHigh
	}
	return &domain.Nudge{
		Type:     domain.NudgeStreakAtRisk,
		Title:    "Your streak is at risk!",
		Message:  fmt.Sprintf("Your %d-day streak ends in %d hours. Solve one problem to keep it going.", snap.CurrentStreak, util.HoursUntilTomorrow(snap.Now)),
		Priority: priority,
		Action:   &domain.NudgeAction{Label: "Practice now", Kind: "start_practice"},
	}
}

func ruleComeback(snap domain.EngagementSnapshot) *domain.Nudge {
	days := snap.DaysSinceActive()
	if days < 3 || days >= 30 {
		return nil
	}
	priority := domain.PriorityMedium
	if days >= 7 {
		priority = domain.PriorityHigh
	}
	return &domain.Nudge{
		Type:     domain.NudgeComeback,
		Title:    "Welcome back!",
		Message:  fmt.Sprintf("It has been %d days since your last session. A quick warm-up will get you back on track.", days),
		Priority: priority,
		Action:   &domain.NudgeAction{Label: "Start a warm-up", Kind: "start_practice"},
	}
}

func ruleMilestoneClose(snap domain.EngagementSnapshot) *domain.Nudge {
	if snap.XPToNextLevel <= 0 || snap.XPToNextLevel > 30 {
		return nil
	}
	return &domain.Nudge{
		Type:     domain.NudgeMilestoneClose,
		Title:    "Almost there!",
		Message:  fmt.Sprintf("Only %d XP to reach level %d.", snap.XPToNextLevel, snap.Level+1),
		Priority: domain.PriorityHigh,
		Action:   &domain.NudgeAction{Label: "Earn XP", Kind: "start_practice"},
	}
}

func ruleDailyGoal(snap domain.EngagementSnapshot) *domain.Nudge {
	if snap.ProblemsToday <= 0 || snap.ProblemsToday >= snap.DailyGoal {
		return nil
	}
	remaining := snap.DailyGoal - snap.ProblemsToday
	priority := domain.PriorityLow
	if remaining <= 2 {
		priority = domain.PriorityHigh
	}
	return &domain.Nudge{
		Type:     domain.NudgeDailyGoal,
		Title:    "Daily goal in sight",
		Message:  fmt.Sprintf("%d more problem(s) and today's goal of %d is done.", remaining, snap.DailyGoal),
		Priority: priority,
		Action:   &domain.NudgeAction{Label: "Keep going", Kind: "start_practice"},
	}
}

func ruleSkillDecay(snap domain.EngagementSnapshot) *domain.Nudge {
	if len(snap.RecentSubjects) < 1 || len(snap.RecentSubjects) >= 3 {
		return nil
	}
	recent := make(map[string]bool, len(snap.RecentSubjects))
	for _, subject := range snap.RecentSubjects {
		recent[subject] = true
	}
	suggestion := ""
	for _, subject := range domain.SubjectCatalog {
		if !recent[subject] {
			suggestion = subject
			break
		}
	}
	if suggestion == "" {
		return nil
	}
	return &domain.Nudge{
		Type:     domain.NudgeSkillDecay,
		Title:    "Mix it up",
		Message:  fmt.Sprintf("You have been focusing on a few topics lately. How about some %s?", suggestion),
		Priority: domain.PriorityLow,
		Action:   &domain.NudgeAction{Label: "Try it", Kind: "start_practice", Data: suggestion},
	}
}

func ruleNewUser(snap domain.EngagementSnapshot) *domain.Nudge {
	if snap.TotalXP <= 0 || snap.TotalXP >= 50 {
		return nil
	}
	return &domain.Nudge{
		Type:     domain.NudgeNewUser,
		Title:    "Great start!",
		Message:  fmt.Sprintf("You have earned %d XP so far. Reach 50 XP to unlock your first milestone.", snap.TotalXP),
		Priority: domain.PriorityLow,
		Action:   &domain.NudgeAction{Label: "Keep practicing", Kind: "start_practice"},
	}
}

func toNudgeItem(n *domain.Nudge) dto.NudgeItem {
	item := dto.NudgeItem{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Priority:  string(n.Priority),
		CreatedAt: n.CreatedAt,
		ExpiresAt: n.ExpiresAt,
	}
	if n.Action != nil {
		item.Action = &dto.NudgeActionItem{Label: n.Action.Label, Kind: n.Action.Kind, Data: n.Action.Data}
	}
	return item
}
