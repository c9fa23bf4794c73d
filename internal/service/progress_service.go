package service

import (
	"context"
	"errors"
	"time"

	"math-tutor/internal/domain"
	"math-tutor/internal/dto"
	"math-tutor/internal/logger"
	"math-tutor/internal/util"

	"go.uber.org/zap"
)

const (
	// maxAwardRetries bounds the optimistic-concurrency retry loop. Three
	// attempts is enough for the write contention a single user can produce.
	maxAwardRetries = 3

	recentGainsLimit = 10

	reasonProblemCompleted = "problem_completed"
	reasonFirstLoginBonus  = "first_login_bonus"
	reasonDailyLoginBonus  = "daily_login_bonus"
)

// ProgressService defines XP and streak operations for a profile key.
type ProgressService interface {
	GetProgress(ctx context.Context, key domain.ProfileKey) (*dto.ProgressResponse, error)
	RecordCompletion(ctx context.Context, key domain.ProfileKey, req *dto.CompleteProblemRequest) (*dto.CompleteProblemResponse, error)
	AwardLoginBonus(ctx context.Context, key domain.ProfileKey) (*dto.LoginBonusResponse, error)
}

type progressService struct {
	xpRepo      domain.XPRepository
	streakRepo  domain.StreakRepository
	attemptRepo domain.AttemptRepository
	txManager   domain.TransactionManager
}

// NewProgressService creates a new instance of ProgressService.
func NewProgressService(
	xpRepo domain.XPRepository,
	streakRepo domain.StreakRepository,
	attemptRepo domain.AttemptRepository,
	txManager domain.TransactionManager,
) ProgressService {
	return &progressService{
		xpRepo:      xpRepo,
		streakRepo:  streakRepo,
		attemptRepo: attemptRepo,
		txManager:   txManager,
	}
}

// GetProgress implements ProgressService. Missing XP or streak rows read as
// zero-value records, never as errors.
func (s *progressService) GetProgress(ctx context.Context, key domain.ProfileKey) (*dto.ProgressResponse, error) {
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

	events, err := s.xpRepo.GetRecentXPEvents(ctx, key, recentGainsLimit)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get recent XP events", err)
	}

	gains := make([]dto.XPGainItem, 0, len(events))
	for _, e := range events {
		gains = append(gains, dto.XPGainItem{XP: e.Amount, Reason: e.Reason, Timestamp: e.AwardedAt})
	}

	return &dto.ProgressResponse{
		TotalXP:       record.TotalXP,
		Level:         record.Level(),
		XPToNextLevel: record.XPToNextLevel(),
		RankTitle:     domain.RankTitleForLevel(record.Level()),
		CurrentStreak: streak.CurrentStreak,
		LongestStreak: streak.LongestStreak,
		LastStudyDate: streak.LastStudyDate,
		RecentGains:   gains,
	}, nil
}

// RecordCompletion implements ProgressService. The attempt insert, the XP
// award and the streak advance are independent best-effort sub-operations: a
// failed side-effect write is logged and flagged in the response instead of
// failing the whole completion.
func (s *progressService) RecordCompletion(ctx context.Context, key domain.ProfileKey, req *dto.CompleteProblemRequest) (*dto.CompleteProblemResponse, error) {
	appLogger := logger.Get()
	now := time.Now()
	resp := &dto.CompleteProblemResponse{}

	attempt := &domain.ProblemAttempt{
		Key:              key,
		Subject:          req.Subject,
		Difficulty:       req.Difficulty,
		Attempts:         req.Attempts,
		TimeSpentSeconds: req.TimeSpentSeconds,
		HintsUsed:        req.HintsUsed,
		Completed:        req.Completed,
		AttemptedAt:      now,
	}
	if err := s.attemptRepo.CreateAttempt(ctx, attempt); err != nil {
		appLogger.Error("Failed to record problem attempt",
			zap.Error(err),
			zap.String("userID", key.UserID),
			zap.String("subject", req.Subject))
		resp.AttemptSaved = dto.SubOperationResult{Error: err.Error()}
	} else {
		resp.AttemptSaved = dto.SubOperationResult{OK: true}
	}

	if !req.Completed {
		// Abandoned attempts only feed the history; no XP, no streak credit.
		resp.XPUpdated = dto.SubOperationResult{OK: true}
		resp.StreakUpdated = dto.SubOperationResult{OK: true}
		if record, err := s.xpRepo.GetXP(ctx, key); err == nil && record != nil {
			resp.TotalXP = record.TotalXP
			resp.Level = record.Level()
			resp.XPToNextLevel = record.XPToNextLevel()
		}
		if streak, err := s.streakRepo.GetStreak(ctx, key); err == nil && streak != nil {
			resp.CurrentStreak = streak.CurrentStreak
			resp.LongestStreak = streak.LongestStreak
		}
		return resp, nil
	}

	amount := domain.ProblemAward(req.Difficulty, req.HintsUsed)
	record, err := s.awardXP(ctx, key, amount, reasonProblemCompleted)
	if err != nil {
		appLogger.Error("Failed to award XP for completed problem",
			zap.Error(err),
			zap.String("userID", key.UserID),
			zap.Int("amount", amount))
		resp.XPUpdated = dto.SubOperationResult{Error: err.Error()}
	} else {
		resp.XPUpdated = dto.SubOperationResult{OK: true}
		resp.XPAwarded = amount
		resp.TotalXP = record.TotalXP
		resp.Level = record.Level()
		resp.XPToNextLevel = record.XPToNextLevel()
	}

	streak, err := s.advanceStreak(ctx, key, now)
	if err != nil {
		appLogger.Error("Failed to advance streak for completed problem",
			zap.Error(err),
			zap.String("userID", key.UserID))
		resp.StreakUpdated = dto.SubOperationResult{Error: err.Error()}
	} else {
		resp.StreakUpdated = dto.SubOperationResult{OK: true}
		resp.CurrentStreak = streak.CurrentStreak
		resp.LongestStreak = streak.LongestStreak
	}

	return resp, nil
}

// AwardLoginBonus implements ProgressService. The first-ever login pays the
// larger bonus; repeat logins pay the daily bonus at most once per calendar day.
func (s *progressService) AwardLoginBonus(ctx context.Context, key domain.ProfileKey) (*dto.LoginBonusResponse, error) {
	record, err := s.xpRepo.GetXP(ctx, key)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get XP record", err)
	}

	now := time.Now()
	amount := domain.LoginBonusRepeat
	reason := reasonDailyLoginBonus
	first := record == nil
	if first {
		amount = domain.LoginBonusFirst
		reason = reasonFirstLoginBonus
	} else {
		events, err := s.xpRepo.GetRecentXPEvents(ctx, key, recentGainsLimit)
		if err != nil {
			return nil, domain.NewInternalError("Failed to get recent XP events", err)
		}
		for _, e := range events {
			if (e.Reason == reasonDailyLoginBonus || e.Reason == reasonFirstLoginBonus) && util.SameDay(e.AwardedAt, now) {
				return &dto.LoginBonusResponse{
					XPAwarded: 0,
					TotalXP:   record.TotalXP,
					Level:     record.Level(),
				}, nil
			}
		}
	}

	updated, err := s.awardXP(ctx, key, amount, reason)
	if err != nil {
		return nil, domain.NewInternalError("Failed to award login bonus", err)
	}

	return &dto.LoginBonusResponse{
		XPAwarded:  amount,
		FirstLogin: first,
		TotalXP:    updated.TotalXP,
		Level:      updated.Level(),
	}, nil
}

// awardXP applies one award under optimistic concurrency: read the record,
// apply the award to a copy, write it back guarded by the version we read.
// A version conflict means another writer got there first; reread and retry.
// The total update and the history append commit in one transaction so the
// ledger never disagrees with the total.
func (s *progressService) awardXP(ctx context.Context, key domain.ProfileKey, amount int, reason string) (*domain.XPRecord, error) {
	var lastErr error
	for attempt := 0; attempt < maxAwardRetries; attempt++ {
		record, err := s.xpRepo.GetXP(ctx, key)
		if err != nil {
			return nil, err
		}

		now := time.Now()
		event := domain.XPEvent{ID: util.NewULID(), Amount: amount, Reason: reason, AwardedAt: now}

		var next *domain.XPRecord
		if record == nil {
			fresh := domain.NewXPRecord(key)
			fresh.CreatedAt = now
			next = fresh.Apply(amount, reason, event.ID, now)
			err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
				if err := s.xpRepo.CreateXP(txCtx, next); err != nil {
					return err
				}
				return s.xpRepo.AppendXPEvent(txCtx, key, event)
			})
		} else {
			next = record.Apply(amount, reason, event.ID, now)
			err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
				if err := s.xpRepo.UpdateXP(txCtx, next, record.Version); err != nil {
					return err
				}
				return s.xpRepo.AppendXPEvent(txCtx, key, event)
			})
		}

		if err == nil {
			return next, nil
		}
		if !isConflict(err) {
			return nil, err
		}
		lastErr = err
		logger.Get().Warn("XP award lost a version race, retrying",
			zap.String("userID", key.UserID),
			zap.Int("attempt", attempt+1))
	}
	return nil, lastErr
}

// advanceStreak runs the calendar-day transition under the same optimistic
// scheme as awardXP. Same-day repeats short-circuit without a write.
func (s *progressService) advanceStreak(ctx context.Context, key domain.ProfileKey, now time.Time) (*domain.StreakRecord, error) {
	var lastErr error
	for attempt := 0; attempt < maxAwardRetries; attempt++ {
		record, err := s.streakRepo.GetStreak(ctx, key)
		if err != nil {
			return nil, err
		}

		if record == nil {
			next := domain.NewStreakRecord(key).Advance(now)
			if err := s.streakRepo.CreateStreak(ctx, next); err == nil {
				return next, nil
			} else if !isConflict(err) {
				return nil, err
			} else {
				lastErr = err
				continue
			}
		}

		if record.LastStudyDate != nil && util.SameDay(*record.LastStudyDate, now) {
			return record, nil
		}

		next := record.Advance(now)
		err = s.streakRepo.UpdateStreak(ctx, next, record.Version)
		if err == nil {
			return next, nil
		}
		if !isConflict(err) {
			return nil, err
		}
		lastErr = err
		logger.Get().Warn("Streak advance lost a version race, retrying",
			zap.String("userID", key.UserID),
			zap.Int("attempt", attempt+1))
	}
	return nil, lastErr
}

// isConflict reports whether an error is the optimistic-concurrency conflict
// the retry loops are allowed to absorb.
func isConflict(err error) bool {
	var domainErr *domain.DomainError
	return errors.As(err, &domainErr) && domainErr.Code == domain.CodeConflict
}
