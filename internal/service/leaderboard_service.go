package service

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"math-tutor/internal/cache"
	"math-tutor/internal/config"
	"math-tutor/internal/domain"
	"math-tutor/internal/dto"
	"math-tutor/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LeaderboardService builds the global Top-N view and individual ranks. Only
// account-level records compete; sub-profiles are excluded from the board.
type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, limit int) (*dto.LeaderboardResponse, error)
	GetRank(ctx context.Context, userID string) (*dto.RankResponse, error)
}

type leaderboardService struct {
	xpRepo       domain.XPRepository
	streakRepo   domain.StreakRepository
	attemptRepo  domain.AttemptRepository
	identityRepo domain.IdentityRepository
	cacheClient  domain.Cache
	cfg          *config.Config
}

// NewLeaderboardService creates a new instance of LeaderboardService. The
// cache is optional; a nil cache disables the read-through layer.
func NewLeaderboardService(
	xpRepo domain.XPRepository,
	streakRepo domain.StreakRepository,
	attemptRepo domain.AttemptRepository,
	identityRepo domain.IdentityRepository,
	cacheClient domain.Cache,
	cfg *config.Config,
) LeaderboardService {
	return &leaderboardService{
		xpRepo:       xpRepo,
		streakRepo:   streakRepo,
		attemptRepo:  attemptRepo,
		identityRepo: identityRepo,
		cacheClient:  cacheClient,
		cfg:          cfg,
	}
}

// GetLeaderboard implements LeaderboardService. Enrichment lookups run as a
// fan-out/fan-in: identity, streak and solved-count batches are independent
// and a failed batch degrades its field to defaults instead of failing the
// whole board.
func (s *leaderboardService) GetLeaderboard(ctx context.Context, limit int) (*dto.LeaderboardResponse, error) {
	appLogger := logger.Get()
	if limit <= 0 {
		limit = s.cfg.Gamification.LeaderboardLimit
	}

	cacheKey := cache.GenerateCacheKey("leaderboard", "top", strconv.Itoa(limit))
	if s.cacheClient != nil {
		if cached, err := s.cacheClient.Get(ctx, cacheKey); err == nil {
			var resp dto.LeaderboardResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return &resp, nil
			}
			appLogger.Warn("Failed to unmarshal cached leaderboard", zap.String("key", cacheKey))
		}
	}

	records, err := s.xpRepo.QueryTopXP(ctx, limit)
	if err != nil {
		return nil, domain.NewInternalError("Failed to query top XP records", err)
	}

	userIDs := make([]string, 0, len(records))
	for _, r := range records {
		userIDs = append(userIDs, r.Key.UserID)
	}

	var (
		identities map[string]domain.Identity
		streaks    map[string]domain.StreakRecord
		solved     map[string]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := s.identityRepo.BatchGetIdentity(gctx, userIDs)
		if err != nil {
			appLogger.Warn("Leaderboard identity lookup failed, using fallbacks", zap.Error(err))
			return nil
		}
		identities = m
		return nil
	})
	g.Go(func() error {
		m, err := s.streakRepo.BatchGetStreaks(gctx, userIDs)
		if err != nil {
			appLogger.Warn("Leaderboard streak lookup failed, using zero streaks", zap.Error(err))
			return nil
		}
		streaks = m
		return nil
	})
	g.Go(func() error {
		m, err := s.attemptRepo.BatchCountSolved(gctx, userIDs)
		if err != nil {
			appLogger.Warn("Leaderboard solved-count lookup failed, using zero counts", zap.Error(err))
			return nil
		}
		solved = m
		return nil
	})
	_ = g.Wait()

	resp := &dto.LeaderboardResponse{Entries: make([]dto.LeaderboardEntryItem, 0, len(records))}
	for i, record := range records {
		level := record.Level()
		entry := dto.LeaderboardEntryItem{
			Rank:        i + 1,
			UserID:      record.Key.UserID,
			DisplayName: displayNameFor(identities[record.Key.UserID]),
			TotalXP:     record.TotalXP,
			Level:       level,
			RankTitle:   domain.RankTitleForLevel(level),
			LastActive:  record.UpdatedAt,
		}
		if streak, ok := streaks[record.Key.UserID]; ok {
			entry.CurrentStreak = streak.CurrentStreak
		}
		if count, ok := solved[record.Key.UserID]; ok {
			entry.ProblemsSolved = count
		}
		resp.Entries = append(resp.Entries, entry)
	}

	if s.cacheClient != nil {
		if payload, err := json.Marshal(resp); err == nil {
			if err := s.cacheClient.Set(ctx, cacheKey, string(payload), s.cfg.Gamification.LeaderboardCacheTTL); err != nil {
				appLogger.Warn("Failed to cache leaderboard", zap.String("key", cacheKey), zap.Error(err))
			}
		}
	}

	return resp, nil
}

// GetRank implements LeaderboardService. A user inside the current Top-N gets
// their board position; anyone else with XP gets a count-of-strictly-greater
// rank; zero XP has no rank at all.
func (s *leaderboardService) GetRank(ctx context.Context, userID string) (*dto.RankResponse, error) {
	key := domain.ProfileKey{UserID: userID}
	record, err := s.xpRepo.GetXP(ctx, key)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get XP record", err)
	}
	if record == nil || record.TotalXP == 0 {
		resp := &dto.RankResponse{}
		if record != nil {
			resp.TotalXP = record.TotalXP
		}
		return resp, nil
	}

	top, err := s.xpRepo.QueryTopXP(ctx, s.cfg.Gamification.LeaderboardLimit)
	if err != nil {
		return nil, domain.NewInternalError("Failed to query top XP records", err)
	}
	for i, r := range top {
		if r.Key.UserID == userID {
			rank := i + 1
			return &dto.RankResponse{Rank: &rank, TotalXP: record.TotalXP}, nil
		}
	}

	greater, err := s.xpRepo.CountXPGreaterThan(ctx, record.TotalXP)
	if err != nil {
		return nil, domain.NewInternalError("Failed to count higher-ranked records", err)
	}
	rank := greater + 1
	return &dto.RankResponse{Rank: &rank, TotalXP: record.TotalXP}, nil
}

// displayNameFor resolves the visible name: profile display name, then the
// local part of the email, then the anonymous fallback.
func displayNameFor(identity domain.Identity) string {
	if identity.DisplayName != "" {
		return identity.DisplayName
	}
	if identity.Email != "" {
		if at := strings.Index(identity.Email, "@"); at > 0 {
			return identity.Email[:at]
		}
		return identity.Email
	}
	return domain.AnonymousDisplayName
}
