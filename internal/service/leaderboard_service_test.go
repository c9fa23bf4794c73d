package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"math-tutor/internal/config"
	"math-tutor/internal/domain"
	"math-tutor/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func leaderboardTestConfig() *config.Config {
	return &config.Config{
		Gamification: config.GamificationConfig{
			DailyGoal:           5,
			LeaderboardLimit:    10,
			LeaderboardCacheTTL: time.Minute,
			NudgeExpiry:         24 * time.Hour,
		},
	}
}

func topRecords(xps ...int) []domain.XPRecord {
	records := make([]domain.XPRecord, 0, len(xps))
	for i, xp := range xps {
		records = append(records, domain.XPRecord{
			Key:       domain.ProfileKey{UserID: userIDForRank(i)},
			TotalXP:   xp,
			UpdatedAt: time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
		})
	}
	return records
}

func userIDForRank(i int) string {
	return []string{"user1", "user2", "user3", "user4"}[i]
}

func TestLeaderboardService_GetLeaderboard_EnrichesEntries(t *testing.T) {
	mockXP := new(MockXPRepository)
	mockStreak := new(MockStreakRepository)
	mockAttempt := new(MockAttemptRepository)
	mockIdentity := new(MockIdentityRepository)
	svc := NewLeaderboardService(mockXP, mockStreak, mockAttempt, mockIdentity, nil, leaderboardTestConfig())

	mockXP.On("QueryTopXP", mock.Anything, 2).Return(topRecords(900, 400), nil)
	mockIdentity.On("BatchGetIdentity", mock.Anything, []string{"user1", "user2"}).Return(map[string]domain.Identity{
		"user1": {DisplayName: "Ada"},
		"user2": {Email: "grace@example.com"},
	}, nil)
	mockStreak.On("BatchGetStreaks", mock.Anything, []string{"user1", "user2"}).Return(map[string]domain.StreakRecord{
		"user1": {CurrentStreak: 12},
	}, nil)
	mockAttempt.On("BatchCountSolved", mock.Anything, []string{"user1", "user2"}).Return(map[string]int{
		"user1": 80,
		"user2": 31,
	}, nil)

	resp, err := svc.GetLeaderboard(context.Background(), 2)

	require.NoError(t, err)
	require.Len(t, resp.Entries, 2)

	first := resp.Entries[0]
	assert.Equal(t, 1, first.Rank)
	assert.Equal(t, "Ada", first.DisplayName)
	assert.Equal(t, 900, first.TotalXP)
	assert.Equal(t, 12, first.CurrentStreak)
	assert.Equal(t, 80, first.ProblemsSolved)

	second := resp.Entries[1]
	assert.Equal(t, 2, second.Rank)
	assert.Equal(t, "grace", second.DisplayName, "email local part stands in for a missing display name")
	assert.Equal(t, 0, second.CurrentStreak)
}

func TestLeaderboardService_GetLeaderboard_DegradesOnEnrichmentFailure(t *testing.T) {
	mockXP := new(MockXPRepository)
	mockStreak := new(MockStreakRepository)
	mockAttempt := new(MockAttemptRepository)
	mockIdentity := new(MockIdentityRepository)
	svc := NewLeaderboardService(mockXP, mockStreak, mockAttempt, mockIdentity, nil, leaderboardTestConfig())

	mockXP.On("QueryTopXP", mock.Anything, 1).Return(topRecords(500), nil)
	mockIdentity.On("BatchGetIdentity", mock.Anything, mock.Anything).Return(nil, errors.New("identity store down"))
	mockStreak.On("BatchGetStreaks", mock.Anything, mock.Anything).Return(nil, errors.New("streak store down"))
	mockAttempt.On("BatchCountSolved", mock.Anything, mock.Anything).Return(nil, errors.New("attempt store down"))

	resp, err := svc.GetLeaderboard(context.Background(), 1)

	require.NoError(t, err, "enrichment failures must not fail the board")
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, domain.AnonymousDisplayName, resp.Entries[0].DisplayName)
	assert.Equal(t, 0, resp.Entries[0].CurrentStreak)
	assert.Equal(t, 0, resp.Entries[0].ProblemsSolved)
	assert.Equal(t, 500, resp.Entries[0].TotalXP)
}

func TestLeaderboardService_GetLeaderboard_ServesFromCache(t *testing.T) {
	mockXP := new(MockXPRepository)
	mockCache := new(MockCache)
	svc := NewLeaderboardService(mockXP, new(MockStreakRepository), new(MockAttemptRepository), new(MockIdentityRepository), mockCache, leaderboardTestConfig())

	cached := dto.LeaderboardResponse{Entries: []dto.LeaderboardEntryItem{
		{Rank: 1, UserID: "user1", DisplayName: "Ada", TotalXP: 900},
	}}
	payload, err := json.Marshal(cached)
	require.NoError(t, err)
	mockCache.On("Get", mock.Anything, mock.Anything).Return(string(payload), nil)

	resp, err := svc.GetLeaderboard(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, cached.Entries, resp.Entries)
	mockXP.AssertNotCalled(t, "QueryTopXP", mock.Anything, mock.Anything)
}

func TestLeaderboardService_GetLeaderboard_PopulatesCacheOnMiss(t *testing.T) {
	mockXP := new(MockXPRepository)
	mockStreak := new(MockStreakRepository)
	mockAttempt := new(MockAttemptRepository)
	mockIdentity := new(MockIdentityRepository)
	mockCache := new(MockCache)
	cfg := leaderboardTestConfig()
	svc := NewLeaderboardService(mockXP, mockStreak, mockAttempt, mockIdentity, mockCache, cfg)

	mockCache.On("Get", mock.Anything, mock.Anything).Return("", domain.ErrCacheMiss)
	mockXP.On("QueryTopXP", mock.Anything, 1).Return(topRecords(500), nil)
	mockIdentity.On("BatchGetIdentity", mock.Anything, mock.Anything).Return(map[string]domain.Identity{}, nil)
	mockStreak.On("BatchGetStreaks", mock.Anything, mock.Anything).Return(map[string]domain.StreakRecord{}, nil)
	mockAttempt.On("BatchCountSolved", mock.Anything, mock.Anything).Return(map[string]int{}, nil)
	mockCache.On("Set", mock.Anything, mock.Anything, mock.Anything, cfg.Gamification.LeaderboardCacheTTL).Return(nil)

	_, err := svc.GetLeaderboard(context.Background(), 1)

	require.NoError(t, err)
	mockCache.AssertExpectations(t)
}

func TestLeaderboardService_GetRank_InsideTopN(t *testing.T) {
	mockXP := new(MockXPRepository)
	svc := NewLeaderboardService(mockXP, new(MockStreakRepository), new(MockAttemptRepository), new(MockIdentityRepository), nil, leaderboardTestConfig())

	mockXP.On("GetXP", mock.Anything, domain.ProfileKey{UserID: "user2"}).
		Return(&domain.XPRecord{Key: domain.ProfileKey{UserID: "user2"}, TotalXP: 400}, nil)
	mockXP.On("QueryTopXP", mock.Anything, 10).Return(topRecords(900, 400, 100), nil)

	resp, err := svc.GetRank(context.Background(), "user2")

	require.NoError(t, err)
	require.NotNil(t, resp.Rank)
	assert.Equal(t, 2, *resp.Rank)
	assert.Equal(t, 400, resp.TotalXP)
	mockXP.AssertNotCalled(t, "CountXPGreaterThan", mock.Anything, mock.Anything)
}

func TestLeaderboardService_GetRank_OutsideTopN(t *testing.T) {
	mockXP := new(MockXPRepository)
	svc := NewLeaderboardService(mockXP, new(MockStreakRepository), new(MockAttemptRepository), new(MockIdentityRepository), nil, leaderboardTestConfig())

	mockXP.On("GetXP", mock.Anything, domain.ProfileKey{UserID: "outsider"}).
		Return(&domain.XPRecord{Key: domain.ProfileKey{UserID: "outsider"}, TotalXP: 50}, nil)
	mockXP.On("QueryTopXP", mock.Anything, 10).Return(topRecords(900, 400, 100), nil)
	mockXP.On("CountXPGreaterThan", mock.Anything, 50).Return(41, nil)

	resp, err := svc.GetRank(context.Background(), "outsider")

	require.NoError(t, err)
	require.NotNil(t, resp.Rank)
	assert.Equal(t, 42, *resp.Rank)
}

func TestLeaderboardService_GetRank_ZeroXPHasNoRank(t *testing.T) {
	mockXP := new(MockXPRepository)
	svc := NewLeaderboardService(mockXP, new(MockStreakRepository), new(MockAttemptRepository), new(MockIdentityRepository), nil, leaderboardTestConfig())

	mockXP.On("GetXP", mock.Anything, domain.ProfileKey{UserID: "user1"}).
		Return(&domain.XPRecord{Key: domain.ProfileKey{UserID: "user1"}, TotalXP: 0}, nil)

	resp, err := svc.GetRank(context.Background(), "user1")

	require.NoError(t, err)
	assert.Nil(t, resp.Rank)
	assert.Equal(t, 0, resp.TotalXP)
	mockXP.AssertNotCalled(t, "QueryTopXP", mock.Anything, mock.Anything)
}

func TestLeaderboardService_GetRank_NoRecordHasNoRank(t *testing.T) {
	mockXP := new(MockXPRepository)
	svc := NewLeaderboardService(mockXP, new(MockStreakRepository), new(MockAttemptRepository), new(MockIdentityRepository), nil, leaderboardTestConfig())

	mockXP.On("GetXP", mock.Anything, domain.ProfileKey{UserID: "ghost"}).Return(nil, nil)

	resp, err := svc.GetRank(context.Background(), "ghost")

	require.NoError(t, err)
	assert.Nil(t, resp.Rank)
}
