package handler

import (
	"strconv"

	"math-tutor/internal/domain"
	"math-tutor/internal/middleware"
	"math-tutor/internal/service"

	"github.com/gofiber/fiber/v2"
)

// LeaderboardHandler handles leaderboard HTTP requests
type LeaderboardHandler struct {
	leaderboardService service.LeaderboardService
}

// NewLeaderboardHandler creates a new LeaderboardHandler instance
func NewLeaderboardHandler(leaderboardService service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

// GetLeaderboard returns the global Top-N board.
// @Summary Get leaderboard
// @Description Returns the ranked Top-N accounts with display identity, streak and solved-count enrichment.
// @Tags leaderboard
// @Produce json
// @Param limit query int false "Number of entries (defaults to the configured limit)"
// @Success 200 {object} dto.LeaderboardResponse
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /leaderboard [get]
func (h *LeaderboardHandler) GetLeaderboard(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "0"))

	board, err := h.leaderboardService.GetLeaderboard(c.Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(board)
}

// GetRank returns the caller's global rank.
// @Summary Get my rank
// @Description Returns the caller's leaderboard rank; null when the caller has no XP yet.
// @Tags leaderboard
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} dto.RankResponse
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /leaderboard/rank [get]
func (h *LeaderboardHandler) GetRank(c *fiber.Ctx) error {
	userID, ok := c.Locals(middleware.UserIDKey).(string)
	if !ok || userID == "" {
		return domain.NewUnauthorizedError("User ID not found in context")
	}

	rank, err := h.leaderboardService.GetRank(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(rank)
}
