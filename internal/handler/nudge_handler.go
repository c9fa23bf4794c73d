package handler

import (
	"math-tutor/internal/dto"
	"math-tutor/internal/middleware"
	"math-tutor/internal/service"

	"github.com/gofiber/fiber/v2"
)

// NudgeHandler handles engagement-nudge HTTP requests
type NudgeHandler struct {
	nudgeService service.NudgeService
}

// NewNudgeHandler creates a new NudgeHandler instance
func NewNudgeHandler(nudgeService service.NudgeService) *NudgeHandler {
	return &NudgeHandler{nudgeService: nudgeService}
}

// GetNudges evaluates the engagement rules and returns active nudges.
// @Summary Get nudges
// @Description Returns up to three active nudges, highest priority first. Already-active nudges of the same type are reused, not duplicated.
// @Tags nudges
// @Security ApiKeyAuth
// @Produce json
// @Param profile_id query string false "Sub-profile ID"
// @Success 200 {object} dto.NudgesResponse
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /nudges [get]
func (h *NudgeHandler) GetNudges(c *fiber.Ctx) error {
	key, err := profileKeyFromCtx(c)
	if err != nil {
		return err
	}

	nudges, err := h.nudgeService.GetNudges(c.Context(), key)
	if err != nil {
		return err
	}
	return c.JSON(nudges)
}

// DismissNudge dismisses one nudge permanently.
// @Summary Dismiss a nudge
// @Description Marks a nudge as dismissed. Dismissal is one-way; the nudge never reappears.
// @Tags nudges
// @Security ApiKeyAuth
// @Produce json
// @Param profile_id query string false "Sub-profile ID"
// @Param id path string true "Nudge ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 404 {object} middleware.ErrorResponse "Nudge not found"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /nudges/{id}/dismiss [post]
func (h *NudgeHandler) DismissNudge(c *fiber.Ctx) error {
	key, err := profileKeyFromCtx(c)
	if err != nil {
		return err
	}

	nudgeID, _ := c.Locals(middleware.ValidatedNudgeIDKey).(string)
	if nudgeID == "" {
		nudgeID = c.Params("id")
	}

	if err := h.nudgeService.DismissNudge(c.Context(), key, nudgeID); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Nudge dismissed"})
}
