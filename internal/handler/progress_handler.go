package handler

import (
	"math-tutor/internal/domain"
	"math-tutor/internal/dto"
	"math-tutor/internal/logger"
	"math-tutor/internal/middleware"
	"math-tutor/internal/service"
	"math-tutor/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ProgressHandler handles XP and streak HTTP requests
type ProgressHandler struct {
	progressService service.ProgressService
	validator       *validation.Validator
}

// NewProgressHandler creates a new ProgressHandler instance
func NewProgressHandler(progressService service.ProgressService) *ProgressHandler {
	return &ProgressHandler{
		progressService: progressService,
		validator:       validation.NewValidator(),
	}
}

// profileKeyFromCtx builds the profile key from the authenticated user and the
// validated profile_id query parameter.
func profileKeyFromCtx(c *fiber.Ctx) (domain.ProfileKey, error) {
	userID, ok := c.Locals(middleware.UserIDKey).(string)
	if !ok || userID == "" {
		logger.Get().Warn("User ID not found in context", zap.String("path", c.Path()))
		return domain.ProfileKey{}, domain.NewUnauthorizedError("User ID not found in context")
	}
	profileID, _ := c.Locals(middleware.ValidatedProfileIDKey).(string)
	return domain.NewProfileKey(userID, profileID), nil
}

// GetProgress retrieves the caller's XP, level and streak state.
// @Summary Get progress
// @Description Returns total XP, level, streak state and recent XP gains.
// @Tags progress
// @Security ApiKeyAuth
// @Produce json
// @Param profile_id query string false "Sub-profile ID (defaults to the account itself)"
// @Success 200 {object} dto.ProgressResponse
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /progress [get]
func (h *ProgressHandler) GetProgress(c *fiber.Ctx) error {
	key, err := profileKeyFromCtx(c)
	if err != nil {
		return err
	}

	progress, err := h.progressService.GetProgress(c.Context(), key)
	if err != nil {
		return err
	}
	return c.JSON(progress)
}

// CompleteProblem records a problem attempt and fans out the XP award and
// streak advance.
// @Summary Record a problem completion
// @Description Records the attempt and, when completed, awards XP and advances the streak. Side-effect failures are flagged per sub-operation, not fatal.
// @Tags progress
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param profile_id query string false "Sub-profile ID"
// @Param request body dto.CompleteProblemRequest true "Completion details"
// @Success 200 {object} dto.CompleteProblemResponse
// @Failure 400 {object} middleware.ValidationErrorResponse "Validation failed"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /progress/complete [post]
func (h *ProgressHandler) CompleteProblem(c *fiber.Ctx) error {
	key, err := profileKeyFromCtx(c)
	if err != nil {
		return err
	}

	var req dto.CompleteProblemRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}
	if errs := h.validator.ValidateCompletionRequest(req.Subject, req.Difficulty, req.Attempts, req.TimeSpentSeconds, req.HintsUsed); len(errs) > 0 {
		return errs
	}

	result, err := h.progressService.RecordCompletion(c.Context(), key, &req)
	if err != nil {
		return err
	}

	logger.Get().Info("Problem completion recorded",
		zap.String("userID", key.UserID),
		zap.String("subject", req.Subject),
		zap.Bool("completed", req.Completed),
		zap.Int("xpAwarded", result.XPAwarded))
	return c.JSON(result)
}

// LoginBonus awards the daily login bonus.
// @Summary Award login bonus
// @Description Awards the first-login or daily login bonus; at most once per calendar day.
// @Tags progress
// @Security ApiKeyAuth
// @Produce json
// @Param profile_id query string false "Sub-profile ID"
// @Success 200 {object} dto.LoginBonusResponse
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /progress/login [post]
func (h *ProgressHandler) LoginBonus(c *fiber.Ctx) error {
	key, err := profileKeyFromCtx(c)
	if err != nil {
		return err
	}

	result, err := h.progressService.AwardLoginBonus(c.Context(), key)
	if err != nil {
		return err
	}
	return c.JSON(result)
}
