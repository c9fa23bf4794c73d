package handler

import (
	"math-tutor/internal/domain"
	"math-tutor/internal/middleware"
	"math-tutor/internal/service"

	"github.com/gofiber/fiber/v2"
)

// PracticeHandler handles adaptive practice HTTP requests
type PracticeHandler struct {
	practiceService    service.PracticeService
	performanceService service.PerformanceService
}

// NewPracticeHandler creates a new PracticeHandler instance
func NewPracticeHandler(practiceService service.PracticeService, performanceService service.PerformanceService) *PracticeHandler {
	return &PracticeHandler{
		practiceService:    practiceService,
		performanceService: performanceService,
	}
}

// GetSession generates an adaptive practice session.
// @Summary Generate a practice session
// @Description Generates a session of recommended problems tuned to the caller's performance. Count is clamped to [1, 10].
// @Tags practice
// @Security ApiKeyAuth
// @Produce json
// @Param profile_id query string false "Sub-profile ID"
// @Param type query string false "Session type: weakness, strength, challenge or balanced (default balanced)"
// @Param count query int false "Number of problems (default 5, clamped to [1, 10])"
// @Success 200 {object} dto.PracticeSessionResponse
// @Failure 400 {object} middleware.ValidationErrorResponse "Validation failed"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /practice/session [get]
func (h *PracticeHandler) GetSession(c *fiber.Ctx) error {
	key, err := profileKeyFromCtx(c)
	if err != nil {
		return err
	}

	sessionType, _ := c.Locals(middleware.ValidatedSessionTypeKey).(string)
	if sessionType == "" {
		sessionType = domain.SessionBalanced
	}
	count, _ := c.Locals(middleware.ValidatedCountKey).(int)

	session, err := h.practiceService.GenerateSession(c.Context(), key, sessionType, count)
	if err != nil {
		return err
	}
	return c.JSON(session)
}

// GetAnalysis returns the caller's per-subject performance analysis.
// @Summary Get performance analysis
// @Description Returns weak areas, strong areas and a suggested focus subject, recomputed from the full attempt history.
// @Tags practice
// @Security ApiKeyAuth
// @Produce json
// @Param profile_id query string false "Sub-profile ID"
// @Success 200 {object} dto.PerformanceAnalysisResponse
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /practice/analysis [get]
func (h *PracticeHandler) GetAnalysis(c *fiber.Ctx) error {
	key, err := profileKeyFromCtx(c)
	if err != nil {
		return err
	}

	analysis, err := h.performanceService.GetAnalysis(c.Context(), key)
	if err != nil {
		return err
	}
	return c.JSON(analysis)
}
