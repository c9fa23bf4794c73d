package middleware

import (
	"math-tutor/internal/domain"
	"math-tutor/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by the validation middleware for handlers to read.
const (
	ValidatedProfileIDKey   = "validated_profile_id"
	ValidatedSessionTypeKey = "validated_session_type"
	ValidatedCountKey       = "validated_count"
	ValidatedNudgeIDKey     = "validated_nudge_id"
)

// defaultSessionCount is used when the count query parameter is absent.
const defaultSessionCount = 5

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validation.NewValidator(),
	}
}

// ValidateProfileID validates the optional profile_id query parameter. An
// empty value addresses the account-level record.
func (vm *ValidationMiddleware) ValidateProfileID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		profileID := c.Query("profile_id")

		if errors := vm.validator.ValidateProfileID(profileID); len(errors) > 0 {
			return errors // This will be handled by ErrorHandler middleware
		}

		c.Locals(ValidatedProfileIDKey, profileID)
		return c.Next()
	}
}

// ValidateSessionParams validates practice session query parameters. A missing
// type defaults to balanced; a missing count defaults to 5. Out-of-range
// counts are left for the service to clamp.
func (vm *ValidationMiddleware) ValidateSessionParams() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionType := c.Query("type", domain.SessionBalanced)

		if errors := vm.validator.ValidateSessionType(sessionType); len(errors) > 0 {
			return errors
		}

		count := defaultSessionCount
		if countStr := c.Query("count"); countStr != "" {
			parsed, err := parseCount(countStr)
			if err != nil {
				return domain.ValidationErrors{
					domain.NewInvalidFormatError("count", countStr),
				}
			}
			count = parsed
		}

		c.Locals(ValidatedSessionTypeKey, sessionType)
		c.Locals(ValidatedCountKey, count)
		return c.Next()
	}
}

// ValidateNudgeID validates the nudge id path parameter.
func (vm *ValidationMiddleware) ValidateNudgeID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		nudgeID := c.Params("id")

		if errors := vm.validator.ValidateNudgeID(nudgeID); len(errors) > 0 {
			return errors
		}

		c.Locals(ValidatedNudgeIDKey, nudgeID)
		return c.Next()
	}
}

// parseCount parses a count parameter into a non-negative integer.
func parseCount(countStr string) (int, error) {
	count := 0
	for _, char := range countStr {
		if char < '0' || char > '9' {
			return 0, domain.NewInvalidInputError("count must be a number")
		}
		count = count*10 + int(char-'0')
		if count > 1000 { // Early termination for absurd values
			return 0, domain.NewInvalidInputError("count exceeds maximum value")
		}
	}
	return count, nil
}
