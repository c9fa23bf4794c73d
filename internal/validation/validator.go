package validation

import (
	"regexp"
	"strings"

	"math-tutor/internal/domain"
)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateCompletionRequest validates the problem-completion request body.
// An unknown difficulty band is allowed on purpose; it pays the middle base
// at award time rather than failing the request.
func (v *Validator) ValidateCompletionRequest(subject, difficulty string, attempts, timeSpentSeconds, hintsUsed int) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(subject) == "" {
		errors = append(errors, domain.NewMissingFieldError("subject"))
	} else if !isValidSubject(subject) {
		errors = append(errors, domain.NewInvalidFormatError("subject", subject))
	}

	if strings.TrimSpace(difficulty) == "" {
		errors = append(errors, domain.NewMissingFieldError("difficulty"))
	}

	if attempts < 0 {
		errors = append(errors, domain.NewOutOfRangeError("attempts", attempts, 0, 1000))
	}
	if timeSpentSeconds < 0 {
		errors = append(errors, domain.NewOutOfRangeError("time_spent_seconds", timeSpentSeconds, 0, 86400))
	}
	if hintsUsed < 0 {
		errors = append(errors, domain.NewOutOfRangeError("hints_used", hintsUsed, 0, 100))
	}

	return errors
}

// ValidateSessionType validates the practice session type parameter.
// An unknown type fails fast; the count parameter is clamped downstream, so it
// is deliberately not range-checked here.
func (v *Validator) ValidateSessionType(sessionType string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(sessionType) == "" {
		errors = append(errors, domain.NewMissingFieldError("type"))
		return errors
	}
	if !domain.IsValidSessionType(sessionType) {
		errors = append(errors, domain.NewInvalidFormatError("type", sessionType))
	}

	return errors
}

// ValidateProfileID validates an optional sub-profile identifier. Empty means
// the account-level record and is always valid.
func (v *Validator) ValidateProfileID(profileID string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if profileID == "" {
		return errors
	}
	if !isValidULID(profileID) {
		errors = append(errors, domain.NewInvalidFormatError("profile_id", profileID))
	}

	return errors
}

// ValidateNudgeID validates a nudge identifier path parameter.
func (v *Validator) ValidateNudgeID(nudgeID string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(nudgeID) == "" {
		errors = append(errors, domain.NewMissingFieldError("id"))
	} else if !isValidULID(nudgeID) {
		errors = append(errors, domain.NewInvalidFormatError("id", nudgeID))
	}

	return errors
}

// Helper functions for validation

// isValidULID checks if the string is a valid ULID format
func isValidULID(s string) bool {
	// ULID is 26 characters long, base32 encoded
	if len(s) != 26 {
		return false
	}
	// Check if all characters are valid base32 (Crockford's Base32)
	validULID := regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)
	return validULID.MatchString(s)
}

// isValidSubject checks if the subject format is valid
func isValidSubject(s string) bool {
	// Allow alphanumeric, hyphens, and underscores, 1-50 characters
	if len(s) == 0 || len(s) > 50 {
		return false
	}
	validSubject := regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	return validSubject.MatchString(s)
}
