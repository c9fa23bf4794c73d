package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_ValidateCompletionRequest(t *testing.T) {
	v := NewValidator()

	assert.Empty(t, v.ValidateCompletionRequest("algebra", "middle", 2, 120, 1))

	// Unknown difficulty bands pass validation; the award logic falls back to
	// the middle base instead.
	assert.Empty(t, v.ValidateCompletionRequest("algebra", "impossible", 1, 60, 0))

	errs := v.ValidateCompletionRequest("", "", -1, -1, -1)
	require.Len(t, errs, 5)

	assert.NotEmpty(t, v.ValidateCompletionRequest("no spaces allowed", "middle", 1, 60, 0))
	assert.NotEmpty(t, v.ValidateCompletionRequest("algebra!", "middle", 1, 60, 0))
}

func TestValidator_ValidateSessionType(t *testing.T) {
	v := NewValidator()

	assert.Empty(t, v.ValidateSessionType("weakness"))
	assert.Empty(t, v.ValidateSessionType("balanced"))
	assert.NotEmpty(t, v.ValidateSessionType(""))
	assert.NotEmpty(t, v.ValidateSessionType("revision"))
}

func TestValidator_ValidateProfileID(t *testing.T) {
	v := NewValidator()

	assert.Empty(t, v.ValidateProfileID(""), "empty selects the account-level record")
	assert.Empty(t, v.ValidateProfileID("01HZXC9V2N8R4T6W8Y0A2C4E6G"))
	assert.NotEmpty(t, v.ValidateProfileID("too-short"))
	assert.NotEmpty(t, v.ValidateProfileID("01HZXC9V2N8R4T6W8Y0A2C4EIL"), "I and L are outside Crockford base32")
}

func TestValidator_ValidateNudgeID(t *testing.T) {
	v := NewValidator()

	assert.Empty(t, v.ValidateNudgeID("01HZXC9V2N8R4T6W8Y0A2C4E6G"))
	assert.NotEmpty(t, v.ValidateNudgeID(""))
	assert.NotEmpty(t, v.ValidateNudgeID("not-a-ulid"))
}
