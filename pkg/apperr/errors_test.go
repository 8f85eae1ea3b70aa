package apperr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	verr := NewValidationError()
	assert.False(t, verr.HasErrors())
	assert.Nil(t, verr.OrNil())

	verr.Add("params.dias", "invalid weekday \"Z\"")
	verr.Add("params.dias", "second message is ignored")
	verr.Add("pesoExtra", "must be between 0.1 and 10")

	assert.True(t, verr.HasErrors())
	assert.Equal(t, "invalid weekday \"Z\"", verr.Fields["params.dias"])
	assert.Equal(t, "validation failed: params.dias: invalid weekday \"Z\"; pesoExtra: must be between 0.1 and 10", verr.Error())
	assert.True(t, IsValidation(verr.OrNil()))
}

func TestMatchers_ThroughWrapping(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		match func(error) bool
	}{
		{"authorization", Forbidden(), IsAuthorization},
		{"not found", NotFound("league", "l1"), IsNotFound},
		{"conflict", Conflict("league", "name", "Primera"), IsConflict},
		{"validation", NewValidationError(), IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("saving: %w", tt.err)
			assert.True(t, tt.match(wrapped))
			assert.False(t, tt.match(fmt.Errorf("plain")))
		})
	}
}

func TestAuthorizationError_DoesNotLeakDetails(t *testing.T) {
	assert.Equal(t, "forbidden", Forbidden().Error())
}

func TestNotFoundAndConflictMessages(t *testing.T) {
	assert.Equal(t, "referee not found: r1", NotFound("referee", "r1").Error())
	assert.Equal(t, `league with name "Primera" already exists`, Conflict("league", "name", "Primera").Error())
}

func TestFieldError(t *testing.T) {
	err := FieldError("delegateId", "invalid delegate id")

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string]string{"delegateId": "invalid delegate id"}, verr.Fields)
}
