package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeSeverity(t *testing.T) {
	cases := map[Code]Severity{
		CodeValidation:        SeverityBadRequest,
		CodeInvalidAssignment: SeverityBadRequest,
		CodeInvalidOrExpired:  SeverityBadRequest,
		CodeMismatch:          SeverityBadRequest,
		CodeUnauthorized:      SeverityUnauthorized,
		CodeForbidden:         SeverityForbidden,
		CodeNotFound:          SeverityNotFound,
		CodeConflict:          SeverityConflict,
		CodeInternal:          SeverityInternal,
		Code("SOMETHING_ELSE"): SeverityInternal,
	}

	for code, want := range cases {
		assert.Equal(t, want, code.Severity(), string(code))
	}
}

func TestErrorIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("handler: %w", Forbidden("Only project creator can delete"))

	assert.True(t, errors.Is(err, ErrForbidden))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, CodeForbidden, CodeOf(err))
}

func TestInternalKeepsCauseButHidesIt(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal(cause)

	assert.Equal(t, "Internal server error", err.Message)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAsWrapsForeignErrors(t *testing.T) {
	plain := errors.New("boom")

	got := As(plain)
	assert.Equal(t, CodeInternal, got.Code)
	assert.ErrorIs(t, got, plain)

	conflict := Conflict("dup")
	assert.Same(t, conflict, As(conflict))
	assert.Equal(t, CodeInternal, CodeOf(plain))
}

func TestValidationCarriesFields(t *testing.T) {
	err := Validation("Invalid data", FieldError{Field: "email", Rule: "email"})

	assert.Equal(t, SeverityBadRequest, err.Severity())
	assert.Len(t, err.Fields, 1)
	assert.Equal(t, "email", err.Fields[0].Field)
}
