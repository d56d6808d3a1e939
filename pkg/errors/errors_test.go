package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestInvalidConstraintError(t *testing.T) {
	err := InvalidConstraintError("min_price", "min_price must not exceed max_price")

	assert.Equal(t, ErrorTypeInvalidConstraint, err.Type)
	assert.Equal(t, "min_price", err.Details)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus)
	assert.True(t, stderrors.Is(err, ErrInvalidConstraint))
	assert.False(t, stderrors.Is(err, ErrForbidden))
}

func TestGetAPIError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("listing failed: %w", ForbiddenError())

	apiErr := GetAPIError(wrapped)
	if assert.NotNil(t, apiErr) {
		assert.Equal(t, http.StatusForbidden, apiErr.HTTPStatus)
		assert.Equal(t, MessageForbidden, apiErr.Message)
	}
	assert.True(t, IsAPIError(wrapped))
	assert.False(t, IsAPIError(stderrors.New("plain")))
}

func TestHandleDatabaseError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType ErrorType
		wantNil  bool
	}{
		{name: "nil", err: nil, wantNil: true},
		{name: "record not found", err: gorm.ErrRecordNotFound, wantType: ErrorTypeNotFound},
		{name: "wrapped not found", err: fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound), wantType: ErrorTypeNotFound},
		{name: "duplicate key", err: gorm.ErrDuplicatedKey, wantType: ErrorTypeConflict},
		{name: "foreign key", err: gorm.ErrForeignKeyViolated, wantType: ErrorTypeConflict},
		{name: "api error passthrough", err: ConflictInvariantError("primary required"), wantType: ErrorTypeConflictInvariant},
		{name: "other", err: stderrors.New("connection reset"), wantType: ErrorTypeDatabase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := HandleDatabaseError(tt.err, "Property", "get property")
			if tt.wantNil {
				assert.Nil(t, apiErr)
				return
			}
			assert.Equal(t, tt.wantType, apiErr.Type)
		})
	}
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse(NotFoundError("Property"), "req-1")

	assert.Equal(t, "req-1", resp.RequestID)
	assert.Equal(t, "Property not found", resp.Error.Message)
	assert.NotEmpty(t, resp.Timestamp)
}
