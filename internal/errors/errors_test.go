package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"duplicate", ErrDuplicateEntry, http.StatusConflict, "DUPLICATE_ENTRY"},
		{"wrapped duplicate", fmt.Errorf("save entry: %w", ErrDuplicateEntry), http.StatusConflict, "DUPLICATE_ENTRY"},
		{"bad date", ErrInvalidDate, http.StatusBadRequest, "INVALID_DATE"},
		{"not found", ErrEntryNotFound, http.StatusNotFound, "ENTRY_NOT_FOUND"},
		{"denied", ErrPermissionDenied, http.StatusForbidden, "PERMISSION_DENIED"},
		{"login", ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"passthrough", NewHTTPError(http.StatusTeapot, "tea", "TEA"), http.StatusTeapot, "TEA"},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, tt.code, httpErr.ToErrorResponse().Code)
		})
	}
}

func TestInternalErrorHidesDetail(t *testing.T) {
	httpErr := MapErrorToHTTP(errors.New("pq: password authentication failed"))
	assert.Equal(t, "internal server error", httpErr.Error())
}
