package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidEntry is returned when a required entry field is missing.
	ErrInvalidEntry = errors.New("user_id and date are required")
	// ErrInvalidDate is returned when a date is not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("date must be formatted YYYY-MM-DD")
	// ErrDuplicateEntry is returned when the user already has an entry for the date.
	ErrDuplicateEntry = errors.New("an entry already exists for this date")
	// ErrEntryNotFound is returned when no entry matches the user and key.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrPermissionDenied is returned when a non-admin attempts an admin operation.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrUserNotFound is returned when a username is not in the credential set.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when registering a taken username.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidRole is returned for roles other than admin and user.
	ErrInvalidRole = errors.New("role must be admin or user")
	// ErrInvalidCredentials is returned when a login does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotPreauthorized is returned when registration requires an allow-listed email.
	ErrNotPreauthorized = errors.New("email is not preauthorized")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors, possibly wrapped, to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var httpErr *HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.Is(err, ErrInvalidEntry):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidEntry.Error(), "INVALID_ENTRY")
	case errors.Is(err, ErrInvalidDate):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidDate.Error(), "INVALID_DATE")
	case errors.Is(err, ErrInvalidRole):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidRole.Error(), "INVALID_ROLE")
	case errors.Is(err, ErrDuplicateEntry):
		return NewHTTPError(http.StatusConflict, ErrDuplicateEntry.Error(), "DUPLICATE_ENTRY")
	case errors.Is(err, ErrUserExists):
		return NewHTTPError(http.StatusConflict, ErrUserExists.Error(), "USER_EXISTS")
	case errors.Is(err, ErrEntryNotFound):
		return NewHTTPError(http.StatusNotFound, ErrEntryNotFound.Error(), "ENTRY_NOT_FOUND")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, ErrUserNotFound.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrPermissionDenied):
		return NewHTTPError(http.StatusForbidden, ErrPermissionDenied.Error(), "PERMISSION_DENIED")
	case errors.Is(err, ErrNotPreauthorized):
		return NewHTTPError(http.StatusForbidden, ErrNotPreauthorized.Error(), "NOT_PREAUTHORIZED")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
