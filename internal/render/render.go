// Package render holds the JSON request/response helpers shared by handlers.
package render

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/ayush/consciousday/backend/internal/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Error maps err to a status and writes the standard error body.
func Error(w http.ResponseWriter, err error) {
	httpErr := apperrors.MapErrorToHTTP(err)
	JSON(w, httpErr.StatusCode, httpErr.ToErrorResponse())
}

// Message writes {"message": msg} with status 200.
func Message(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusOK, map[string]string{"message": msg})
}

// Decode reads a JSON body into v and runs struct validation on it.
func Decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.NewHTTPError(http.StatusBadRequest, "invalid request body", "INVALID_BODY")
	}
	return Validate(v)
}

// Validate runs struct tags and reports every failing field in one message.
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewHTTPError(http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return apperrors.NewHTTPError(http.StatusBadRequest, strings.Join(msgs, "; "), "VALIDATION_ERROR")
}
