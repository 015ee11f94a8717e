package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/campuslock/lockerd/internal/model"
	"github.com/campuslock/lockerd/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest          = "INVALID_REQUEST"
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeForbidden               = "FORBIDDEN"
	CodeUserNotFound            = "USER_NOT_FOUND"
	CodeDuplicateEmail          = "DUPLICATE_EMAIL"
	CodeDuplicateID             = "DUPLICATE_ID"
	CodeInvalidCredentials      = "INVALID_CREDENTIALS"
	CodeLockerNotFound          = "LOCKER_NOT_FOUND"
	CodeLockerNotAvailable      = "LOCKER_NOT_AVAILABLE"
	CodeNotLockerOwner          = "NOT_LOCKER_OWNER"
	CodeLockerNotRented         = "LOCKER_NOT_RENTED"
	CodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"
	CodeInvalidAccessCode       = "INVALID_ACCESS_CODE"
	CodeInternalError           = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeUserNotFound, "User not found"}}
	case errors.Is(err, model.ErrDuplicateEmail):
		return &httpError{http.StatusConflict, APIError{CodeDuplicateEmail, "An account with this email already exists"}}
	case errors.Is(err, model.ErrDuplicateID):
		return &httpError{http.StatusConflict, APIError{CodeDuplicateID, "An account with this student ID already exists"}}
	case errors.Is(err, model.ErrLockerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeLockerNotFound, "Locker not found"}}
	case errors.Is(err, model.ErrLockerNotAvailable):
		return &httpError{http.StatusConflict, APIError{CodeLockerNotAvailable, "Locker is not available"}}
	case errors.Is(err, model.ErrNotLockerOwner):
		return &httpError{http.StatusForbidden, APIError{CodeNotLockerOwner, "Locker is rented by another user"}}
	case errors.Is(err, model.ErrLockerNotRented):
		return &httpError{http.StatusConflict, APIError{CodeLockerNotRented, "Locker is not rented"}}
	case errors.Is(err, model.ErrInvalidStatusTransition):
		return &httpError{http.StatusConflict, APIError{CodeInvalidStatusTransition, "Status change would leave the locker inconsistent"}}
	case errors.Is(err, model.ErrInvalidAccessCode):
		return &httpError{http.StatusForbidden, APIError{CodeInvalidAccessCode, "Access code is invalid or expired"}}

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid email or password"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewForbiddenError creates a forbidden error
func NewForbiddenError() error {
	return &httpError{http.StatusForbidden, APIError{CodeForbidden, "Administrator access required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
