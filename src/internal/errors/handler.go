package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// ErrorType represents different types of errors
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation_error"
	ErrorTypeAuthentication ErrorType = "authentication_error"
	ErrorTypeNotFound       ErrorType = "not_found_error"
	ErrorTypeConflict       ErrorType = "conflict_error"
	ErrorTypeDatabase       ErrorType = "database_error"
	ErrorTypeServer         ErrorType = "server_error"
)

// CustomError represents an application error with an HTTP mapping
type CustomError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code"`
	StatusCode int                    `json:"status_code"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
}

// Error implements the error interface
func (e *CustomError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// WithCause adds a cause to the error
func (e *CustomError) WithCause(cause error) *CustomError {
	e.Cause = cause
	return e
}

// WithDetail adds a detail to the error
func (e *CustomError) WithDetail(key string, value interface{}) *CustomError {
	e.Details[key] = value
	return e
}

// NewCustomError creates a new custom error
func NewCustomError(errorType ErrorType, message, code string, statusCode int) *CustomError {
	return &CustomError{
		Type:       errorType,
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Details:    make(map[string]interface{}),
	}
}

// ValidationError reports a malformed or missing field on a write.
// Field-level details go in the details map under "fields".
func ValidationError(message string, fields map[string]string) *CustomError {
	err := NewCustomError(ErrorTypeValidation, message, "VALIDATION_FAILED", http.StatusBadRequest)
	if len(fields) > 0 {
		err.Details["fields"] = fields
	}
	return err
}

// NotFoundError covers both "does not exist" and "exists but belongs
// to another user"; the two are deliberately indistinguishable.
func NotFoundError(resource string) *CustomError {
	return NewCustomError(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource), "NOT_FOUND", http.StatusNotFound)
}

func UnauthorizedError(message string) *CustomError {
	return NewCustomError(ErrorTypeAuthentication, message, "UNAUTHORIZED", http.StatusUnauthorized)
}

func ConflictError(message string) *CustomError {
	return NewCustomError(ErrorTypeConflict, message, "CONFLICT", http.StatusConflict)
}

func InternalError(message string) *CustomError {
	return NewCustomError(ErrorTypeServer, message, "INTERNAL_ERROR", http.StatusInternalServerError)
}

func DatabaseError(message string, cause error) *CustomError {
	return NewCustomError(ErrorTypeDatabase, message, "DATABASE_ERROR", http.StatusInternalServerError).
		WithCause(cause)
}

// ErrorResponse is the wire shape of every failure
type ErrorResponse struct {
	Error      string                 `json:"error"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	RequestID  string                 `json:"request_id,omitempty"`
	StatusCode int                    `json:"status_code"`
}

// Handler provides the central Echo error handler
type Handler struct {
	production bool
}

// NewHandler creates a new error handler
func NewHandler(production bool) *Handler {
	return &Handler{production: production}
}

// HTTPErrorHandler converts errors into a uniform JSON error response
func (h *Handler) HTTPErrorHandler(err error, c echo.Context) {
	var (
		code    = http.StatusInternalServerError
		message = "Internal server error"
		errCode = "INTERNAL_ERROR"
		details map[string]interface{}
	)

	requestID := c.Response().Header().Get(echo.HeaderXRequestID)

	switch e := err.(type) {
	case *CustomError:
		code = e.StatusCode
		message = e.Message
		errCode = e.Code
		details = e.Details

	case *echo.HTTPError:
		code = e.Code
		message = fmt.Sprintf("%v", e.Message)
		switch code {
		case http.StatusNotFound:
			errCode = "NOT_FOUND"
		case http.StatusMethodNotAllowed:
			errCode = "METHOD_NOT_ALLOWED"
		case http.StatusBadRequest:
			errCode = "BAD_REQUEST"
		case http.StatusUnauthorized:
			errCode = "UNAUTHORIZED"
		case http.StatusForbidden:
			errCode = "FORBIDDEN"
		}

	case *json.SyntaxError:
		code = http.StatusBadRequest
		message = "Invalid JSON format"
		errCode = "INVALID_JSON"

	default:
		c.Logger().Errorf("unhandled error: %v", err)
	}

	// Don't expose internals in production
	if h.production && code == http.StatusInternalServerError {
		message = "Internal server error"
		details = nil
	}

	if !c.Response().Committed {
		resp := ErrorResponse{
			Error:      message,
			Code:       errCode,
			Details:    details,
			Timestamp:  time.Now().UTC(),
			RequestID:  requestID,
			StatusCode: code,
		}
		var sendErr error
		if c.Request().Method == http.MethodHead {
			sendErr = c.NoContent(code)
		} else {
			sendErr = c.JSON(code, resp)
		}
		if sendErr != nil {
			c.Logger().Errorf("failed to send error response: %v", sendErr)
		}
	}
}
