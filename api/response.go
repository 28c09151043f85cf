package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorCode defines standard error codes for programmatic handling
type ErrorCode string

const (
	// Client errors (4xx)
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"      // 400 - Malformed request
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR" // 400 - Validation failed
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"     // 401 - Not authenticated
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"        // 403 - Not authorized
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"        // 404 - Resource not found
	ErrCodeConflict     ErrorCode = "CONFLICT"         // 409 - Resource conflict

	// Server errors (5xx)
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"      // 500 - Unexpected error
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE" // 503 - Dependency down

	// Connection handshake rejections. Each failure mode must stay
	// distinguishable to the caller.
	ErrCodeInvalidProject  ErrorCode = "INVALID_PROJECT"         // 400 - malformed project id
	ErrCodeAuthRequired    ErrorCode = "AUTHENTICATION_REQUIRED" // 401 - no token supplied
	ErrCodeInvalidToken    ErrorCode = "INVALID_TOKEN"           // 401 - token failed verification
	ErrCodeProjectNotFound ErrorCode = "PROJECT_NOT_FOUND"       // 404 - project does not exist
)

// ErrorDetail provides additional context for validation errors
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ErrorResponse is the standard error response structure
type ErrorResponse struct {
	Error struct {
		Code    ErrorCode     `json:"code"`
		Message string        `json:"message"`
		Details []ErrorDetail `json:"details,omitempty"`
	} `json:"error"`
}

// DataResponse wraps a single resource or object response
type DataResponse[T any] struct {
	Data T `json:"data"`
}

// ListResponse wraps a collection of resources
type ListResponse[T any] struct {
	Data []T `json:"data"`
}

// RespondData sends a successful response with a single data object
func RespondData[T any](c *gin.Context, data T) {
	c.JSON(http.StatusOK, DataResponse[T]{Data: data})
}

// RespondCreated sends a 201 Created response with the created resource
func RespondCreated[T any](c *gin.Context, data T) {
	c.JSON(http.StatusCreated, DataResponse[T]{Data: data})
}

// RespondList sends a successful response with a list of items
func RespondList[T any](c *gin.Context, data []T) {
	// Ensure empty array instead of null
	if data == nil {
		data = []T{}
	}
	c.JSON(http.StatusOK, ListResponse[T]{Data: data})
}

// RespondNoContent sends a 204 No Content response
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// RespondError sends an error response with the given status and code
func RespondError(c *gin.Context, status int, code ErrorCode, message string) {
	resp := ErrorResponse{}
	resp.Error.Code = code
	resp.Error.Message = message
	c.JSON(status, resp)
}

// RespondValidationError sends a 400 Bad Request with per-field details
func RespondValidationError(c *gin.Context, message string, details []ErrorDetail) {
	resp := ErrorResponse{}
	resp.Error.Code = ErrCodeValidation
	resp.Error.Message = message
	resp.Error.Details = details
	c.JSON(http.StatusBadRequest, resp)
}

// RespondBadRequest sends a 400 Bad Request error
func RespondBadRequest(c *gin.Context, message string) {
	RespondError(c, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// RespondUnauthorized sends a 401 Unauthorized error
func RespondUnauthorized(c *gin.Context, message string) {
	RespondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// RespondForbidden sends a 403 Forbidden error
func RespondForbidden(c *gin.Context, message string) {
	RespondError(c, http.StatusForbidden, ErrCodeForbidden, message)
}

// RespondNotFound sends a 404 Not Found error
func RespondNotFound(c *gin.Context, message string) {
	RespondError(c, http.StatusNotFound, ErrCodeNotFound, message)
}

// RespondConflict sends a 409 Conflict error
func RespondConflict(c *gin.Context, message string) {
	RespondError(c, http.StatusConflict, ErrCodeConflict, message)
}

// RespondInternalError sends a 500 Internal Server Error
func RespondInternalError(c *gin.Context, message string) {
	RespondError(c, http.StatusInternalServerError, ErrCodeInternal, message)
}
