package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeUnknownField is used when an update names a field the record does not have
	ErrCodeUnknownField = "ERR_UNKNOWN_FIELD"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a session or file is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
)

// Export error codes
const (
	// ErrCodeRenderTargetMissing is used when export is requested before anything was rendered
	ErrCodeRenderTargetMissing = "ERR_RENDER_TARGET_MISSING"
	// ErrCodeExportInProgress is used when the session already has an export running
	ErrCodeExportInProgress = "ERR_EXPORT_IN_PROGRESS"
	// ErrCodeGuardUnavailable is used when the export guard backend cannot be reached
	ErrCodeGuardUnavailable = "ERR_GUARD_UNAVAILABLE"
	// ErrCodeCaptureFailed is used when the layout could not be rasterized
	ErrCodeCaptureFailed = "ERR_CAPTURE_FAILED"
	// ErrCodeEmbedFailed is used when the bitmap could not be placed into a PDF
	ErrCodeEmbedFailed = "ERR_EMBED_FAILED"
	// ErrCodePersistFailed is used when the PDF could not be written
	ErrCodePersistFailed = "ERR_PERSIST_FAILED"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the body exceeds the size limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	// ErrCodeRateLimited is used when a client exceeds its request quota
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeUnknownField:       http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeInvalidState: http.StatusUnprocessableEntity,

	// Export errors
	ErrCodeRenderTargetMissing: http.StatusUnprocessableEntity,
	ErrCodeExportInProgress:    http.StatusConflict,
	ErrCodeGuardUnavailable:    http.StatusServiceUnavailable,
	ErrCodeCaptureFailed:       http.StatusInternalServerError,
	ErrCodeEmbedFailed:         http.StatusInternalServerError,
	ErrCodePersistFailed:       http.StatusInternalServerError,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain and export error codes to the API codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":             ErrCodeNotFound,
	"INVALID_INPUT":         ErrCodeInvalidInput,
	"INVALID_STATE":         ErrCodeInvalidState,
	"UNKNOWN_FIELD":         ErrCodeUnknownField,
	"VALIDATION_ERROR":      ErrCodeValidation,
	"BAD_REQUEST":           ErrCodeBadRequest,
	"INTERNAL_ERROR":        ErrCodeInternal,
	"RENDER_TARGET_MISSING": ErrCodeRenderTargetMissing,
	"EXPORT_IN_PROGRESS":    ErrCodeExportInProgress,
	"GUARD_UNAVAILABLE":     ErrCodeGuardUnavailable,
	"CAPTURE_FAILED":        ErrCodeCaptureFailed,
	"EMBED_FAILED":          ErrCodeEmbedFailed,
	"PERSIST_FAILED":        ErrCodePersistFailed,
}

// NormalizeErrorCode converts a legacy error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
