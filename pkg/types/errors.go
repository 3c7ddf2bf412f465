package types

import "fmt"

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeAuthorization  ErrorType = "authorization"
	ErrorTypeAuthentication ErrorType = "authentication"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeConflict       ErrorType = "conflict"
	ErrorTypeInternal       ErrorType = "internal"
	ErrorTypeExternal       ErrorType = "external"
	ErrorTypeRateLimit      ErrorType = "rate_limit"
)

// MedicusError represents a structured error in the Medicus system
type MedicusError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *MedicusError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *MedicusError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(code, message string, details map[string]interface{}) *MedicusError {
	return &MedicusError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewAuthorizationError creates a new authorization error
func NewAuthorizationError(code, message string) *MedicusError {
	return &MedicusError{
		Type:    ErrorTypeAuthorization,
		Code:    code,
		Message: message,
	}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(code, message string) *MedicusError {
	return &MedicusError{
		Type:    ErrorTypeAuthentication,
		Code:    code,
		Message: message,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(code, message string) *MedicusError {
	return &MedicusError{
		Type:    ErrorTypeNotFound,
		Code:    code,
		Message: message,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(code, message string, details map[string]interface{}) *MedicusError {
	return &MedicusError{
		Type:    ErrorTypeConflict,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(code, message string, cause error) *MedicusError {
	return &MedicusError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Common error codes
const (
	ErrCodeInvalidInput         = "INVALID_INPUT"
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeConflict             = "CONFLICT"
	ErrCodeStaleVersion         = "STALE_VERSION"
	ErrCodeInvalidTransition    = "INVALID_STATUS_TRANSITION"
	ErrCodeInternalError        = "INTERNAL_ERROR"
	ErrCodeExternalError        = "EXTERNAL_ERROR"
	ErrCodeValidationFailed     = "VALIDATION_FAILED"
	ErrCodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	ErrCodeRateLimitExceeded    = "RATE_LIMIT_EXCEEDED"
	ErrCodeDuplicateEmail       = "EMAIL_EXISTS"
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeInvalidOTP           = "INVALID_OTP"
	ErrCodeOTPExpired           = "OTP_EXPIRED"
	ErrCodeInvalidResetToken    = "INVALID_RESET_TOKEN"
	ErrCodeResetTokenExpired    = "RESET_TOKEN_EXPIRED"
)
