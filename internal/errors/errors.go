package errors

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes a gateway error. Every distinguishable failure in
// the authentication flow and the routing proxy maps to exactly one code so
// monitoring can alert on specific outcomes.
type ErrorCode string

const (
	// ErrCodeInvalidCredentials indicates the directory bind failed. The
	// user-facing message stays generic to avoid username enumeration.
	ErrCodeInvalidCredentials ErrorCode = "invalid_credentials"
	// ErrCodeInvalidDepartment indicates the requested department is not in
	// the department table.
	ErrCodeInvalidDepartment ErrorCode = "invalid_department"
	// ErrCodeUnauthorized indicates the bind succeeded but the subject lacks
	// the department's required group. Elevated audit severity.
	ErrCodeUnauthorized ErrorCode = "unauthorized"
	// ErrCodeDirectoryError indicates the directory was unreachable or
	// returned a protocol-level fault.
	ErrCodeDirectoryError ErrorCode = "directory_error"
	// ErrCodeSessionExpired indicates a missing, expired, or already consumed
	// pending authentication or session.
	ErrCodeSessionExpired ErrorCode = "session_expired"
	// ErrCodeInvalidCodeFormat indicates the submitted code is not 6 digits
	// after normalization.
	ErrCodeInvalidCodeFormat ErrorCode = "invalid_code_format"
	// ErrCodeNotEnrolled indicates no second-factor secret exists for the subject.
	ErrCodeNotEnrolled ErrorCode = "not_enrolled"
	// ErrCodeConfiguration indicates the second-factor subsystem is missing
	// or misconfigured.
	ErrCodeConfiguration ErrorCode = "configuration_error"
	// ErrCodeInvalidCode indicates the code failed TOTP verification.
	ErrCodeInvalidCode ErrorCode = "invalid_code"
	// ErrCodeInvalidAuthEvidence indicates malformed or missing identity
	// evidence at the proxy (HTTP 401).
	ErrCodeInvalidAuthEvidence ErrorCode = "invalid_auth_evidence"
	// ErrCodeNoRolesAssigned indicates the subject's role set is empty (403).
	ErrCodeNoRolesAssigned ErrorCode = "no_roles_assigned"
	// ErrCodeUnrecognizedRole indicates the subject has roles but none appear
	// in the precedence table (403).
	ErrCodeUnrecognizedRole ErrorCode = "unrecognized_role"
	// ErrCodeRoutingMisconfiguration indicates a precedence entry without a
	// configured backend; operator error, not client error (500).
	ErrCodeRoutingMisconfiguration ErrorCode = "routing_misconfiguration"
	// ErrCodeBackendUnavailable indicates connection failure to the target (503).
	ErrCodeBackendUnavailable ErrorCode = "backend_unavailable"
	// ErrCodeBackendTimeout indicates the forwarding call timed out (504).
	ErrCodeBackendTimeout ErrorCode = "backend_timeout"
	// ErrCodeProxyInternal indicates any other forwarding failure (500).
	ErrCodeProxyInternal ErrorCode = "proxy_internal"
	// ErrCodeValidation indicates invalid form input (missing fields etc).
	ErrCodeValidation ErrorCode = "validation"
)

// AppError is a structured gateway error with a code, message, and optional
// cause. It supports error wrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error
	Code ErrorCode
	// Message is a human-readable error message, safe to surface to users
	Message string
	// Cause is the underlying error (optional, never shown to users)
	Cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates an AppError with the given code and message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf creates an AppError with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// InvalidCredentials creates the generic credential-failure error. The same
// message covers "no such user" and "wrong password" deliberately.
func InvalidCredentials() *AppError {
	return New(ErrCodeInvalidCredentials, "invalid username or password")
}

// InvalidDepartment creates an error for an unknown department.
func InvalidDepartment(department string) *AppError {
	return Newf(ErrCodeInvalidDepartment, "invalid department selected: %s", department)
}

// Unauthorized creates an error for a subject lacking the department's group.
func Unauthorized(department string) *AppError {
	return Newf(ErrCodeUnauthorized, "access denied: you are not authorized for the %s department", department)
}

// DirectoryError wraps a directory transport or protocol failure.
func DirectoryError(err error) *AppError {
	return Wrap(err, ErrCodeDirectoryError, "directory service error")
}

// SessionExpired creates an error directing the caller to restart login.
func SessionExpired() *AppError {
	return New(ErrCodeSessionExpired, "session expired, please log in again")
}

// InvalidCodeFormat creates an error for a malformed verification code.
func InvalidCodeFormat() *AppError {
	return New(ErrCodeInvalidCodeFormat, "verification code must be 6 digits")
}

// NotEnrolled creates an error for a subject with no second-factor secret.
func NotEnrolled() *AppError {
	return New(ErrCodeNotEnrolled, "second factor not enrolled for this account, please contact your administrator")
}

// Configuration wraps a second-factor subsystem failure.
func Configuration(err error) *AppError {
	return Wrap(err, ErrCodeConfiguration, "second-factor system not configured")
}

// InvalidCode creates an error for a code that failed verification.
func InvalidCode() *AppError {
	return New(ErrCodeInvalidCode, "invalid verification code, please check your authenticator app and try again")
}

// InvalidAuthEvidence creates an error for malformed identity evidence.
func InvalidAuthEvidence(message string) *AppError {
	return New(ErrCodeInvalidAuthEvidence, message)
}

// NoRolesAssigned creates an error for an empty role set.
func NoRolesAssigned() *AppError {
	return New(ErrCodeNoRolesAssigned, "no roles assigned")
}

// UnrecognizedRole creates an error for roles outside the precedence table.
func UnrecognizedRole() *AppError {
	return New(ErrCodeUnrecognizedRole, "no matching role")
}

// RoutingMisconfiguration creates an error for a role without a backend.
func RoutingMisconfiguration(role string) *AppError {
	return Newf(ErrCodeRoutingMisconfiguration, "no backend configured for role %s", role)
}

// BackendUnavailable wraps a connection failure to a dashboard backend.
func BackendUnavailable(err error) *AppError {
	return Wrap(err, ErrCodeBackendUnavailable, "dashboard unreachable")
}

// BackendTimeout wraps a forwarding timeout.
func BackendTimeout(err error) *AppError {
	return Wrap(err, ErrCodeBackendTimeout, "dashboard timed out")
}

// ProxyInternal wraps an unexpected forwarding failure.
func ProxyInternal(err error) *AppError {
	return Wrap(err, ErrCodeProxyInternal, "proxy error")
}

// Validation creates an error for invalid form input.
func Validation(message string) *AppError {
	return New(ErrCodeValidation, message)
}

// isCode checks if an error carries a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsInvalidCredentials checks for an invalid-credentials error.
func IsInvalidCredentials(err error) bool { return isCode(err, ErrCodeInvalidCredentials) }

// IsInvalidDepartment checks for an invalid-department error.
func IsInvalidDepartment(err error) bool { return isCode(err, ErrCodeInvalidDepartment) }

// IsUnauthorized checks for an unauthorized-department error.
func IsUnauthorized(err error) bool { return isCode(err, ErrCodeUnauthorized) }

// IsDirectoryError checks for a directory transport/protocol error.
func IsDirectoryError(err error) bool { return isCode(err, ErrCodeDirectoryError) }

// IsSessionExpired checks for an expired or consumed session.
func IsSessionExpired(err error) bool { return isCode(err, ErrCodeSessionExpired) }

// IsInvalidCodeFormat checks for a malformed verification code.
func IsInvalidCodeFormat(err error) bool { return isCode(err, ErrCodeInvalidCodeFormat) }

// IsNotEnrolled checks for a missing second-factor enrollment.
func IsNotEnrolled(err error) bool { return isCode(err, ErrCodeNotEnrolled) }

// IsConfiguration checks for a second-factor subsystem failure.
func IsConfiguration(err error) bool { return isCode(err, ErrCodeConfiguration) }

// IsInvalidCode checks for a failed code verification.
func IsInvalidCode(err error) bool { return isCode(err, ErrCodeInvalidCode) }

// IsInvalidAuthEvidence checks for malformed identity evidence.
func IsInvalidAuthEvidence(err error) bool { return isCode(err, ErrCodeInvalidAuthEvidence) }

// IsNoRolesAssigned checks for an empty role set.
func IsNoRolesAssigned(err error) bool { return isCode(err, ErrCodeNoRolesAssigned) }

// IsUnrecognizedRole checks for roles outside the precedence table.
func IsUnrecognizedRole(err error) bool { return isCode(err, ErrCodeUnrecognizedRole) }

// IsRoutingMisconfiguration checks for a role without a backend.
func IsRoutingMisconfiguration(err error) bool { return isCode(err, ErrCodeRoutingMisconfiguration) }

// IsBackendUnavailable checks for a backend connection failure.
func IsBackendUnavailable(err error) bool { return isCode(err, ErrCodeBackendUnavailable) }

// IsBackendTimeout checks for a backend timeout.
func IsBackendTimeout(err error) bool { return isCode(err, ErrCodeBackendTimeout) }

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// UserMessage returns the user-safe message for an error. Non-AppError
// values collapse to a generic message so internal detail never leaks.
func UserMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "an unexpected error occurred"
}
