package httpx

import (
	"net/http"

	apperrors "github.com/henry-enterprise/portal-gateway/internal/errors"
)

// statusForError maps an error kind to the HTTP status the caller sees.
// Unknown errors are treated as internal.
func statusForError(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeValidation,
		apperrors.ErrCodeInvalidDepartment,
		apperrors.ErrCodeInvalidCodeFormat:
		return http.StatusBadRequest
	case apperrors.ErrCodeInvalidCredentials,
		apperrors.ErrCodeSessionExpired,
		apperrors.ErrCodeInvalidCode,
		apperrors.ErrCodeNotEnrolled,
		apperrors.ErrCodeInvalidAuthEvidence:
		return http.StatusUnauthorized
	case apperrors.ErrCodeUnauthorized,
		apperrors.ErrCodeNoRolesAssigned,
		apperrors.ErrCodeUnrecognizedRole:
		return http.StatusForbidden
	case apperrors.ErrCodeDirectoryError,
		apperrors.ErrCodeBackendUnavailable:
		return http.StatusServiceUnavailable
	case apperrors.ErrCodeBackendTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrCodeConfiguration,
		apperrors.ErrCodeRoutingMisconfiguration,
		apperrors.ErrCodeProxyInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// writeAppError renders an error as JSON with its mapped status and the
// user-safe message.
func writeAppError(w http.ResponseWriter, err error) {
	WriteJSON(w, statusForError(err), map[string]string{
		"error":   string(apperrors.GetCode(err)),
		"message": apperrors.UserMessage(err),
	})
}
