package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	err := New(ErrCodeInvalidCode, "invalid verification code")
	assert.Equal(t, "invalid verification code", err.Error())

	wrapped := Wrap(errors.New("boom"), ErrCodeDirectoryError, "directory service error")
	assert.Equal(t, "directory service error: boom", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := BackendUnavailable(cause)

	require.ErrorIs(t, err, cause)

	var appErr *AppError
	require.ErrorAs(t, fmt.Errorf("forward: %w", err), &appErr)
	assert.Equal(t, ErrCodeBackendUnavailable, appErr.Code)
}

func TestWrap_NilError(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeDirectoryError, "ignored"))
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"invalid credentials", InvalidCredentials(), IsInvalidCredentials},
		{"invalid department", InvalidDepartment("Engineering"), IsInvalidDepartment},
		{"unauthorized", Unauthorized("Admin"), IsUnauthorized},
		{"directory error", DirectoryError(errors.New("dial tcp")), IsDirectoryError},
		{"session expired", SessionExpired(), IsSessionExpired},
		{"invalid code format", InvalidCodeFormat(), IsInvalidCodeFormat},
		{"not enrolled", NotEnrolled(), IsNotEnrolled},
		{"configuration", Configuration(errors.New("no store")), IsConfiguration},
		{"invalid code", InvalidCode(), IsInvalidCode},
		{"invalid auth evidence", InvalidAuthEvidence("missing email"), IsInvalidAuthEvidence},
		{"no roles assigned", NoRolesAssigned(), IsNoRolesAssigned},
		{"unrecognized role", UnrecognizedRole(), IsUnrecognizedRole},
		{"routing misconfiguration", RoutingMisconfiguration("hr"), IsRoutingMisconfiguration},
		{"backend unavailable", BackendUnavailable(errors.New("refused")), IsBackendUnavailable},
		{"backend timeout", BackendTimeout(errors.New("deadline")), IsBackendTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			// A predicate must not match a different code.
			assert.False(t, tt.check(New(ErrCodeProxyInternal, "other")))
		})
	}
}

func TestPredicates_MatchWrappedErrors(t *testing.T) {
	err := fmt.Errorf("verify second factor: %w", NotEnrolled())
	assert.True(t, IsNotEnrolled(err))
	assert.False(t, IsInvalidCode(err))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeUnauthorized, GetCode(Unauthorized("HR")))
	assert.Equal(t, ErrorCode(""), GetCode(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), GetCode(nil))
}

func TestUserMessage(t *testing.T) {
	// The wrapped cause must never leak into the user-facing message.
	err := Wrap(errors.New("ldap: invalid dn for uid=alice"), ErrCodeDirectoryError, "directory service error")
	assert.Equal(t, "directory service error", UserMessage(err))

	assert.Equal(t, "an unexpected error occurred", UserMessage(errors.New("internal detail")))
}
