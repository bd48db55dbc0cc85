package ports

import "time"

// Outcome labels for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// AuditRecorder receives the audit/metrics events the gateway emits
// synchronously at each authentication and routing decision point. It is an
// injected collaborator with atomic increment semantics so components depend
// on the interface, not a process-global registry, and tests can substitute
// a recording stub.
type AuditRecorder interface {
	// LoginAttempt records a primary-authentication outcome. status is one of
	// success, invalid_credentials, invalid_department, unauthorized, or
	// directory_error.
	LoginAttempt(status, department, username string)

	// UnauthorizedAccess records an authenticated identity attempting access
	// outside its authorization, with the subject's actual memberships.
	UnauthorizedAccess(username, requestedDepartment string, actualGroups []string)

	// SecondFactorAttempt records a second-factor outcome. status is one of
	// success, invalid_format, not_enrolled, configuration_error, or invalid_code.
	SecondFactorAttempt(status, username string)

	// DirectoryAuthDuration records directory bind+search latency.
	DirectoryAuthDuration(d time.Duration)

	// SecondFactorDuration records code-validation latency.
	SecondFactorDuration(d time.Duration)

	// Logout records a session termination.
	Logout(username string)

	// ProxyForward records a routing decision outcome labeled by primary role
	// (empty when no role was selected).
	ProxyForward(outcome, role string)
}
