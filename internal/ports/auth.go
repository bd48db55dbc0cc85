package ports

// Package ports defines interfaces (hexagonal ports) for the gateway's
// collaborators: the directory, the second-factor subsystem, the session and
// pending-authentication stores, the identity provider, and the audit sink.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"time"

	domainauth "github.com/henry-enterprise/portal-gateway/internal/domain/auth"
)

// ErrNotFound is returned by stores when a record is not present.
type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }

var ErrNotFound error = notFoundError{}

// DirectoryEntry is the subject's record as reported by the directory.
// DisplayName and Email are empty when the attribute is absent; fallback
// policy (display name defaults to the username, email to
// username@<domain>) belongs to the adapter, not the caller.
type DirectoryEntry struct {
	DisplayName string
	Email       string
	// Groups holds leaf group names extracted from memberOf DNs.
	Groups []string
}

// DirectoryClient authenticates credentials against the directory and
// returns the subject's entry. Failed binds, unreachable directories, and
// protocol faults are reported as distinct error kinds.
type DirectoryClient interface {
	Authenticate(ctx context.Context, username, password string) (DirectoryEntry, error)
}

// SecretStore looks up the second-factor shared secret for a subject.
// Returns ErrNotFound when the subject is not enrolled; any other error
// means the second-factor subsystem itself is unavailable.
type SecretStore interface {
	Lookup(ctx context.Context, username string) (string, error)
}

// CodeVerifier validates a time-based one-time code against a shared
// secret. Pure local computation; must not block.
type CodeVerifier interface {
	Verify(secret, code string, at time.Time) bool
}

// PendingStore persists pending-authentication records between the two
// authentication steps. Records carry their own expiry and must be treated
// as absent once expired.
type PendingStore interface {
	Save(ctx context.Context, pending domainauth.PendingAuthentication) error
	Get(ctx context.Context, id string) (domainauth.PendingAuthentication, error)
	// Consume atomically retrieves and deletes a record so that the same
	// pending authentication can be promoted at most once, even under
	// concurrent submissions. Returns ErrNotFound when already consumed.
	Consume(ctx context.Context, id string) (domainauth.PendingAuthentication, error)
	Delete(ctx context.Context, id string) error
}

// SessionStore persists and retrieves authenticated sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// BeginInput carries inputs for initiating a provider auth flow.
type BeginInput struct {
	RedirectURL string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// ProviderIdentity is the identity asserted by an external identity
// provider, with the role names carried by its token claims.
type ProviderIdentity struct {
	Identity  domainauth.Identity
	Roles     []string
	ExpiresAt time.Time
}

// AuthProvider initiates and completes an authentication flow against an
// external identity provider.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an
	// opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and
	// returns the asserted identity.
	Exchange(ctx context.Context, in ExchangeInput) (ProviderIdentity, error)
}

// TokenVerifier validates a raw identity token presented as proxy auth
// evidence and extracts the subject and role set from its claims.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, rawToken string) (ProviderIdentity, error)
}
