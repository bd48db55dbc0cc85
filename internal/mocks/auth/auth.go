package auth

// Package auth contains simple hand-written test doubles for the gateway's
// auth and routing ports. These are lightweight and suitable for unit tests
// without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/henry-enterprise/portal-gateway/internal/domain/auth"
	apperrors "github.com/henry-enterprise/portal-gateway/internal/errors"
	"github.com/henry-enterprise/portal-gateway/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.DirectoryClient = (*StubDirectory)(nil)
	_ ports.SecretStore     = (*StubSecretStore)(nil)
	_ ports.CodeVerifier    = (*StubCodeVerifier)(nil)
	_ ports.PendingStore    = (*MemoryPendingStore)(nil)
	_ ports.SessionStore    = (*MemorySessionStore)(nil)
	_ ports.AuthProvider    = (*MockAuthProvider)(nil)
	_ ports.TokenVerifier   = (*MockAuthProvider)(nil)
	_ ports.AuditRecorder   = (*RecordingAudit)(nil)
)

// StubDirectory simulates the directory with a fixed user table.
type StubDirectory struct {
	// AuthenticateFunc overrides the default behavior when set.
	AuthenticateFunc func(ctx context.Context, username, password string) (ports.DirectoryEntry, error)

	// Users maps username -> password for successful binds.
	Users map[string]string
	// Entries maps username -> directory entry returned after a bind.
	Entries map[string]ports.DirectoryEntry
	// Err, when set, is returned for every call (unreachable directory).
	Err error
}

func (d *StubDirectory) Authenticate(ctx context.Context, username, password string) (ports.DirectoryEntry, error) {
	if d.AuthenticateFunc != nil {
		return d.AuthenticateFunc(ctx, username, password)
	}
	if d.Err != nil {
		return ports.DirectoryEntry{}, d.Err
	}
	want, ok := d.Users[username]
	if !ok || want != password {
		return ports.DirectoryEntry{}, apperrors.InvalidCredentials()
	}
	return d.Entries[username], nil
}

// StubSecretStore serves second-factor secrets from a map.
type StubSecretStore struct {
	Secrets map[string]string
	// Err, when set, simulates an unavailable secret store.
	Err error
}

func (s *StubSecretStore) Lookup(_ context.Context, username string) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	secret, ok := s.Secrets[username]
	if !ok {
		return "", ports.ErrNotFound
	}
	return secret, nil
}

// StubCodeVerifier accepts a single fixed code per secret.
type StubCodeVerifier struct {
	// Valid maps secret -> accepted code.
	Valid map[string]string
}

func (v *StubCodeVerifier) Verify(secret, code string, _ time.Time) bool {
	return v.Valid[secret] == code
}

// MemoryPendingStore is an in-memory pending-authentication store with the
// same atomic consume semantics as the Redis adapter.
type MemoryPendingStore struct {
	mu      sync.Mutex
	records map[string]domainauth.PendingAuthentication
}

// NewMemoryPendingStore creates an empty in-memory pending store.
func NewMemoryPendingStore() *MemoryPendingStore {
	return &MemoryPendingStore{records: make(map[string]domainauth.PendingAuthentication)}
}

func (m *MemoryPendingStore) Save(_ context.Context, pending domainauth.PendingAuthentication) error {
	if pending.ID == "" {
		return errors.New("pending ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[pending.ID] = pending
	return nil
}

func (m *MemoryPendingStore) Get(_ context.Context, id string) (domainauth.PendingAuthentication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.records[id]
	if !ok || p.Expired(time.Now()) {
		return domainauth.PendingAuthentication{}, ports.ErrNotFound
	}
	return p, nil
}

func (m *MemoryPendingStore) Consume(_ context.Context, id string) (domainauth.PendingAuthentication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.records[id]
	if !ok {
		return domainauth.PendingAuthentication{}, ports.ErrNotFound
	}
	delete(m.records, id)
	if p.Expired(time.Now()) {
		return domainauth.PendingAuthentication{}, ports.ErrNotFound
	}
	return p, nil
}

func (m *MemoryPendingStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domainauth.Session)}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return domainauth.Session{}, ports.ErrNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// MockAuthProvider simulates an identity provider with deterministic
// state/nonce handling. It doubles as a TokenVerifier.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (ports.ProviderIdentity, error)
	VerifyFunc   func(ctx context.Context, rawToken string) (ports.ProviderIdentity, error)

	AuthURL     string
	DefaultUser ports.ProviderIdentity

	callCount int
}

// NewMockAuthProvider creates a MockAuthProvider with sensible defaults.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL: "https://mock-idp/auth",
		DefaultUser: ports.ProviderIdentity{
			Identity: domainauth.Identity{
				Username: "mock-user",
				FullName: "Mock User",
				Email:    "mock.user@example.com",
				Groups:   []string{"sales"},
			},
			Roles:     []string{"sales"},
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}
	m.callCount++
	return m.AuthURL, fmt.Sprintf("state-%d", m.callCount), fmt.Sprintf("nonce-%d", m.callCount), nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (ports.ProviderIdentity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}
	user := m.DefaultUser
	user.ExpiresAt = time.Now().Add(time.Hour)
	return user, nil
}

func (m *MockAuthProvider) VerifyIDToken(ctx context.Context, rawToken string) (ports.ProviderIdentity, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, rawToken)
	}
	if rawToken == "" {
		return ports.ProviderIdentity{}, errors.New("empty token")
	}
	return m.DefaultUser, nil
}

// AuditEvent is one recorded audit call.
type AuditEvent struct {
	Kind       string
	Status     string
	Username   string
	Department string
	Role       string
	Groups     []string
}

// RecordingAudit captures audit events for assertions. Safe for concurrent use.
type RecordingAudit struct {
	mu     sync.Mutex
	events []AuditEvent
}

// NewRecordingAudit creates an empty RecordingAudit.
func NewRecordingAudit() *RecordingAudit {
	return &RecordingAudit{}
}

func (r *RecordingAudit) record(e AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *RecordingAudit) Events() []AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]AuditEvent, len(r.events))
	copy(out, r.events)
	return out
}

// ByKind returns recorded events of one kind.
func (r *RecordingAudit) ByKind(kind string) []AuditEvent {
	var out []AuditEvent
	for _, e := range r.Events() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (r *RecordingAudit) LoginAttempt(status, department, username string) {
	r.record(AuditEvent{Kind: "login", Status: status, Department: department, Username: username})
}

func (r *RecordingAudit) UnauthorizedAccess(username, requestedDepartment string, actualGroups []string) {
	r.record(AuditEvent{Kind: "unauthorized", Username: username, Department: requestedDepartment, Groups: actualGroups})
}

func (r *RecordingAudit) SecondFactorAttempt(status, username string) {
	r.record(AuditEvent{Kind: "second_factor", Status: status, Username: username})
}

func (r *RecordingAudit) DirectoryAuthDuration(time.Duration) {}

func (r *RecordingAudit) SecondFactorDuration(time.Duration) {}

func (r *RecordingAudit) Logout(username string) {
	r.record(AuditEvent{Kind: "logout", Username: username})
}

func (r *RecordingAudit) ProxyForward(outcome, role string) {
	r.record(AuditEvent{Kind: "proxy", Status: outcome, Role: role})
}
