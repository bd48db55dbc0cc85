package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/henry-enterprise/portal-gateway/internal/errors"

	domainauth "github.com/henry-enterprise/portal-gateway/internal/domain/auth"
	"github.com/henry-enterprise/portal-gateway/internal/domain/routing"
	"github.com/henry-enterprise/portal-gateway/internal/ports"
)

const (
	// DefaultPendingTTL bounds the exposure window of "credentials verified
	// but second factor not yet confirmed".
	DefaultPendingTTL = 5 * time.Minute

	// DefaultSessionTTL is the absolute session lifetime, independent of activity.
	DefaultSessionTTL = 8 * time.Hour
)

// LoginServiceOptions groups dependencies for LoginService.
type LoginServiceOptions struct {
	Directory ports.DirectoryClient
	Secrets   ports.SecretStore
	Codes     ports.CodeVerifier
	Pending   ports.PendingStore
	Sessions  ports.SessionStore
	Table     *routing.Table
	Audit     ports.AuditRecorder
	Logger    *slog.Logger

	// PendingTTL and SessionTTL default to DefaultPendingTTL / DefaultSessionTTL.
	PendingTTL time.Duration
	SessionTTL time.Duration

	// Now is the clock; defaults to time.Now. Injectable for tests.
	Now func() time.Time
}

// LoginService drives the two-factor authentication state machine:
// Anonymous -> PendingSecondFactor -> Authenticated. A session can reach
// Authenticated only through a PendingAuthentication produced by
// AuthenticatePrimary.
type LoginService struct {
	directory ports.DirectoryClient
	secrets   ports.SecretStore
	codes     ports.CodeVerifier
	pending   ports.PendingStore
	sessions  ports.SessionStore
	table     *routing.Table
	audit     ports.AuditRecorder
	logger    *slog.Logger

	pendingTTL time.Duration
	sessionTTL time.Duration
	now        func() time.Time
}

// NewLoginService constructs a LoginService, applying defaults for the
// lifetimes, clock, and logger.
func NewLoginService(opts LoginServiceOptions) *LoginService {
	if opts.PendingTTL <= 0 {
		opts.PendingTTL = DefaultPendingTTL
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &LoginService{
		directory:  opts.Directory,
		secrets:    opts.Secrets,
		codes:      opts.Codes,
		pending:    opts.Pending,
		sessions:   opts.Sessions,
		table:      opts.Table,
		audit:      opts.Audit,
		logger:     opts.Logger,
		pendingTTL: opts.PendingTTL,
		sessionTTL: opts.SessionTTL,
		now:        opts.Now,
	}
}

// PrimaryInput carries the login form fields for the first factor.
type PrimaryInput struct {
	Username   string
	Password   string
	Department string
}

// AuthenticatePrimary validates credentials against the directory and the
// department authorization by group membership. On success it persists and
// returns a PendingAuthentication; no session access is granted yet.
func (s *LoginService) AuthenticatePrimary(ctx context.Context, in PrimaryInput) (domainauth.PendingAuthentication, error) {
	var none domainauth.PendingAuthentication

	if in.Username == "" || in.Password == "" || in.Department == "" {
		return none, apperrors.Validation("please fill in all required fields")
	}

	// Department validity is checked before any directory call is attempted.
	dept, ok := s.table.ByName(in.Department)
	if !ok {
		s.audit.LoginAttempt(string(apperrors.ErrCodeInvalidDepartment), in.Department, in.Username)
		s.logger.WarnContext(ctx, "login attempt for unknown department",
			"username", in.Username, "department", in.Department)
		return none, apperrors.InvalidDepartment(in.Department)
	}

	start := s.now()
	entry, err := s.directory.Authenticate(ctx, in.Username, in.Password)
	s.audit.DirectoryAuthDuration(s.now().Sub(start))
	if err != nil {
		code := apperrors.GetCode(err)
		if code != apperrors.ErrCodeInvalidCredentials && code != apperrors.ErrCodeDirectoryError {
			// Unclassified directory failures surface as generic auth failures.
			err = apperrors.DirectoryError(err)
			code = apperrors.ErrCodeDirectoryError
		}
		s.audit.LoginAttempt(string(code), in.Department, in.Username)
		s.logger.WarnContext(ctx, "primary authentication failed",
			"username", in.Username, "department", in.Department, "error", err)
		return none, err
	}

	if !entryHasGroup(entry, dept.Group) {
		s.audit.LoginAttempt(string(apperrors.ErrCodeUnauthorized), in.Department, in.Username)
		s.audit.UnauthorizedAccess(in.Username, in.Department, entry.Groups)
		s.logger.WarnContext(ctx, "unauthorized department access attempt",
			"username", in.Username,
			"department", in.Department,
			"groups", entry.Groups)
		return none, apperrors.Unauthorized(in.Department)
	}

	now := s.now()
	pending := domainauth.PendingAuthentication{
		ID:         uuid.New().String(),
		Username:   in.Username,
		FullName:   entry.DisplayName,
		Email:      entry.Email,
		Department: in.Department,
		Groups:     entry.Groups,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.pendingTTL),
	}
	if saveErr := s.pending.Save(ctx, pending); saveErr != nil {
		return none, fmt.Errorf("save pending authentication: %w", saveErr)
	}

	s.audit.LoginAttempt(ports.OutcomeSuccess, in.Department, in.Username)
	s.logger.InfoContext(ctx, "primary authentication succeeded",
		"username", in.Username, "department", in.Department)
	return pending, nil
}

// VerifySecondFactor validates the submitted one-time code against the
// subject's enrolled secret and promotes the pending authentication into a
// session. The pending record is consumed exactly once on success and
// preserved on every failure so the caller may retry with a new code.
func (s *LoginService) VerifySecondFactor(ctx context.Context, pendingID, code string) (domainauth.Session, error) {
	var none domainauth.Session

	pending, err := s.pending.Get(ctx, pendingID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return none, apperrors.SessionExpired()
		}
		return none, fmt.Errorf("get pending authentication: %w", err)
	}
	if pending.Expired(s.now()) {
		// Treated as absent even if the store has not cleared it yet.
		_ = s.pending.Delete(ctx, pendingID)
		return none, apperrors.SessionExpired()
	}

	code = normalizeCode(code)
	if !isSixDigits(code) {
		s.audit.SecondFactorAttempt("invalid_format", pending.Username)
		return none, apperrors.InvalidCodeFormat()
	}

	secret, err := s.secrets.Lookup(ctx, pending.Username)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			s.audit.SecondFactorAttempt("not_enrolled", pending.Username)
			s.logger.WarnContext(ctx, "second factor not enrolled", "username", pending.Username)
			return none, apperrors.NotEnrolled()
		}
		s.audit.SecondFactorAttempt(string(apperrors.ErrCodeConfiguration), pending.Username)
		s.logger.ErrorContext(ctx, "second-factor secret store unavailable",
			"username", pending.Username, "error", err)
		return none, apperrors.Configuration(err)
	}

	start := s.now()
	valid := s.codes.Verify(secret, code, s.now())
	s.audit.SecondFactorDuration(s.now().Sub(start))
	if !valid {
		s.audit.SecondFactorAttempt(string(apperrors.ErrCodeInvalidCode), pending.Username)
		s.logger.WarnContext(ctx, "invalid second-factor code", "username", pending.Username)
		return none, apperrors.InvalidCode()
	}

	// Atomic check-and-promote: Consume arbitrates racing submissions of the
	// same valid code so exactly one wins.
	if _, err = s.pending.Consume(ctx, pendingID); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return none, apperrors.SessionExpired()
		}
		return none, fmt.Errorf("consume pending authentication: %w", err)
	}

	dept, ok := s.table.ByName(pending.Department)
	if !ok {
		return none, apperrors.InvalidDepartment(pending.Department)
	}

	now := s.now()
	session := domainauth.Session{
		ID:         uuid.New().String(),
		Username:   pending.Username,
		FullName:   pending.FullName,
		Email:      pending.Email,
		Department: pending.Department,
		Role:       dept.Group,
		Groups:     pending.Groups,
		Permanent:  true,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.sessionTTL),
	}
	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return none, fmt.Errorf("save session: %w", saveErr)
	}

	s.audit.SecondFactorAttempt(ports.OutcomeSuccess, pending.Username)
	s.logger.InfoContext(ctx, "authentication complete",
		"username", pending.Username, "department", pending.Department)
	return session, nil
}

// EstablishProviderSession creates a session directly from an identity
// asserted by the external identity provider, which performs its own second
// factor. The department must already be resolved from the asserted roles.
func (s *LoginService) EstablishProviderSession(ctx context.Context, pid ports.ProviderIdentity, department string) (domainauth.Session, error) {
	var none domainauth.Session

	dept, ok := s.table.ByName(department)
	if !ok {
		s.audit.LoginAttempt(string(apperrors.ErrCodeInvalidDepartment), department, pid.Identity.Username)
		return none, apperrors.InvalidDepartment(department)
	}

	now := s.now()
	expiresAt := now.Add(s.sessionTTL)
	if !pid.ExpiresAt.IsZero() && pid.ExpiresAt.Before(expiresAt) {
		// The session never outlives the provider's own assertion.
		expiresAt = pid.ExpiresAt
	}
	if !expiresAt.After(now) {
		return none, apperrors.SessionExpired()
	}

	session := domainauth.Session{
		ID:         uuid.New().String(),
		Username:   pid.Identity.Username,
		FullName:   pid.Identity.FullName,
		Email:      pid.Identity.Email,
		Department: department,
		Role:       dept.Group,
		Groups:     pid.Identity.Groups,
		Permanent:  true,
		IssuedAt:   now,
		ExpiresAt:  expiresAt,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return none, fmt.Errorf("save session: %w", err)
	}

	s.audit.LoginAttempt(ports.OutcomeSuccess, department, pid.Identity.Username)
	s.logger.InfoContext(ctx, "provider authentication complete",
		"username", pid.Identity.Username, "department", department)
	return session, nil
}

// GetSession retrieves a session by ID, treating expired sessions as absent.
func (s *LoginService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, apperrors.SessionExpired()
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, apperrors.SessionExpired()
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.Expired(s.now()) {
		_ = s.sessions.Delete(ctx, sessionID)
		return nil, apperrors.SessionExpired()
	}
	return &session, nil
}

// Logout terminates a session and discards any pending authentication.
// Idempotent: logging out an absent session is not an error.
func (s *LoginService) Logout(ctx context.Context, sessionID, pendingID string) error {
	if pendingID != "" {
		if err := s.pending.Delete(ctx, pendingID); err != nil {
			return fmt.Errorf("delete pending authentication: %w", err)
		}
	}
	if sessionID == "" {
		return nil
	}

	username := "unknown"
	if session, err := s.sessions.Get(ctx, sessionID); err == nil {
		username = session.Username
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	s.audit.Logout(username)
	s.logger.InfoContext(ctx, "user logged out", "username", username)
	return nil
}

// DashboardPath returns the post-login redirect path for a department,
// falling back to the root.
func (s *LoginService) DashboardPath(department string) string {
	if dept, ok := s.table.ByName(department); ok {
		return dept.DashboardPath
	}
	return "/"
}

// DepartmentNames exposes the login form's department list.
func (s *LoginService) DepartmentNames() []string {
	return s.table.DepartmentNames()
}

func entryHasGroup(entry ports.DirectoryEntry, group string) bool {
	for _, g := range entry.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// normalizeCode strips whitespace and the "-" separator from a submitted code.
func normalizeCode(code string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '-':
			return -1
		}
		return r
	}, strings.TrimSpace(code))
}

func isSixDigits(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
