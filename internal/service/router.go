package service

import (
	"context"
	"log/slog"
	"strings"

	apperrors "github.com/henry-enterprise/portal-gateway/internal/errors"

	"github.com/henry-enterprise/portal-gateway/internal/domain/routing"
	"github.com/henry-enterprise/portal-gateway/internal/ports"
)

// Subject is the identity and role set produced from proxy auth evidence,
// regardless of which evidence shape (trusted headers, identity token, or
// portal session) it came from.
type Subject struct {
	Username string
	Email    string
	Roles    []string
}

// RouteDecision is a successful routing outcome: the single authorized
// backend, the primary role that selected it, and the normalized role set
// to attach as forwarded metadata.
type RouteDecision struct {
	Target      routing.Department
	PrimaryRole string
	Roles       []string
	Subject     Subject
}

// RouterServiceOptions groups dependencies for RouterService.
type RouterServiceOptions struct {
	Table      *routing.Table
	Precedence routing.Precedence
	Audit      ports.AuditRecorder
	Logger     *slog.Logger
}

// RouterService authorizes a subject and selects exactly one backend by
// fixed role precedence. It is stateless; the table and precedence list are
// read-only configuration.
type RouterService struct {
	table      *routing.Table
	precedence routing.Precedence
	audit      ports.AuditRecorder
	logger     *slog.Logger
}

// NewRouterService constructs a RouterService.
func NewRouterService(opts RouterServiceOptions) *RouterService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &RouterService{
		table:      opts.Table,
		precedence: opts.Precedence,
		audit:      opts.Audit,
		logger:     opts.Logger,
	}
}

// AuthorizeAndSelectTarget validates the subject's identity fields,
// normalizes its role set, selects the primary role by precedence, and
// resolves the target backend. Every failure is a distinct error kind with
// a distinct audit outcome.
func (s *RouterService) AuthorizeAndSelectTarget(ctx context.Context, subject Subject) (RouteDecision, error) {
	var none RouteDecision

	if subject.Username == "" || !strings.Contains(subject.Email, "@") {
		s.audit.ProxyForward(string(apperrors.ErrCodeInvalidAuthEvidence), "")
		s.logger.WarnContext(ctx, "rejected malformed auth evidence",
			"username", subject.Username, "email", subject.Email)
		return none, apperrors.InvalidAuthEvidence("missing or malformed identity evidence")
	}

	roles := routing.NormalizeRoles(subject.Roles)
	if len(roles) == 0 {
		s.audit.ProxyForward(string(apperrors.ErrCodeNoRolesAssigned), "")
		s.logger.WarnContext(ctx, "subject has no roles assigned", "username", subject.Username)
		return none, apperrors.NoRolesAssigned()
	}

	primary, ok := s.precedence.Primary(roles)
	if !ok {
		s.audit.ProxyForward(string(apperrors.ErrCodeUnrecognizedRole), "")
		s.logger.WarnContext(ctx, "no role matches precedence table",
			"username", subject.Username, "roles", roles)
		return none, apperrors.UnrecognizedRole()
	}

	target, ok := s.table.ByRole(primary)
	if !ok {
		// A precedence entry without a backend is an operator error.
		s.audit.ProxyForward(string(apperrors.ErrCodeRoutingMisconfiguration), primary)
		s.logger.ErrorContext(ctx, "precedence role has no configured backend", "role", primary)
		return none, apperrors.RoutingMisconfiguration(primary)
	}

	s.audit.ProxyForward("routed", primary)
	s.logger.InfoContext(ctx, "routing subject",
		"username", subject.Username, "role", primary, "target", target.Backend)

	subject.Roles = roles
	return RouteDecision{
		Target:      target,
		PrimaryRole: primary,
		Roles:       roles,
		Subject:     subject,
	}, nil
}
