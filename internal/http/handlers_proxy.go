package httpx

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/henry-enterprise/portal-gateway/internal/domain/routing"
	apperrors "github.com/henry-enterprise/portal-gateway/internal/errors"
	"github.com/henry-enterprise/portal-gateway/internal/ports"
	"github.com/henry-enterprise/portal-gateway/internal/service"
)

// Trusted evidence headers, honored only when an upstream authenticating
// proxy is the sole network path to this component. That guarantee is a
// deployment precondition; it cannot be verified here.
const (
	headerTrustedEmail  = "X-Auth-Request-Email"
	headerTrustedUser   = "X-Auth-Request-User"
	headerTrustedGroups = "X-Auth-Request-Groups"
)

// ForwarderInterface relays a request to the backend chosen by a decision.
type ForwarderInterface interface {
	Forward(w http.ResponseWriter, r *http.Request, decision service.RouteDecision) error
}

// ProxyHandler authorizes each inbound request and relays it to the single
// backend selected for the subject's primary role.
//
// Evidence shapes, in order: a portal session cookie, trusted upstream
// headers (when enabled), and a bearer identity token.
type ProxyHandler struct {
	Svc       LoginServiceInterface
	Router    RouterServiceInterface
	Forwarder ForwarderInterface
	Verifier  ports.TokenVerifier

	// TrustTrustedHeaders enables the trusted-header evidence path.
	TrustTrustedHeaders bool

	Logger *slog.Logger
}

func (h *ProxyHandler) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// ServeHTTP implements the wildcard proxy route.
func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	subject, err := h.resolveSubject(r)
	if err != nil {
		writeAppError(w, err)
		return
	}

	decision, err := h.Router.AuthorizeAndSelectTarget(r.Context(), subject)
	if err != nil {
		writeAppError(w, err)
		return
	}

	if err := h.Forwarder.Forward(w, r, decision); err != nil {
		writeAppError(w, err)
	}
}

// resolveSubject extracts the subject from the strongest available evidence.
func (h *ProxyHandler) resolveSubject(r *http.Request) (service.Subject, error) {
	if session, err := h.Svc.GetSession(r.Context(), cookieValue(r, sessionCookie)); err == nil {
		roles := session.Groups
		if len(roles) == 0 {
			roles = []string{session.Role}
		}
		return service.Subject{
			Username: session.Username,
			Email:    session.Email,
			Roles:    roles,
		}, nil
	}

	if h.TrustTrustedHeaders && r.Header.Get(headerTrustedUser) != "" {
		return service.Subject{
			Username: r.Header.Get(headerTrustedUser),
			Email:    r.Header.Get(headerTrustedEmail),
			Roles:    routing.ExtractRoles(r.Header.Get(headerTrustedGroups)),
		}, nil
	}

	if token := bearerToken(r); token != "" {
		if h.Verifier == nil {
			return service.Subject{}, apperrors.InvalidAuthEvidence("token evidence is not accepted")
		}
		pid, err := h.Verifier.VerifyIDToken(r.Context(), token)
		if err != nil {
			h.logger().WarnContext(r.Context(), "rejected identity token", "error", err)
			return service.Subject{}, apperrors.InvalidAuthEvidence("invalid identity token")
		}
		return service.Subject{
			Username: pid.Identity.Username,
			Email:    pid.Identity.Email,
			Roles:    pid.Roles,
		}, nil
	}

	return service.Subject{}, apperrors.InvalidAuthEvidence("no authentication evidence presented")
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}
	return ""
}
