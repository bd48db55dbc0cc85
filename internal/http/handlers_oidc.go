package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/henry-enterprise/portal-gateway/internal/errors"
	"github.com/henry-enterprise/portal-gateway/internal/ports"
	"github.com/henry-enterprise/portal-gateway/internal/service"
)

// RouterServiceInterface is the routing capability the handlers need.
type RouterServiceInterface interface {
	AuthorizeAndSelectTarget(ctx context.Context, subject service.Subject) (service.RouteDecision, error)
}

// OIDCHandlers serves the provider-backed login flow as an alternative to
// the credential form. The provider performs its own second factor, so a
// completed exchange establishes a session directly.
type OIDCHandlers struct {
	Provider ports.AuthProvider
	Router   RouterServiceInterface
	Svc      LoginServiceInterface
	Cookies  cookieWriter
	Logger   *slog.Logger
}

func (h *OIDCHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

const oauthCookieTTL = 600 // seconds

// Login initiates the provider flow.
// GET /auth/login?redirect_uri=<optional_relative_path>.
func (h *OIDCHandlers) Login(w http.ResponseWriter, r *http.Request) {
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))

	authURL, state, nonce, err := h.Provider.Begin(r.Context(), ports.BeginInput{RedirectURL: redirectURI})
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin provider login", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     errors.New("could not start sign-in"),
		})
		return
	}

	h.Cookies.set(w, r, stateCookie, state, oauthCookieTTL)
	h.Cookies.set(w, r, nonceCookie, nonce, oauthCookieTTL)
	h.Cookies.set(w, r, returnCookie, redirectURI, oauthCookieTTL)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback completes the provider flow: exchanges the code, resolves the
// department from the asserted roles, and issues a session.
// GET /auth/callback?code=<code>&state=<state>.
func (h *OIDCHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_parameters",
			Err:     errors.New("code and state parameters are required"),
		})
		return
	}
	if cookieValue(r, stateCookie) != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	nonce := cookieValue(r, nonceCookie)
	if nonce == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce cookie"),
		})
		return
	}

	pid, err := h.Provider.Exchange(r.Context(), ports.ExchangeInput{Code: code, State: state, Nonce: nonce})
	if err != nil {
		h.logger().ErrorContext(r.Context(), "provider exchange failed", "error", err)
		writeAppError(w, apperrors.InvalidAuthEvidence("sign-in could not be completed"))
		return
	}

	decision, err := h.Router.AuthorizeAndSelectTarget(r.Context(), service.Subject{
		Username: pid.Identity.Username,
		Email:    pid.Identity.Email,
		Roles:    pid.Roles,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}

	session, err := h.Svc.EstablishProviderSession(r.Context(), pid, decision.Target.Name)
	if err != nil {
		writeAppError(w, err)
		return
	}

	h.Cookies.set(w, r, sessionCookie, session.ID, int(time.Until(session.ExpiresAt).Seconds()))
	h.Cookies.clear(w, r, stateCookie)
	h.Cookies.clear(w, r, nonceCookie)

	redirectURI := safeRedirectPath(cookieValue(r, returnCookie))
	h.Cookies.clear(w, r, returnCookie)
	if redirectURI == "/" {
		redirectURI = decision.Target.DashboardPath
	}
	http.Redirect(w, r, redirectURI, http.StatusFound)
}
