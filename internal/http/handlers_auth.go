package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/henry-enterprise/portal-gateway/internal/domain/auth"
	apperrors "github.com/henry-enterprise/portal-gateway/internal/errors"
	"github.com/henry-enterprise/portal-gateway/internal/ports"
	"github.com/henry-enterprise/portal-gateway/internal/service"
)

// LoginServiceInterface defines the auth operations the handlers need.
type LoginServiceInterface interface {
	AuthenticatePrimary(ctx context.Context, in service.PrimaryInput) (domainauth.PendingAuthentication, error)
	VerifySecondFactor(ctx context.Context, pendingID, code string) (domainauth.Session, error)
	EstablishProviderSession(ctx context.Context, pid ports.ProviderIdentity, department string) (domainauth.Session, error)
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID, pendingID string) error
	DashboardPath(department string) string
	DepartmentNames() []string
}

// AuthHandlers serves the browser login flow: the credential form, the
// second-factor form, and logout.
type AuthHandlers struct {
	Svc        LoginServiceInterface
	Renderer   *Renderer
	Cookies    cookieWriter
	SSOEnabled bool
	Logger     *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type loginPage struct {
	Title       string
	Error       string
	Username    string
	Department  string
	Departments []string
}

type verifyPage struct {
	Title string
	Error string
}

type landingPage struct {
	Title      string
	SSOEnabled bool
}

// Landing serves the public landing page.
// GET /.
func (h *AuthHandlers) Landing(w http.ResponseWriter, r *http.Request) {
	if session, err := h.Svc.GetSession(r.Context(), cookieValue(r, sessionCookie)); err == nil {
		http.Redirect(w, r, h.Svc.DashboardPath(session.Department), http.StatusFound)
		return
	}
	h.Renderer.Render(w, http.StatusOK, "landing.html", landingPage{
		Title:      "Welcome",
		SSOEnabled: h.SSOEnabled,
	})
}

// LoginForm serves the credential form.
// GET /employee/login.
func (h *AuthHandlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.Renderer.Render(w, http.StatusOK, "login.html", loginPage{
		Title:       "Sign in",
		Departments: h.Svc.DepartmentNames(),
	})
}

// Login handles the credential submission.
// POST /employee/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLoginError(w, r, apperrors.Validation("malformed form submission"), "", "")
		return
	}
	username := r.PostFormValue("username")
	department := r.PostFormValue("department")

	pending, err := h.Svc.AuthenticatePrimary(r.Context(), service.PrimaryInput{
		Username:   username,
		Password:   r.PostFormValue("password"),
		Department: department,
	})
	if err != nil {
		h.renderLoginError(w, r, err, username, department)
		return
	}

	h.Cookies.set(w, r, pendingCookie, pending.ID, int(time.Until(pending.ExpiresAt).Seconds()))
	http.Redirect(w, r, "/employee/totp", http.StatusFound)
}

func (h *AuthHandlers) renderLoginError(w http.ResponseWriter, r *http.Request, err error, username, department string) {
	h.Renderer.Render(w, statusForError(err), "login.html", loginPage{
		Title:       "Sign in",
		Error:       apperrors.UserMessage(err),
		Username:    username,
		Department:  department,
		Departments: h.Svc.DepartmentNames(),
	})
}

// VerifyForm serves the second-factor form. Without a pending record the
// caller is sent back to the start of the flow.
// GET /employee/totp.
func (h *AuthHandlers) VerifyForm(w http.ResponseWriter, r *http.Request) {
	if cookieValue(r, pendingCookie) == "" {
		http.Redirect(w, r, "/employee/login", http.StatusFound)
		return
	}
	h.Renderer.Render(w, http.StatusOK, "verify.html", verifyPage{Title: "Verification"})
}

// Verify handles the second-factor submission. On success the pending
// record has been consumed and a session cookie is issued.
// POST /employee/totp.
func (h *AuthHandlers) Verify(w http.ResponseWriter, r *http.Request) {
	pendingID := cookieValue(r, pendingCookie)
	if pendingID == "" {
		http.Redirect(w, r, "/employee/login", http.StatusFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.Renderer.Render(w, http.StatusBadRequest, "verify.html", verifyPage{
			Title: "Verification",
			Error: "malformed form submission",
		})
		return
	}

	session, err := h.Svc.VerifySecondFactor(r.Context(), pendingID, r.PostFormValue("code"))
	if err != nil {
		if apperrors.IsSessionExpired(err) {
			h.Cookies.clear(w, r, pendingCookie)
			http.Redirect(w, r, "/employee/login", http.StatusFound)
			return
		}
		// The pending record is preserved on these failures; the caller may
		// retry with a fresh code.
		h.Renderer.Render(w, statusForError(err), "verify.html", verifyPage{
			Title: "Verification",
			Error: apperrors.UserMessage(err),
		})
		return
	}

	h.Cookies.clear(w, r, pendingCookie)
	h.Cookies.set(w, r, sessionCookie, session.ID, int(time.Until(session.ExpiresAt).Seconds()))
	http.Redirect(w, r, h.Svc.DashboardPath(session.Department), http.StatusFound)
}

// Logout clears the session and any pending authentication, then redirects
// to the landing page. Idempotent.
// GET or POST /logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := cookieValue(r, sessionCookie)
	pendingID := cookieValue(r, pendingCookie)
	if err := h.Svc.Logout(r.Context(), sessionID, pendingID); err != nil {
		h.logger().WarnContext(r.Context(), "logout failed", "error", err)
	}

	h.Cookies.clear(w, r, sessionCookie)
	h.Cookies.clear(w, r, pendingCookie)
	http.Redirect(w, r, "/", http.StatusFound)
}
