package httpx

// Package httpx wires the portal's HTTP surface: the browser login flow,
// the provider login flow, health endpoints, the metrics endpoint, and the
// wildcard reverse-proxy route.

import (
	"log/slog"
	"net/http"

	"github.com/henry-enterprise/portal-gateway/internal/ports"
)

// RouterServices holds the collaborators needed by the HTTP router.
type RouterServices struct {
	Login     LoginServiceInterface
	Router    RouterServiceInterface
	Forwarder ForwarderInterface

	// Provider enables the /auth/login browser flow when set.
	Provider ports.AuthProvider
	// Verifier enables bearer-token proxy evidence when set.
	Verifier ports.TokenVerifier
	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler

	TrustTrustedHeaders bool
	CookieDomain        string
	Logger              *slog.Logger
}

// NewRouter creates and configures the portal's HTTP handler.
func NewRouter(services RouterServices) (http.Handler, error) {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	renderer, err := NewRenderer(logger)
	if err != nil {
		return nil, err
	}

	cookies := cookieWriter{Domain: services.CookieDomain}
	authHandlers := &AuthHandlers{
		Svc:        services.Login,
		Renderer:   renderer,
		Cookies:    cookies,
		SSOEnabled: services.Provider != nil,
		Logger:     logger,
	}
	proxyHandler := &ProxyHandler{
		Svc:                 services.Login,
		Router:              services.Router,
		Forwarder:           services.Forwarder,
		Verifier:            services.Verifier,
		TrustTrustedHeaders: services.TrustTrustedHeaders,
		Logger:              logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", authHandlers.Landing)
	mux.HandleFunc("GET /employee/login", authHandlers.LoginForm)
	mux.HandleFunc("POST /employee/login", authHandlers.Login)
	mux.HandleFunc("GET /employee/totp", authHandlers.VerifyForm)
	mux.HandleFunc("POST /employee/totp", authHandlers.Verify)
	mux.HandleFunc("GET /logout", authHandlers.Logout)
	mux.HandleFunc("POST /logout", authHandlers.Logout)

	if services.Provider != nil {
		oidcHandlers := &OIDCHandlers{
			Provider: services.Provider,
			Router:   services.Router,
			Svc:      services.Login,
			Cookies:  cookies,
			Logger:   logger,
		}
		mux.HandleFunc("GET /auth/login", oidcHandlers.Login)
		mux.HandleFunc("GET /auth/callback", oidcHandlers.Callback)
	}

	for _, path := range []string{"/health", "/healthz", "/ready"} {
		mux.HandleFunc("GET "+path, healthHandler)
		mux.HandleFunc("HEAD "+path, healthHandler)
	}
	if services.Metrics != nil {
		mux.Handle("GET /metrics", services.Metrics)
	}

	// Everything else is proxied to the role-selected backend.
	mux.Handle("/", proxyHandler)

	var handler http.Handler = mux
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler, nil
}
