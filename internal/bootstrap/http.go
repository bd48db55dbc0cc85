package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/henry-enterprise/portal-gateway/config"
	httpx "github.com/henry-enterprise/portal-gateway/internal/http"
)

// HTTPServerConfig contains configuration for the HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Logger   *slog.Logger
}

// NewHTTPServer builds the gateway's HTTP server. The caller owns its
// lifecycle; see Run.
func NewHTTPServer(cfg *HTTPServerConfig) (*http.Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	handler, err := httpx.NewRouter(httpx.RouterServices{
		Login:               cfg.Services.Login,
		Router:              cfg.Services.Router,
		Forwarder:           cfg.Services.Forwarder,
		Provider:            cfg.Services.Provider,
		Verifier:            cfg.Services.Verifier,
		Metrics:             cfg.Services.Metrics,
		TrustTrustedHeaders: appCfg.Routing.TrustedHeadersEnabled,
		CookieDomain:        appCfg.HTTP.CookieDomain,
		Logger:              logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}

	addr := appCfg.HTTP.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	// The write timeout must outlast the upstream deadline so timed-out
	// forwards can still produce a 504 body.
	writeTimeout := appCfg.Routing.ProxyTimeout + 5*time.Second
	if writeTimeout < 35*time.Second {
		writeTimeout = 35 * time.Second
	}

	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
	}, nil
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	if server == nil {
		return nil
	}

	if logger != nil {
		logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if logger != nil {
		logger.Info("HTTP server stopped")
	}

	return nil
}
