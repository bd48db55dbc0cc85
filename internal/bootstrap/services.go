package bootstrap

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/henry-enterprise/portal-gateway/config"
	"github.com/henry-enterprise/portal-gateway/internal/adapters/devauth"
	"github.com/henry-enterprise/portal-gateway/internal/adapters/directory"
	"github.com/henry-enterprise/portal-gateway/internal/adapters/oidc"
	"github.com/henry-enterprise/portal-gateway/internal/adapters/proxy"
	redisstore "github.com/henry-enterprise/portal-gateway/internal/adapters/redis"
	"github.com/henry-enterprise/portal-gateway/internal/adapters/secrets"
	"github.com/henry-enterprise/portal-gateway/internal/adapters/totp"
	"github.com/henry-enterprise/portal-gateway/internal/observability/metrics"
	"github.com/henry-enterprise/portal-gateway/internal/observability/statsd"
	"github.com/henry-enterprise/portal-gateway/internal/ports"
	"github.com/henry-enterprise/portal-gateway/internal/service"
)

// ServiceDeps contains the external dependencies services are built from.
type ServiceDeps struct {
	Config      *config.AppConfig
	Pool        *pgxpool.Pool
	RedisClient goredis.UniversalClient
	Logger      *slog.Logger
}

// ServiceContainer holds the wired application services and adapters.
type ServiceContainer struct {
	Login     *service.LoginService
	Router    *service.RouterService
	Forwarder *proxy.Forwarder

	// Provider is nil unless identity-provider login is configured.
	Provider ports.AuthProvider
	// Verifier is nil unless identity-provider login is configured.
	Verifier ports.TokenVerifier
	// Metrics is nil when the metrics endpoint is disabled.
	Metrics http.Handler

	Audit ports.AuditRecorder
}

// NewServices wires adapters and services from configuration.
func NewServices(deps *ServiceDeps) (*ServiceContainer, error) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	audit, metricsHandler, err := buildAudit(cfg, logger)
	if err != nil {
		return nil, err
	}

	directoryClient, err := directory.NewLDAPClient(directory.LDAPClientOptions{
		URL:         cfg.Auth.Directory.URL,
		UserBaseDN:  cfg.Auth.Directory.UserBaseDN,
		EmailDomain: cfg.Auth.Directory.EmailDomain,
		DialTimeout: cfg.Auth.Directory.DialTimeout,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("directory client: %w", err)
	}

	secretStore, err := buildSecretStore(cfg, deps.Pool)
	if err != nil {
		return nil, err
	}

	login := service.NewLoginService(service.LoginServiceOptions{
		Directory:  directoryClient,
		Secrets:    secretStore,
		Codes:      totp.NewVerifier(cfg.Auth.TOTP.Skew),
		Pending:    redisstore.NewPendingStore(deps.RedisClient),
		Sessions:   redisstore.NewSessionStore(deps.RedisClient),
		Table:      cfg.Routing.Table(),
		Audit:      audit,
		Logger:     logger,
		PendingTTL: cfg.Auth.PendingTTL,
		SessionTTL: cfg.Auth.SessionTTL,
	})

	router := service.NewRouterService(service.RouterServiceOptions{
		Table:      cfg.Routing.Table(),
		Precedence: cfg.Routing.Precedence(),
		Audit:      audit,
		Logger:     logger,
	})

	forwarder := proxy.NewForwarder(proxy.ForwarderOptions{
		Timeout: cfg.Routing.ProxyTimeout,
		Logger:  logger,
	})

	container := &ServiceContainer{
		Login:     login,
		Router:    router,
		Forwarder: forwarder,
		Metrics:   metricsHandler,
		Audit:     audit,
	}

	switch {
	case cfg.Auth.OIDC.Enabled:
		provider, perr := oidc.NewProvider(oidc.ProviderConfig{
			ClientID:           cfg.Auth.OIDC.ClientID,
			ClientSecret:       cfg.Auth.OIDC.ClientSecret,
			RedirectURL:        cfg.Auth.OIDC.RedirectURL,
			Scope:              cfg.Auth.OIDC.Scope,
			DiscoveryURL:       cfg.Auth.OIDC.DiscoveryURL,
			InsecureSkipVerify: cfg.Auth.OIDC.InsecureSkipVerify && cfg.IsDev,
		})
		if perr != nil {
			return nil, fmt.Errorf("identity provider: %w", perr)
		}
		container.Provider = provider
		container.Verifier = provider
	case cfg.IsDev && cfg.Auth.DevAuth.Enabled:
		provider, perr := devauth.NewProvider(devauth.Config{
			Username:     cfg.Auth.DevAuth.Username,
			FullName:     cfg.Auth.DevAuth.FullName,
			Email:        cfg.Auth.DevAuth.Email,
			Roles:        cfg.Auth.DevAuth.Roles,
			AssertionTTL: cfg.Auth.SessionTTL,
		})
		if perr != nil {
			return nil, fmt.Errorf("dev auth provider: %w", perr)
		}
		logger.Warn("using development auth provider; do not enable in production")
		container.Provider = provider
		container.Verifier = provider
	}

	return container, nil
}

func buildAudit(cfg *config.AppConfig, logger *slog.Logger) (ports.AuditRecorder, http.Handler, error) {
	var sink statsd.Sink
	if cfg.Observability.Metrics.StatsdIsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Observability.Metrics.StatsdAddress,
			Prefix:  "portal_gateway",
			Logger:  logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("statsd client: %w", err)
		}
		sink = client
	}

	registry := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(metrics.RecorderOptions{
		Registerer: registry,
		Sink:       sink,
	})

	var handler http.Handler
	if cfg.Observability.Metrics.Enabled {
		handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}
	return recorder, handler, nil
}

func buildSecretStore(cfg *config.AppConfig, pool *pgxpool.Pool) (ports.SecretStore, error) {
	switch cfg.Auth.TOTP.SecretBackend {
	case config.SecretBackendFile:
		store, err := secrets.NewFileStore(cfg.Auth.TOTP.SecretsFile)
		if err != nil {
			return nil, fmt.Errorf("file secret store: %w", err)
		}
		return store, nil
	default:
		if pool == nil {
			return nil, fmt.Errorf("postgres secret store requires a database connection")
		}
		return secrets.NewPostgresStore(pool), nil
	}
}
