package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/henry-enterprise/portal-gateway/config"
	"github.com/henry-enterprise/portal-gateway/internal/bootstrap"
	"github.com/henry-enterprise/portal-gateway/internal/migrate"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logStartupInfo(ctx, logger, &cfg)

	redisClient, err := bootstrap.ConnectRedis(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := redisClient.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close redis failed", "error", cerr)
		}
	}()

	// Postgres holds only second-factor enrollments; skip it when secrets
	// come from a file.
	var pool *pgxpool.Pool
	if cfg.Auth.TOTP.SecretBackend == config.SecretBackendPostgres {
		pool, err = bootstrap.ConnectDB(ctx, cfg.Postgres, logger)
		if err != nil {
			return err
		}
		defer pool.Close()

		if cfg.Postgres.RunMigrationsOnStart {
			if err = migrate.Run(ctx, pool); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
		}
	}

	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:      &cfg,
		Pool:        pool,
		RedisClient: redisClient,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	return bootstrap.Run(ctx, &bootstrap.HTTPServerConfig{
		Config:   &cfg,
		Services: services,
		Logger:   logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting portal gateway",
		"addr", cfg.HTTP.Addr,
		"departments", cfg.Routing.Table().DepartmentNames(),
		"secret_backend", cfg.Auth.TOTP.SecretBackend,
		"sso_enabled", cfg.Auth.OIDC.Enabled,
		"trusted_headers", cfg.Routing.TrustedHeadersEnabled)
}
