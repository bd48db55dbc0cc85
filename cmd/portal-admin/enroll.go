package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/pquerna/otp/totp"

	"github.com/henry-enterprise/portal-gateway/config"
	"github.com/henry-enterprise/portal-gateway/internal/adapters/secrets"
	"github.com/henry-enterprise/portal-gateway/internal/bootstrap"
	"github.com/henry-enterprise/portal-gateway/internal/migrate"
)

// enroller is satisfied by both secret store implementations.
type enroller interface {
	Enroll(ctx context.Context, username, secret string) error
}

func runEnroll(ctx *commandContext, args []string) error {
	fs := flag.NewFlagSet("enroll", flag.ContinueOnError)
	user := fs.String("user", "", "employee username to enroll (required)")
	issuer := fs.String("issuer", "Henry Enterprise Portal", "issuer shown in the authenticator app")
	if err := fs.Parse(args); err != nil {
		return err
	}
	username := strings.TrimSpace(*user)
	if username == "" {
		return fmt.Errorf("enroll: -user is required")
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      *issuer,
		AccountName: username,
	})
	if err != nil {
		return fmt.Errorf("generate TOTP key: %w", err)
	}

	store, cleanup, err := openEnrollmentStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := store.Enroll(ctx.Ctx, username, key.Secret()); err != nil {
		return err
	}

	ctx.Logger.InfoContext(ctx.Ctx, "employee enrolled", "user", username)
	return writef(os.Stdout, "enrolled %s\nsecret:   %s\notpauth:  %s\n", username, key.Secret(), key.URL())
}

func openEnrollmentStore(ctx *commandContext) (enroller, func(), error) {
	if ctx.Config.Auth.TOTP.SecretBackend == config.SecretBackendFile {
		store, err := openFileStore(ctx.Config.Auth.TOTP.SecretsFile)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}

	pool, err := bootstrap.ConnectDB(ctx.Ctx, ctx.Config.Postgres, ctx.Logger)
	if err != nil {
		return nil, nil, err
	}
	return secrets.NewPostgresStore(pool), pool.Close, nil
}

func openFileStore(path string) (*secrets.FileStore, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// First enrollment bootstraps the file.
		if werr := os.WriteFile(path, []byte("{}\n"), 0o600); werr != nil {
			return nil, fmt.Errorf("create TOTP secrets file %s: %w", path, werr)
		}
	}
	return secrets.NewFileStore(path)
}

func runMigrate(ctx *commandContext, _ []string) error {
	pool, err := bootstrap.ConnectDB(ctx.Ctx, ctx.Config.Postgres, ctx.Logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := migrate.Run(ctx.Ctx, pool); err != nil {
		return err
	}

	ctx.Logger.InfoContext(ctx.Ctx, "schema ready")
	return nil
}
