// Command portal-admin provides operational commands for the portal
// gateway: second-factor enrollment, schema setup, and session inspection.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/henry-enterprise/portal-gateway/config"
	"github.com/henry-enterprise/portal-gateway/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
}

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"enroll": {
			name:        "enroll",
			description: "Generate and store a second-factor secret for an employee",
			run:         runEnroll,
		},
		"migrate": {
			name:        "migrate",
			description: "Create the second-factor enrollment schema",
			run:         runMigrate,
		},
		"list-sessions": {
			name:        "list-sessions",
			description: "List active portal sessions",
			run:         runListSessions,
		},
		"revoke-session": {
			name:        "revoke-session",
			description: "Revoke an active portal session by ID",
			run:         runRevokeSession,
		},
	}
}

func printUsage() error {
	if err := writef(os.Stderr, "usage: portal-admin <command> [flags]\n\ncommands:\n"); err != nil {
		return err
	}
	for _, name := range []string{"enroll", "migrate", "list-sessions", "revoke-session"} {
		cmd := commands()[name]
		if err := writef(os.Stderr, "  %-16s %s\n", cmd.name, cmd.description); err != nil {
			return err
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
