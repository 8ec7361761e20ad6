package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phrazzld/taskkeeper/internal/config"
	"github.com/phrazzld/taskkeeper/internal/platform/logger"
	"github.com/phrazzld/taskkeeper/internal/platform/postgres"
	"github.com/phrazzld/taskkeeper/internal/service"
	"github.com/phrazzld/taskkeeper/internal/service/auth"
)

// runtimeLoader loads configuration and the logger for a command. Tests
// replace it to avoid touching the environment.
var runtimeLoader = loadRuntime

func loadRuntime() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	return cfg, l, nil
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "taskkeeper",
		Short:        "Personal task tracking API",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         runServe,
	}

	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newPromoteCommand(),
	)
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|version|reset]",
		Short:     "Run database schema migrations",
		ValidArgs: migrationCommands,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := runtimeLoader()
			if err != nil {
				return err
			}

			db, err := setupAppDatabase(cmd.Context(), cfg.Database, l)
			if err != nil {
				return err
			}
			defer closeDB(db, l)

			return runMigrations(cmd.Context(), db, args[0], l)
		},
	}
}

func newPromoteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "promote <username>",
		Short: "Grant the administrator role to an existing user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := runtimeLoader()
			if err != nil {
				return err
			}

			db, err := setupAppDatabase(cmd.Context(), cfg.Database, l)
			if err != nil {
				return err
			}
			defer closeDB(db, l)

			users := postgres.NewPostgresUserStore(db, cfg.Auth.BCryptCost, l)
			svc, err := service.NewUserService(users, auth.NewBcryptVerifier(), l)
			if err != nil {
				return fmt.Errorf("failed to create user service: %w", err)
			}

			return promoteUser(cmd.Context(), svc, args[0], cmd.OutOrStdout())
		},
	}
}

func promoteUser(ctx context.Context, svc service.UserService, username string, out io.Writer) error {
	user, err := svc.Promote(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to promote %q: %w", username, err)
	}

	_, err = fmt.Fprintf(out, "User '%s' (%s) is now an administrator\n", user.Username, user.ID)
	return err
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, l, err := runtimeLoader()
	if err != nil {
		return err
	}

	l.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := setupAppDatabase(ctx, cfg.Database, l)
	if err != nil {
		return err
	}

	app, err := newApplication(cfg, l, db)
	if err != nil {
		closeDB(db, l)
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}
