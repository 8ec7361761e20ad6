package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskkeeper/internal/config"
	"github.com/phrazzld/taskkeeper/internal/events"
	"github.com/phrazzld/taskkeeper/internal/platform/postgres"
	"github.com/phrazzld/taskkeeper/internal/service"
	"github.com/phrazzld/taskkeeper/internal/service/auth"
	"github.com/phrazzld/taskkeeper/internal/store"
)

// application holds the shared dependencies of the server and releases
// them on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore  store.UserStore
	taskStore  store.TaskStore
	transactor store.Transactor

	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	emitter          *events.InMemoryEventEmitter

	userService service.UserService
	taskService service.TaskService
}

// newApplication wires the PostgreSQL stores into the services.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app, err := assembleApplication(
		cfg,
		logger,
		postgres.NewPostgresUserStore(db, cfg.Auth.BCryptCost, logger),
		postgres.NewPostgresTaskStore(db, logger),
		store.NewSQLTransactor(db),
	)
	if err != nil {
		return nil, err
	}
	app.db = db
	return app, nil
}

// assembleApplication builds everything above the storage layer.
func assembleApplication(
	cfg *config.Config,
	logger *slog.Logger,
	userStore store.UserStore,
	taskStore store.TaskStore,
	transactor store.Transactor,
) (*application, error) {
	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create jwt service: %w", err)
	}

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(events.NewAuditLogHandler(logger))

	verifier := auth.NewBcryptVerifier()

	userService, err := service.NewUserService(userStore, verifier, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create user service: %w", err)
	}

	taskService, err := service.NewTaskService(taskStore, transactor, emitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	return &application{
		config:           cfg,
		logger:           logger,
		userStore:        userStore,
		taskStore:        taskStore,
		transactor:       transactor,
		jwtService:       jwtService,
		passwordVerifier: verifier,
		emitter:          emitter,
		userService:      userService,
		taskService:      taskService,
	}, nil
}

// Run serves HTTP until ctx is canceled, then shuts down and cleans up.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()
	return app.startHTTPServer(ctx, app.setupRouter())
}

func (app *application) cleanup() {
	closeDB(app.db, app.logger)
	app.db = nil
}
