package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/medivue-api/internal/config"
	"github.com/phrazzld/medivue-api/internal/platform/postgres"
	"github.com/phrazzld/medivue-api/internal/service"
	"github.com/phrazzld/medivue-api/internal/store"
)

// application holds the shared dependencies of the server: configuration,
// logging, the database handle, and the wired stores and services.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	taskStore   store.TaskStore
	tagStore    store.TagStore
	taskService service.TaskService
}

// newApplication wires the application dependency graph bottom-up:
// database, stores, then services.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := setupAppDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}

	taskStore := postgres.NewPostgresTaskStore(db, logger)
	tagStore := postgres.NewPostgresTagStore(db, logger)

	taskService, err := service.NewTaskService(db, taskStore, tagStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	return &application{
		config:      cfg,
		logger:      logger,
		db:          db,
		taskStore:   taskStore,
		tagStore:    tagStore,
		taskService: taskService,
	}, nil
}

// run starts the HTTP server and blocks until shutdown.
func (app *application) run() error {
	return app.startHTTPServer(app.setupRouter())
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Failed to close database connection", "error", err)
		}
	}
}
