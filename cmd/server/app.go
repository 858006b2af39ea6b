package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/registrar-api/internal/config"
	"github.com/phrazzld/registrar-api/internal/platform/postgres"
	"github.com/phrazzld/registrar-api/internal/service"
	"github.com/phrazzld/registrar-api/internal/service/auth"
	"github.com/phrazzld/registrar-api/internal/store"
	"github.com/phrazzld/registrar-api/internal/task"
)

// application holds the wired dependencies of the running server.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	studentStore store.StudentStore
	courseStore  store.CourseStore

	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier

	studentService    service.StudentService
	courseService     service.CourseService
	enrollmentService service.EnrollmentService
	queryService      service.QueryService

	reconciler *task.Reconciler
}

// newApplication wires all application dependencies from configuration.
// The database connection is established and migrations applied before any
// service is constructed.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := postgres.Migrate(ctx, db, logger); err != nil {
		closeDatabase(db, logger)
		return nil, err
	}

	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.studentStore = postgres.NewPostgresStudentStore(db, logger)
	app.courseStore = postgres.NewPostgresCourseStore(db, logger)

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		closeDatabase(db, logger)
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}
	app.passwordVerifier = auth.NewPBKDF2Verifier()

	app.studentService, err = service.NewStudentService(app.studentStore, logger)
	if err != nil {
		closeDatabase(db, logger)
		return nil, fmt.Errorf("failed to create student service: %w", err)
	}

	app.courseService, err = service.NewCourseService(app.courseStore, logger)
	if err != nil {
		closeDatabase(db, logger)
		return nil, fmt.Errorf("failed to create course service: %w", err)
	}

	app.enrollmentService, err = service.NewEnrollmentService(
		app.studentStore,
		app.courseStore,
		service.NewDBTxRunner(db),
		logger,
	)
	if err != nil {
		closeDatabase(db, logger)
		return nil, fmt.Errorf("failed to create enrollment service: %w", err)
	}

	app.queryService, err = service.NewQueryService(app.studentStore, app.courseStore, logger)
	if err != nil {
		closeDatabase(db, logger)
		return nil, fmt.Errorf("failed to create query service: %w", err)
	}

	if cfg.Task.ReconcileIntervalMinutes > 0 {
		app.reconciler = task.NewReconciler(
			app.studentStore,
			app.courseStore,
			task.ReconcilerConfig{
				Interval: time.Duration(cfg.Task.ReconcileIntervalMinutes) * time.Minute,
			},
			logger,
		)
	}

	return app, nil
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.reconciler != nil {
		app.reconciler.Stop()
	}
	closeDatabase(app.db, app.logger)
}

// setupDatabase establishes the database connection and configures the pool.
func setupDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		closeDatabase(db, logger)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established")
	return db, nil
}

func closeDatabase(db *sql.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Error("failed to close database connection", "error", err)
	}
}
