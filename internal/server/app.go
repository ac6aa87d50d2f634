// Package server initializes and runs the ingestion server: it opens the
// database, runs migrations, wires the pipeline stages together, and serves
// the HTTP API until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/croplabs/picstore/internal/enricher"
	"github.com/croplabs/picstore/internal/logging"
	"github.com/croplabs/picstore/internal/schema"
	"github.com/croplabs/picstore/internal/server/config"
	"github.com/croplabs/picstore/internal/server/controller"
	"github.com/croplabs/picstore/internal/server/httpapi"
	"github.com/croplabs/picstore/internal/server/objstore"
	"github.com/croplabs/picstore/internal/server/repositories/repomanager"
	"github.com/croplabs/picstore/internal/server/services"
	"github.com/croplabs/picstore/internal/submission"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	store, err := objstore.NewS3Store(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("object store init error: %w", err)
	}

	registry := schema.Default()
	rules := registry.Latest()
	if cfg.SchemaVersion > 0 {
		rules, err = registry.Version(cfg.SchemaVersion)
		if err != nil {
			return nil, fmt.Errorf("schema version error: %w", err)
		}
	}

	uploadSvc := services.NewUploadService(db, rm, store, log, cfg)
	userSvc := services.NewUserService(db, rm, store)
	pictureSvc := services.NewPictureService(db, rm, store)

	ctrl := controller.New(rules,
		submission.Policy{HaltOnMissingPictureMeta: cfg.HaltOnMissingPictureMeta},
		enricher.New(nil), uploadSvc, log)

	srv := httpapi.NewServer(cfg, log, ctrl, userSvc, pictureSvc)

	return &App{config: cfg, logger: log, db: db, server: srv}, nil
}

// Run serves until an interrupt or termination signal arrives.
func (app *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app.initSignalHandler(cancel)
	app.logger.Info(ctx, "starting app", "addr", app.config.EndpointAddr)

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "server error", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}
