// Command server is the physlab API server. It loads configuration, applies
// database migrations, wires the stores and services together and serves the
// HTTP API until it receives a shutdown signal.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/physlab/physlab-api/internal/api"
	apimiddleware "github.com/physlab/physlab-api/internal/api/middleware"
	"github.com/physlab/physlab-api/internal/config"
	"github.com/physlab/physlab-api/internal/generation"
	"github.com/physlab/physlab-api/internal/platform/gemini"
	"github.com/physlab/physlab-api/internal/platform/logger"
	"github.com/physlab/physlab-api/internal/platform/postgres"
	"github.com/physlab/physlab-api/internal/service/achievement"
	"github.com/physlab/physlab-api/internal/service/auth"
	"github.com/physlab/physlab-api/internal/service/progress"
	"github.com/physlab/physlab-api/internal/service/report"
	"github.com/physlab/physlab-api/internal/service/session"
	"github.com/physlab/physlab-api/internal/service/stats"
	"github.com/physlab/physlab-api/internal/service/user"
)

// application bundles the long-lived dependencies of the server so the
// router and shutdown paths can share them.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	authHandler        *api.AuthHandler
	userHandler        *api.UserHandler
	simulationHandler  *api.SimulationHandler
	sessionHandler     *api.SessionHandler
	achievementHandler *api.AchievementHandler
	progressHandler    *api.ProgressHandler
	reportHandler      *api.ReportHandler

	authMiddleware *apimiddleware.AuthMiddleware
	roleMiddleware *apimiddleware.RoleMiddleware
}

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	db, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database connection", slog.String("error", err.Error()))
		}
	}()

	if err := applyMigrations(db, log); err != nil {
		return err
	}

	app, err := newApplication(context.Background(), cfg, log, db)
	if err != nil {
		return err
	}

	return app.startHTTPServer(context.Background(), app.setupRouter())
}

// newApplication wires the stores, services and handlers.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	log *slog.Logger,
	db *sql.DB,
) (*application, error) {
	sessionStore := postgres.NewPostgresSessionStore(db, log)
	achievementStore := postgres.NewPostgresAchievementStore(db, log)
	userStore := postgres.NewPostgresUserStore(db, log)
	reportStore := postgres.NewPostgresLabReportStore(db, log)
	progressStore := postgres.NewPostgresProgressStore(db, log)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}
	authService := auth.NewService(
		userStore,
		jwtService,
		auth.NewBcryptHasher(0),
		auth.NewBcryptVerifier(),
		log,
	)

	engine := achievement.NewEngine(achievementStore, sessionStore, log)
	manager := session.NewManager(db, sessionStore, engine, log)
	aggregator := stats.NewAggregator(sessionStore, log)
	userService := user.NewService(userStore, auth.NewBcryptHasher(0), log)
	progressService := progress.NewService(progressStore, log)

	reportService := report.NewService(reportStore, sessionStore, draftGenerator(ctx, cfg, log), log)

	return &application{
		config:             cfg,
		logger:             log,
		db:                 db,
		authHandler:        api.NewAuthHandler(authService),
		userHandler:        api.NewUserHandler(userService),
		simulationHandler:  api.NewSimulationHandler(),
		sessionHandler:     api.NewSessionHandler(manager, aggregator),
		achievementHandler: api.NewAchievementHandler(engine),
		progressHandler:    api.NewProgressHandler(progressService),
		reportHandler:      api.NewReportHandler(reportService),
		authMiddleware:     apimiddleware.NewAuthMiddleware(jwtService),
		roleMiddleware:     apimiddleware.NewRoleMiddleware(userStore),
	}, nil
}

// draftGenerator selects the lab report draft generator. Without a Gemini API
// key the server falls back to deterministic template drafts.
func draftGenerator(ctx context.Context, cfg *config.Config, log *slog.Logger) generation.Generator {
	if cfg.Gemini.APIKey == "" {
		log.Info("no Gemini API key configured, using template draft generator")
		return generation.NewTemplateGenerator()
	}

	gen, err := gemini.NewGenerator(ctx, log, cfg.Gemini)
	if err != nil {
		log.Warn("failed to create Gemini generator, using template draft generator",
			slog.String("error", err.Error()))
		return generation.NewTemplateGenerator()
	}
	return gen
}
