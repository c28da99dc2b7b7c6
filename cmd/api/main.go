package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanwahyu/rootcause/internal/application"
	appaigen "github.com/bryanwahyu/rootcause/internal/application/aigen"
	appanalyses "github.com/bryanwahyu/rootcause/internal/application/analyses"
	appreports "github.com/bryanwahyu/rootcause/internal/application/reports"
	"github.com/bryanwahyu/rootcause/internal/config"
	"github.com/bryanwahyu/rootcause/internal/domain/auth"
	aiopenai "github.com/bryanwahyu/rootcause/internal/infra/ai/openai"
	"github.com/bryanwahyu/rootcause/internal/infra/db/mysql"
	"github.com/bryanwahyu/rootcause/internal/infra/db/postgres"
	"github.com/bryanwahyu/rootcause/internal/infra/httpserver"
	"github.com/bryanwahyu/rootcause/internal/infra/storage"
	"github.com/bryanwahyu/rootcause/internal/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("load config", "path", cfgPath, "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var db *sql.DB
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgres.Connect(ctx, cfg.PostgresDSN())
		if err == nil {
			if dir := os.Getenv("MIGRATIONS_DIR"); dir != "" {
				err = postgres.RunMigrations(cfg.PostgresDSN(), dir)
			}
		}
	default:
		db, err = mysql.Connect(ctx, cfg.MySQLDSN())
	}
	if err != nil {
		slog.Error("database init", "driver", cfg.Database.Driver, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	store, err := storage.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		slog.Error("minio init", "err", err)
		os.Exit(1)
	}

	var (
		analysisRepo = repoFor(cfg.Database.Driver, db)
		outputRepo   = outputRepoFor(cfg.Database.Driver, db)
		taskRepo     = taskRepoFor(cfg.Database.Driver, db)
		auditRepo    = auditRepoFor(cfg.Database.Driver, db)
		directory    = directoryFor(cfg.Database.Driver, db)
	)

	guard := auth.NewGuard(directory)
	clock := application.SystemClock{}
	aiClient := aiopenai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)

	analysesSvc := &appanalyses.Service{
		Repo:  analysisRepo,
		Tasks: taskRepo,
		Guard: guard,
		Audit: auditRepo,
		Clock: clock,
	}
	aigenSvc := &appaigen.Service{
		Client:   aiClient,
		Analyses: analysisRepo,
		Outputs:  outputRepo,
		Guard:    guard,
		Audit:    auditRepo,
		Clock:    clock,
		Timeout:  cfg.AITimeout(),
	}
	reportsSvc := &appreports.Service{
		Analyses:  analysisRepo,
		Outputs:   outputRepo,
		Guard:     guard,
		Audit:     auditRepo,
		Artifacts: store,
		Clock:     clock,
	}

	health := middleware.HealthHandler(map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
	})

	handler := httpserver.NewRouter(analysesSvc, aigenSvc, reportsSvc, health)
	handler = middleware.ActorAuth(cfg.Auth.ServiceToken)(handler)
	handler = middleware.NewRateLimiter(60, 10).Limit(handler)
	handler = middleware.Logging(handler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "err", err)
	}
	slog.Info("server stopped")
}
