package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gabrielarrudexx/YBYOCA/internal/amqp"
	"github.com/gabrielarrudexx/YBYOCA/internal/auth"
	"github.com/gabrielarrudexx/YBYOCA/internal/config"
	"github.com/gabrielarrudexx/YBYOCA/internal/core"
	apphttp "github.com/gabrielarrudexx/YBYOCA/internal/http"
	"github.com/gabrielarrudexx/YBYOCA/internal/report/sheets"
	gsheet "github.com/gabrielarrudexx/YBYOCA/internal/report/sheets/google"
	"github.com/gabrielarrudexx/YBYOCA/internal/services"
	"github.com/gabrielarrudexx/YBYOCA/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// AMQP is optional for the API process: without it expenses are still
	// recorded, only the alert events are skipped.
	var amqpClient *amqp.Client
	amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, ledger events will not be published", "error", err)
		amqpClient = nil
	} else {
		defer amqpClient.Close()
	}

	var exporter sheets.ReportWriter
	if cfg.GoogleSpreadsheetID != "" {
		cli, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		exporter = cli
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	if err := seedAdminUser(context.Background(), repo, cfg); err != nil {
		logger.Error("Failed to seed admin user", "error", err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Repo:      repo,
		Ledger:    services.NewLedgerService(repo, amqpClient),
		Projects:  services.NewProjectService(repo),
		Reports:   services.NewReportService(repo),
		Exporter:  exporter,
		Auth:      auth.NewAuthenticator(cfg.JWTSecret, cfg.TokenTTL),
		UploadDir: cfg.UploadDir,
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting ybyoca server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

// seedAdminUser creates the initial architect account when no architect
// exists yet. Skipped unless ADMIN_PASSWORD is set.
func seedAdminUser(ctx context.Context, repo *storage.SQLiteRepository, cfg *config.Config) error {
	architects, err := repo.ListUsersByRole(ctx, core.RoleArchitect)
	if err != nil {
		return err
	}
	if len(architects) > 0 {
		return nil
	}
	if cfg.AdminPassword == "" {
		slog.Warn("No architect account exists and ADMIN_PASSWORD is not set - skipping seed")
		return nil
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	u, err := repo.CreateUser(ctx, core.User{
		Email:          cfg.AdminEmail,
		HashedPassword: hash,
		Role:           core.RoleArchitect,
	})
	if err != nil {
		return err
	}
	slog.Info("Seeded initial architect account", "email", u.Email)
	return nil
}
