package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wastedash/internal/audit"
	"wastedash/internal/auth"
	"wastedash/internal/backend"
	"wastedash/internal/cli"
	"wastedash/internal/config"
	"wastedash/internal/core"
	apphttp "wastedash/internal/http"
	applog "wastedash/internal/log"
	"wastedash/internal/storage"
	"wastedash/internal/store"
)

func main() {
	cli.LoadEnvFile()
	root := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(root)
	logger := applog.ForComponent(root, applog.ComponentApp)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src, err := backend.New(ctx, cfg, applog.ForComponent(root, applog.ComponentSource))
	if err != nil {
		logger.Error("Failed to initialize data source", applog.FieldError, err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	incoming, outgoing, err := src.Load(ctx)
	if err != nil {
		logger.Error("Failed to load record sheets", applog.FieldError, err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	st, err := store.Load(incoming, outgoing)
	if err != nil {
		// A malformed sheet is fatal: refuse to serve reports over data
		// that failed normalization.
		var schemaErr *core.SchemaError
		if errors.As(err, &schemaErr) {
			logger.Error("Record sheet failed schema validation",
				applog.FieldError, err,
				"sheet", schemaErr.Sheet,
				"column", schemaErr.Column,
				"row", schemaErr.Row)
		} else {
			logger.Error("Failed to build record store", applog.FieldError, err)
		}
		os.Exit(1)
	}
	logger.Info("Record store loaded",
		"incoming_records", len(st.Incoming().Records),
		"outgoing_records", len(st.Outgoing().Records),
		"customers", len(st.Customers()),
		"waste_types", len(st.WasteTypes()))

	repo := cli.InitSQLite(root, cfg.SQLiteDBPath)
	defer repo.Close()

	if err := seedUser(ctx, repo, cfg); err != nil {
		logger.Error("Failed to seed user account", applog.FieldError, err)
		os.Exit(1)
	}

	authSvc := auth.NewService(repo, cfg.JWTSecret, cfg.AccessTokenTTL)

	var auditClient *audit.Client
	if cfg.AMQPURL != "" {
		auditClient, err = audit.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect audit broker", applog.FieldError, err)
			os.Exit(1)
		}
		defer auditClient.Close()
		logger.Info("Audit trail enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	srv := apphttp.NewServer(":"+cfg.Port, st, authSvc, auditClient)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting wastedash server", "port", cfg.Port, applog.FieldBackend, cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

// seedUser provisions the account named in the environment. It only runs
// when the database has no accounts yet, so a redeploy never resets a
// changed password.
func seedUser(ctx context.Context, repo *storage.SQLiteRepository, cfg *config.Config) error {
	if cfg.SeedUsername == "" {
		return nil
	}
	n, err := repo.CountUsers(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	hash, err := auth.HashPassword(cfg.SeedPassword)
	if err != nil {
		return err
	}
	return repo.UpsertUser(ctx, cfg.SeedUsername, hash)
}
