package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/taskmanager-dev/taskmanager/db"
	"github.com/taskmanager-dev/taskmanager/internal/auth"
	"github.com/taskmanager-dev/taskmanager/internal/config"
	"github.com/taskmanager-dev/taskmanager/internal/handlers"
	"github.com/taskmanager-dev/taskmanager/internal/live"
	"github.com/taskmanager-dev/taskmanager/internal/router"
	"github.com/taskmanager-dev/taskmanager/internal/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		addr        string
		migrateOnly bool
	)

	pflag.StringVar(&configPath, "config", "", "path to a YAML config file")
	pflag.StringVar(&addr, "addr", "", "listen address, overrides config and PORT")
	pflag.BoolVar(&migrateOnly, "migrate-only", false, "migrate the database schema and exit")
	pflag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if addr != "" {
		cfg.Addr = addr
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	conn, err := db.Open(cfg.Database.Driver, cfg.Database.DSN, logger)
	if err != nil {
		return err
	}

	if err := db.Migrate(conn); err != nil {
		return err
	}

	if migrateOnly {
		logger.Info("database migrated", "driver", cfg.Database.Driver)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := services.New(conn)

	if cfg.Admin.Username != "" {
		created, err := svc.Credentials.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password, cfg.Admin.Name, cfg.Admin.Email)
		if err != nil {
			return fmt.Errorf("seed admin account: %w", err)
		}
		if created {
			logger.Info("admin account created", "username", cfg.Admin.Username)
		}
	}

	issuer, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	notifier := services.NewNotifier(nil, logger)

	h := handlers.New(handlers.Options{
		Services:       svc,
		Issuer:         issuer,
		Hub:            live.NewHub(logger),
		Notifier:       notifier,
		Cookie:         handlers.CookieConfig{Domain: cfg.Auth.CookieDomain, Secure: cfg.Auth.CookieSecure},
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})

	engine, err := router.NewRouter(router.Options{
		Handler:        h,
		Issuer:         issuer,
		Credentials:    svc.Credentials,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)

	go func() {
		logger.Info("listening", "addr", cfg.Addr, "driver", cfg.Database.Driver)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	notifier.Wait()

	if sqlDB, err := conn.DB(); err == nil {
		sqlDB.Close()
	}

	return nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level

	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	options := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stderr, options))
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, options))
}
