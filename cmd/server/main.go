package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/storefront/internal/api"
	"github.com/lalith-99/storefront/internal/app"
	"github.com/lalith-99/storefront/internal/config"
	"github.com/lalith-99/storefront/internal/observ"
	"github.com/lalith-99/storefront/internal/onboarding"
	"github.com/lalith-99/storefront/internal/profile"
	"github.com/lalith-99/storefront/internal/storefront"
	"github.com/lalith-99/storefront/internal/team"
	"github.com/lalith-99/storefront/internal/tenancy"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ---------------------------------------------------------------
	// 1. Config and logger
	// ---------------------------------------------------------------
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// ---------------------------------------------------------------
	// 2. Backends
	// ---------------------------------------------------------------
	stores, err := app.Open(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer stores.Close()

	// ---------------------------------------------------------------
	// 3. Services
	// ---------------------------------------------------------------
	provider := app.NewIdentity(stores, cfg, logger)
	registry := tenancy.NewRegistry(
		tenancy.NewResolver(stores.Tenants, stores.Memberships),
		provider,
		stores.Selection,
		logger,
	)

	router := api.NewRouter(api.Deps{
		Identity:   provider,
		Registry:   registry,
		Profiles:   profile.NewAccessor(stores.Profiles, logger),
		Team:       team.NewManager(stores.Memberships, stores.Profiles, logger),
		Onboarding: onboarding.NewService(stores.Tenants, logger),
		Catalog:    storefront.NewCatalog(stores.Tenants, stores.Products, stores.Leads, cfg.WhatsAppBaseURL, logger),
		Products:   stores.Products,
		Leads:      stores.Leads,
		Health:     stores.Health,
		Logger:     logger,
	})

	// ---------------------------------------------------------------
	// 4. Serve until SIGINT/SIGTERM
	// ---------------------------------------------------------------
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting storefront",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("store_backend", cfg.StoreBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped", zap.Int("live_sessions", registry.Len()))
	return nil
}
