package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/storefront/internal/fakeapi"
	"github.com/aussiebroadwan/storefront/pkg/slogx"
)

// RunFakeAPI serves a seeded in-memory storefront API on cfg.FakeAPIAddr
// under /api until ctx is cancelled, then shuts down gracefully.
func RunFakeAPI(ctx context.Context, cfg Config) error {
	logger := slogx.New(slogx.Config{
		Service: "storefront-fake-api",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	api, err := fakeapi.New(fakeapi.Config{Logger: logger})
	if err != nil {
		return fmt.Errorf("failed to create fake api: %w", err)
	}
	if err := api.SeedDemo(); err != nil {
		return fmt.Errorf("failed to seed fake api: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", api))

	server := &http.Server{
		Addr:              cfg.FakeAPIAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("fake api starting", "addr", cfg.FakeAPIAddr, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	return shutdown(server, cfg.ShutdownGracePeriod, logger)
}

func shutdown(server *http.Server, grace time.Duration, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful server shutdown failed", "error", err)
		if err := server.Close(); err != nil {
			logger.Error("error closing server", "error", err)
		}
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("fake api stopped")
	return nil
}
