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

	"github.com/snaplink/snaplink/pkg/adapters/handler"
	"github.com/snaplink/snaplink/pkg/adapters/repository/sqlite"
	"github.com/snaplink/snaplink/pkg/cache"
	"github.com/snaplink/snaplink/pkg/config"
	"github.com/snaplink/snaplink/pkg/core/services"
	"github.com/snaplink/snaplink/pkg/shortcode"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	repo, err := sqlite.New(cfg.DatabaseURL)
	if err != nil {
		logger.Error("database init failed", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	codeCache := cache.New[string, string](cfg.CacheCapacity, cfg.CacheTTL)
	urlCache := cache.New[string, string](cfg.CacheCapacity, cfg.CacheTTL)

	generator := shortcode.NewGenerator(repo,
		shortcode.WithMaxAttempts(cfg.GenMaxAttempts),
		shortcode.WithLookupTimeout(cfg.GenLookupTimeout),
	)

	linkService := services.NewLinkService(repo, generator, codeCache, urlCache, logger)
	authService := services.NewAuthService(repo.Users())

	mux := handler.NewRouter(cfg, linkService, authService, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go runJanitor(ctx, repo, cfg.Retention, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Error("server error", "error", err)
		os.Exit(1)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// runJanitor enforces the retention policy: links older than the retention
// window are purged hourly. The store owns expiry, not the core.
func runJanitor(ctx context.Context, repo *sqlite.Repository, retention time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-retention)
			n, err := repo.DeleteExpired(ctx, cutoff)
			if err != nil {
				logger.Error("retention purge failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("retention purge", "removed", n, "cutoff", cutoff)
			}
		}
	}
}
