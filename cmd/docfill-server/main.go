// Command docfill-server serves the fill, preview and section editor API in
// front of the document backend.
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

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/goliatone/go-docfill/internal/config"
	"github.com/goliatone/go-docfill/internal/drafts"
	"github.com/goliatone/go-docfill/internal/logging"
	"github.com/goliatone/go-docfill/internal/metrics"
	"github.com/goliatone/go-docfill/internal/themes"
	"github.com/goliatone/go-docfill/pkg/apiclient"
	"github.com/goliatone/go-docfill/pkg/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	fs := pflag.NewFlagSet("docfill-server", pflag.ExitOnError)
	config.Flags(fs)
	origins := fs.StringSlice("cors-origin", nil, "allowed CORS origins")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "docfill-server:", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintln(os.Stderr, "docfill-server:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *origins, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, origins []string, logger *zap.Logger) error {
	m := metrics.New()

	client, err := apiclient.New(cfg.Backend.BaseURL,
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.Backend.Timeout}),
		apiclient.WithToken(cfg.Backend.Token),
		apiclient.WithRateLimit(cfg.Backend.RatePerSecond, cfg.Backend.Burst),
		apiclient.WithBreaker(cfg.Backend.BreakerFailures, cfg.Backend.BreakerCooldown),
		apiclient.WithLogger(logger),
		apiclient.WithObserver(m.ObserveBackend),
	)
	if err != nil {
		return err
	}

	store, err := drafts.Open(cfg.Storage.SQLitePath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close draft store", zap.Error(err))
		}
	}()

	catalog, err := themes.NewCatalog()
	if err != nil {
		return err
	}
	palette, err := catalog.Palette(cfg.Theme.Name, cfg.Theme.Variant)
	if err != nil {
		return err
	}

	srv, err := server.New(client,
		server.WithLogger(logger),
		server.WithDrafts(store),
		server.WithObserver(m),
		server.WithMetricsHandler(m.Handler()),
		server.WithPalette(palette),
		server.WithLocale(cfg.Preview.Locale),
		server.WithEditorTTL(cfg.Server.EditorTTL),
		server.WithAllowedOrigins(origins...),
	)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr), zap.String("backend", cfg.Backend.BaseURL))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
