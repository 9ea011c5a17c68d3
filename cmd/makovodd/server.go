package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/time/rate"
	_ "modernc.org/sqlite"

	"github.com/zetlaw/mako-vod/internal/addon"
	"github.com/zetlaw/mako-vod/internal/config"
	"github.com/zetlaw/mako-vod/internal/fetch"
	"github.com/zetlaw/mako-vod/internal/queue"
	"github.com/zetlaw/mako-vod/internal/resolver"
	"github.com/zetlaw/mako-vod/internal/store"
	"github.com/zetlaw/mako-vod/internal/vod"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func writeDefaultConfig(path string) error {
	return config.WriteDefault(path)
}

func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		discovered, err := config.Discover()
		if err != nil {
			return nil, err
		}
		configPath = discovered
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, &config.ConfigError{Path: configPath, Errors: errs}
	}
	return cfg, nil
}

func runServer(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// Create logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	// Ensure database directory exists
	dbDir := filepath.Dir(cfg.Cache.Path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}

	// Open database
	db, err := sql.Open("sqlite", cfg.Cache.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { _ = db.Close() }()

	blobs, err := store.NewSQLiteBlobStore(db)
	if err != nil {
		return fmt.Errorf("blob store: %w", err)
	}

	// === Portal client ===
	fetchOpts := []fetch.Option{
		fetch.WithHTTPClient(&http.Client{Timeout: cfg.Portal.Timeout}),
		fetch.WithLimiter(rate.NewLimiter(rate.Every(cfg.Portal.RequestInterval), 2)),
		fetch.WithLogger(logger),
	}
	if cfg.Portal.UserAgent != "" {
		fetchOpts = append(fetchOpts, fetch.WithUserAgent(cfg.Portal.UserAgent))
	}
	fetcher := fetch.New(fetchOpts...)

	// === Cache + refresh queue ===
	st := store.New(blobs, fetcher, logger,
		store.WithTTL(time.Duration(cfg.Cache.TTLDays)*24*time.Hour),
		store.WithKeptVersions(cfg.Cache.KeptVersions),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := st.Load(ctx); err != nil {
		return fmt.Errorf("load cache: %w", err)
	}

	q := queue.New(st, logger,
		queue.WithBatchSize(cfg.Queue.BatchSize),
		queue.WithDrainDelay(cfg.Queue.DrainDelay),
		queue.WithMaxRetries(cfg.Queue.MaxRetries),
	)
	st.SetQueue(q)
	go q.Run(ctx)

	// === Services ===
	var resolverOpts []resolver.Option
	var vodOpts []vod.Option
	if cfg.Portal.BaseURL != "" {
		resolverOpts = append(resolverOpts, resolver.WithBaseURL(cfg.Portal.BaseURL))
		vodOpts = append(vodOpts, vod.WithBaseURL(cfg.Portal.BaseURL))
	}
	res := resolver.New(fetcher, logger, resolverOpts...)
	svc := vod.New(st, res, fetcher, logger, vodOpts...)

	// === HTTP Setup ===
	mux := http.NewServeMux()
	addon.New(svc, logger).RegisterRoutes(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("server starting",
		"addr", addr,
		"database", cfg.Cache.Path,
		"portal", cfg.Portal.BaseURL,
		"ttl_days", cfg.Cache.TTLDays,
		"log_level", cfg.Server.LogLevel,
	)

	srv := &http.Server{Addr: addr, Handler: addon.LogRequests(mux, logger)}

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig.String())

	// Stop the refresh queue
	cancel()

	// Graceful HTTP shutdown with 30s timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
