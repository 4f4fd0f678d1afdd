package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	apihttp "teleplay/internal/api/http"
	"teleplay/internal/app"
	"teleplay/internal/domain/ports"
	"teleplay/internal/downloads"
	"teleplay/internal/history"
	"teleplay/internal/metrics"
	"teleplay/internal/remote"
	"teleplay/internal/session"
	"teleplay/internal/storage/bolt"
	"teleplay/internal/storage/memory"
	"teleplay/internal/telemetry"
	"teleplay/internal/transfer"
	"teleplay/internal/usecase"
)

func main() {
	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), "teleplay-companion")
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", "teleplay-companion"),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.String("dataDir", cfg.DataDir),
		slog.String("statePath", cfg.StatePath),
		slog.String("backendUrl", cfg.BackendURL),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var kv ports.KeyValue
	if cfg.StatePath == "" {
		logger.Warn("no state path configured, state will not survive restarts")
		kv = memory.NewStore()
	} else {
		store, err := bolt.Open(cfg.StatePath)
		if err != nil {
			logger.Error("state store open failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		kv = store
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("data dir create failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	historyStore := history.NewStore(kv, logger)
	downloadIndex := downloads.NewIndex(kv, logger)
	credentialStore := session.NewStore(kv)

	catalog := remote.NewClient(cfg.BackendURL,
		remote.WithLogger(logger),
		remote.WithTimeout(cfg.BackendTimeout),
		remote.WithRateLimit(cfg.BackendRPS, cfg.BackendBurst),
		remote.WithSearchCache(cfg.SearchCacheTTL, cfg.SearchCacheMaxEntries),
	)

	fetcher := transfer.NewHTTPFetcher(transfer.DefaultClient())
	controller := transfer.NewController(fetcher, downloadIndex, cfg.DataDir, logger)

	openUC := usecase.OpenMedia{
		Catalog:   catalog,
		Downloads: downloadIndex,
		History:   historyStore,
		Logger:    logger,
	}

	handler := apihttp.NewServer(
		apihttp.WithLogger(logger),
		apihttp.WithHistory(historyStore),
		apihttp.WithDownloads(downloadIndex),
		apihttp.WithTransfers(controller),
		apihttp.WithCatalog(catalog),
		apihttp.WithCredentials(credentialStore),
		apihttp.WithOpenMedia(openUC),
		apihttp.WithDataDir(cfg.DataDir),
		apihttp.WithAllowedOrigins(cfg.CORSAllowedOrigins),
	)
	controller.OnState = handler.BroadcastTransferState

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("server started", slog.String("addr", cfg.HTTPAddr))

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Cancel any in-flight download so the fetcher releases its file handle,
	// then wait for the session goroutine to finish.
	if err := controller.Cancel(); err == nil {
		controller.Wait()
	}

	handler.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown error", slog.String("error", err.Error()))
	}
	if err := kv.Close(); err != nil {
		logger.Warn("state store close error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
