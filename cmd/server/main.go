package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/nadmax/pulse/internal/analytics"
	"github.com/nadmax/pulse/internal/api"
	"github.com/nadmax/pulse/internal/cache"
	"github.com/nadmax/pulse/internal/config"
	"github.com/nadmax/pulse/internal/logging"
	"github.com/nadmax/pulse/internal/middleware"
	"github.com/nadmax/pulse/internal/notify"
	"github.com/nadmax/pulse/internal/pdf"
	"github.com/nadmax/pulse/internal/pipeline"
	"github.com/nadmax/pulse/internal/queue"
	"github.com/nadmax/pulse/internal/repository/postgres"
	"github.com/nadmax/pulse/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer closeDB(db, logger)

	reports := postgres.NewReportRepository(db, logger)

	store, reportCache, err := buildStores(ctx, cfg, logger)
	if err != nil {
		return err
	}

	q := queue.New(store, logger, queue.Options{
		Workers:    cfg.QueueWorkers,
		JobTimeout: cfg.QueueJobTimeout,
	})
	defer func() {
		if err := q.Close(); err != nil {
			logger.Error("failed to close queue", zap.Error(err))
		}
	}()

	files, err := storage.NewFileStore(cfg.ReportsDir)
	if err != nil {
		return err
	}

	svc := pipeline.NewService(pipeline.Deps{
		Reports:    reports,
		Analytics:  analytics.NewSQLProvider(db, logger),
		Renderer:   pdf.NewRenderer(browserRenderer(cfg, logger), logger),
		Files:      files,
		Mailer:     buildMailer(cfg, reports, logger),
		Cache:      reportCache,
		Jobs:       q,
		Logger:     logger,
		StaleAfter: cfg.QueueJobTimeout,
	}, cfg.ReportCacheTTL)
	svc.RegisterHandlers(q)

	go startMetricsCollector(ctx, q, reportCache, logger)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           middleware.MetricsMiddleware(api.NewAPI(svc, q, logger)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.Int("workers", cfg.QueueWorkers),
			zap.Bool("redis", cfg.RedisAddr != ""))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildStores picks Redis for the job store and report-list cache when REDIS_ADDR is set.
func buildStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (queue.Store, cache.Cache, error) {
	if cfg.RedisAddr == "" {
		return queue.NewMemoryStore(cfg.QueueMaxRecords), cache.NewMemoryCache(), nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}

	logger.Info("using redis job store and cache", zap.String("addr", cfg.RedisAddr))
	return queue.NewRedisStore(client, cfg.QueueRetention), cache.NewRedisCache(client), nil
}

func browserRenderer(cfg *config.Config, logger *zap.Logger) pdf.AdvancedRenderer {
	chrome, err := pdf.NewChromeRenderer(cfg.ChromePath, cfg.PDFRenderTimeout)
	if err != nil {
		logger.Warn("headless browser unavailable, using built-in PDF writer", zap.Error(err))
		return nil
	}

	logger.Info("headless browser found", zap.String("binary", chrome.Binary()))
	return chrome
}

func buildMailer(cfg *config.Config, users notify.UserDirectory, logger *zap.Logger) notify.Mailer {
	if cfg.SendGridAPIKey == "" {
		logger.Warn("SENDGRID_API_KEY not set, report emails will only be logged")
		return notify.NewLogMailer(logger)
	}

	return notify.NewSendGridMailer(notify.Config{
		APIKey:      cfg.SendGridAPIKey,
		FromName:    cfg.FromName,
		FromAddress: cfg.FromAddress,
		BaseURL:     cfg.AppBaseURL,
	}, users, logger)
}

func closeDB(db *sql.DB, logger *zap.Logger) {
	if err := db.Close(); err != nil {
		logger.Error("failed to close database", zap.Error(err))
	}
}
