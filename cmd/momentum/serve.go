package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/momentum/internal/adapters/http/api"
	service "github.com/okian/momentum/internal/app"
	"github.com/okian/momentum/internal/config"
	"github.com/okian/momentum/internal/domain/scoring"
	"github.com/okian/momentum/pkg/logger"
	"github.com/okian/momentum/pkg/metrics"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func serve(ctx context.Context, cmd *cli.Command) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadFile(ctx, cmd.String("config"))
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := service.New(serviceOptions(cfg, log)...)
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewServer(svc, api.WithMaxLimit(cfg.MaxLeaderboardLimit), api.WithLogger(log.Named("api"))).Router(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(ctx, "shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		runServiceMetricsUpdater(gctx, svc)
		return nil
	})

	err = g.Wait()
	log.Info(ctx, "server stopped")
	return err
}

// serviceOptions maps the loaded configuration onto service options.
func serviceOptions(cfg *config.Config, log logger.Logger) []service.Option {
	return []service.Option{
		service.WithLogger(log.Named("service")),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.EventQueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithHistoryLimit(cfg.HistoryLimit),
		service.WithAlpha(cfg.EMAAlpha),
		service.WithWindow(cfg.ZScoreWindow),
		service.WithWeights(scoring.Weights{
			Velocity:     cfg.Weights.Velocity,
			Acceleration: cfg.Weights.Acceleration,
			Z:            cfg.Weights.Z,
			Streak:       cfg.Weights.Streak,
		}),
		service.WithLocation(cfg.Location()),
		service.WithComputeConcurrency(cfg.ComputeConcurrency),
		service.WithRecomputeInterval(cfg.RecomputeInterval),
		service.WithMaxSampleAge(time.Duration(cfg.MaxSampleAgeDays) * 24 * time.Hour),
		service.WithMaxFutureSkew(cfg.MaxFutureSkew),
	}
}

// runServiceMetricsUpdater refreshes queue gauges until ctx is done.
func runServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc.GetStats())
		}
	}
}

func updateServiceMetrics(stats map[string]any) {
	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
	if domains, ok := stats["domains"].(int); ok {
		metrics.UpdateTrackedDomains(domains)
	}
}
