package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var configPath = flag.String("config", "", "path to a YAML config file (TRAIL_* env vars override it)")

func main() {
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, logger *zap.Logger) error {
	var raw RawStore
	if cfg.Redis.Addr != "" {
		client := newRedisClient(cfg.Redis)
		defer func() { _ = client.Close() }()
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := client.Ping(pctx).Err()
		cancel()
		if err != nil {
			logger.Warn("redis unreachable, shared feed cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			raw = NewRedisRawStore(client)
		}
	}

	source := cfg.FeedSource()
	loader := NewLoader(newFeedFetcher(cfg.Source.Timeout), NewDatasetCache(cfg.Cache.Size, cfg.Cache.TTL), raw, cfg.Cache.TTL, cfg.Source.Columns, logger)
	dash := NewDashboard(loader, source, cfg.Map.Style, logger)
	hub := newWSHub(dash, logger)
	api := newDashboardAPI(dash, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           newRouter(api, hub, cfg.Server, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("source", source.Locator))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if cfg.Refresh.MinInterval > 0 {
		p := newPoller(loader, source, hub, cfg.Refresh.MinInterval, cfg.Source.Timeout, logger)
		g.Go(func() error { return p.run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown initiated")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		logger.Info("http server shut down")
		return nil
	})
	return g.Wait()
}
