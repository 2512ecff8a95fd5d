package main

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"salesjournal/internal/cli"
	apphttp "salesjournal/internal/http"
	"salesjournal/internal/journal"
	applog "salesjournal/internal/log"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger.Logger)

	ctx, cancel := cli.SignalContext(logger.Logger)
	defer cancel()

	cat := cli.LoadCatalog(logger.Logger, cfg.CatalogPath)
	data := cli.OpenBackend(ctx, logger.Logger, cfg)
	defer func() {
		if err := data.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	opts := []journal.Option{journal.WithNotice(journal.NewNotice(cfg.NoticeDuration))}
	if data.Publisher != nil {
		opts = append(opts, journal.WithPublisher(data.Publisher))
	}
	svc := journal.NewService(data.Store, cat, opts...)

	srv := apphttp.NewServer(":"+cfg.Port, svc,
		apphttp.WithLogger(logger.WithComponent(applog.ComponentHTTP)),
		apphttp.WithReadiness(data.Store),
		apphttp.WithRateLimit(cfg.RateLimitPerMinute),
		apphttp.WithDashboardCacheTTL(cfg.DashboardCacheTTL),
	)
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting sales journal server", "port", cfg.Port, "backend", cfg.DataBackend, "events", data.Publisher != nil)
		return srv.ListenAndServe()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
