package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"salesjournal/internal/amqp"
	"salesjournal/internal/cli"
	kvfile "salesjournal/internal/kv/file"
	applog "salesjournal/internal/log"
	"salesjournal/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentAMQP)
	logger.Info("Starting sales-worker")

	cfg := cli.LoadAndValidateConfig(logger.Logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger.Logger)
	defer cancel()

	// The worker reads the journal directly and never publishes.
	amqpURL := cfg.AMQPURL
	cfg.AMQPURL = ""
	data := cli.OpenBackend(ctx, logger.Logger, cfg)
	defer data.Cleanup()

	replica, err := kvfile.New(cfg.MirrorPath)
	if err != nil {
		logger.Error("Failed to open mirror", "error", err, "path", cfg.MirrorPath)
		os.Exit(1)
	}

	client, err := amqp.NewClient(amqpURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	mirror := worker.NewMirrorWorker(data.Store, replica)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeSaleEvents(gctx, cfg.AMQPQueue, func(event *amqp.SaleEvent) error {
			return mirror.HandleSaleEvent(gctx, event)
		})
	})
	g.Go(func() error {
		return mirror.Run(gctx, cfg.SyncInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
