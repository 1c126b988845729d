package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"tally/internal/amqp"
	"tally/internal/cli"
	"tally/internal/log"
	"tally/internal/services"
	"tally/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting import-worker")

	store := cli.OpenStore(logger, cfg.SQLiteDBPath)
	defer store.Close()

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the import worker")
		os.Exit(1)
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	reconciler := services.NewReconcileService(store)
	importWorker := worker.NewImportWorker(reconciler, cfg.ImportMaxRows)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeImportBatches(gctx, func(msg *amqp.ImportBatchMessage) error {
			return importWorker.HandleImportBatch(gctx, msg)
		})
	})

	logger.Info("Consuming import batches",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"max_rows", cfg.ImportMaxRows)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Import worker stopped")
}
