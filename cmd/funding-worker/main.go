package main

import (
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"tally/internal/cli"
	"tally/internal/export/factory"
	"tally/internal/log"
	"tally/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentFunding)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting funding-worker", "cron_spec", cfg.FundingCronSpec)

	store := cli.OpenStore(logger, cfg.SQLiteDBPath)
	defer store.Close()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	exporter, err := factory.NewWriterFromConfig(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize summary export", log.FieldError, err)
		os.Exit(1)
	}

	fundingWorker := worker.NewFundingWorker(store, exporter)

	// Catch-up on startup covers fundings missed while the worker was down.
	if funded, err := fundingWorker.RunCurrentMonth(ctx); err != nil {
		logger.Error("Startup funding pass failed", log.FieldError, err)
	} else {
		logger.Info("Startup funding pass complete", log.FieldFunded, funded)
	}

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.FundingCronSpec, func() {
		if funded, err := fundingWorker.RunCurrentMonth(ctx); err != nil {
			logger.Error("Scheduled funding pass failed", log.FieldError, err)
		} else {
			logger.Info("Scheduled funding pass complete", log.FieldFunded, funded)
		}
	})
	if err != nil {
		logger.Error("Invalid funding cron spec", log.FieldError, err, "cron_spec", cfg.FundingCronSpec)
		os.Exit(1)
	}
	scheduler.Start()

	cli.WaitForShutdown(ctx, done)

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	logger.Info("Funding worker stopped")
}
