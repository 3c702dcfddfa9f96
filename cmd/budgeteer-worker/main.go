package main

import (
	"context"
	"errors"
	"os"
	"time"

	"budgeteer/internal/amqp"
	"budgeteer/internal/cli"
	"budgeteer/internal/log"
	"budgeteer/internal/services"
	"budgeteer/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting budgeteer-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL must be set for the worker")
		os.Exit(1)
	}

	service, cleanup, err := services.NewFromConfig(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to assemble report service", log.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		cleanup()
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, func() {
		amqpClient.Close()
		cleanup()
	})

	reportWorker := worker.NewReportWorker(service, logger)

	err = amqpClient.ConsumeReportRequests(ctx, func(msg *amqp.ReportRequestMessage) error {
		return reportWorker.HandleRequest(ctx, msg)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped", log.FieldError, err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("budgeteer-worker stopped")
}
