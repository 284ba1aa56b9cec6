package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/unclebandit/outreach-pipeline/internal/channel"
	"github.com/unclebandit/outreach-pipeline/internal/config"
	"github.com/unclebandit/outreach-pipeline/internal/db"
	"github.com/unclebandit/outreach-pipeline/internal/logging"
	"github.com/unclebandit/outreach-pipeline/internal/provider"
	"github.com/unclebandit/outreach-pipeline/internal/queue"
	"github.com/unclebandit/outreach-pipeline/internal/repository"
	"github.com/unclebandit/outreach-pipeline/internal/service"
)

// The worker drains queued retries from RabbitMQ. It needs a database: the
// in-memory store would not be shared with the server.
func main() {
	boot, _ := zap.NewProduction()
	cfg := config.Load(boot)

	logger, err := logging.New("outreach-worker", cfg.LogLevel)
	if err != nil {
		boot.Fatal("logger", zap.Error(err))
	}
	defer logger.Sync()

	if !cfg.DB.Enabled() || cfg.AMQPURL == "" {
		logger.Fatal("worker needs DB_HOST and AMQP_URL")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.DB, logger)
	if err != nil {
		logger.Fatal("database unavailable", zap.Error(err))
	}
	defer conn.Close()

	q, err := queue.NewAMQPQueue(cfg.AMQPURL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer q.Close()

	registry := provider.NewRegistry(cfg.Providers, cfg.Dispatch.RequestTimeout)
	dispatcher := channel.NewDispatcher(registry, logger, cfg.Dispatch.RequestTimeout)
	retryService := service.NewRetryService(
		&repository.CampaignRepository{DB: conn},
		&repository.MessageRepository{DB: conn},
		dispatcher,
		logger,
		cfg.Dispatch.Workers,
	)

	if err := run(ctx, q, retryService, logger); err != nil {
		logger.Fatal("worker stopped", zap.Error(err))
	}
}

// run subscribes to retry jobs and blocks until ctx is cancelled.
func run(ctx context.Context, q queue.Queue, retrier queue.Retrier, logger *zap.Logger) error {
	if err := queue.StartRetrySubscriber(q, retrier, logger); err != nil {
		return err
	}
	logger.Info("Worker running, waiting for messages...", zap.String("queue", queue.RetryTopic))
	<-ctx.Done()
	logger.Info("worker shutting down")
	return nil
}
