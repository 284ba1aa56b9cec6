// cmd/server/main.go
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/outreach-pipeline/internal/config"
	"github.com/unclebandit/outreach-pipeline/internal/db"
	"github.com/unclebandit/outreach-pipeline/internal/logging"
	"github.com/unclebandit/outreach-pipeline/internal/provider"
	"github.com/unclebandit/outreach-pipeline/internal/queue"
	"github.com/unclebandit/outreach-pipeline/internal/repository"
)

// stores groups the repository implementations the server runs on.
type stores struct {
	campaigns     repository.CampaignRepositoryInterface
	organizations repository.OrganizationRepositoryInterface
	delivery      repository.DeliveryStateStore
}

func postgresStores(conn *sql.DB) stores {
	return stores{
		campaigns:     &repository.CampaignRepository{DB: conn},
		organizations: &repository.OrganizationRepository{DB: conn},
		delivery:      &repository.MessageRepository{DB: conn},
	}
}

func memoryStores(mem *repository.MemoryStore) stores {
	return stores{campaigns: mem, organizations: mem, delivery: mem}
}

func main() {
	boot, _ := zap.NewProduction()
	cfg := config.Load(boot)

	logger, err := logging.New("outreach-server", cfg.LogLevel)
	if err != nil {
		boot.Fatal("logger", zap.Error(err))
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st stores
	if cfg.DB.Enabled() {
		conn, err := db.Open(ctx, cfg.DB, logger)
		if err != nil {
			logger.Fatal("database unavailable", zap.Error(err))
		}
		defer conn.Close()
		if err := db.Migrate(ctx, conn); err != nil {
			logger.Fatal("migration failed", zap.Error(err))
		}
		st = postgresStores(conn)
	} else {
		logger.Warn("DB_HOST not set, using in-memory store")
		st = memoryStores(repository.NewMemoryStore())
	}

	registry := provider.NewRegistry(cfg.Providers, cfg.Dispatch.RequestTimeout)
	logger.Info("providers resolved", zap.Any("configured", registry.Summary()))

	var q queue.Queue
	if cfg.AMQPURL != "" {
		aq, err := queue.NewAMQPQueue(cfg.AMQPURL, logger)
		if err != nil {
			logger.Fatal("queue unavailable", zap.Error(err))
		}
		q = aq
	} else {
		q = queue.NewInMemoryQueue(logger)
	}
	defer q.Close()

	app, err := newApp(cfg, st, registry, q, logger)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("server running", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
