//cmd/seeder/main.go
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/unclebandit/outreach-pipeline/internal/config"
	"github.com/unclebandit/outreach-pipeline/internal/db"
	"github.com/unclebandit/outreach-pipeline/internal/logging"
)

var seedFiles = []string{
	"organizations.sql",
	"templates.sql",
	"campaigns.sql",
}

func main() {
	dir := flag.String("dir", "seed", "directory holding the seed SQL files")
	flag.Parse()

	boot, _ := zap.NewProduction()
	cfg := config.Load(boot)
	logger, err := logging.New("outreach-seeder", cfg.LogLevel)
	if err != nil {
		boot.Fatal("logger", zap.Error(err))
	}
	defer logger.Sync()

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DB, logger)
	if err != nil {
		logger.Fatal("database unavailable", zap.Error(err))
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	for _, name := range seedFiles {
		file := filepath.Join(*dir, name)
		content, err := os.ReadFile(file)
		if err != nil {
			logger.Fatal("failed to read seed file", zap.String("file", file), zap.Error(err))
		}

		if _, err := conn.ExecContext(ctx, string(content)); err != nil {
			logger.Fatal("failed to execute seed file", zap.String("file", file), zap.Error(err))
		}
		logger.Info("seeded", zap.String("file", file))
	}

	logger.Info("database seeding completed")
}
