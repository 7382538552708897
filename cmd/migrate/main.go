package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/yourname/upload_lite/internal/config"
	"github.com/yourname/upload_lite/internal/logger"
	"github.com/yourname/upload_lite/internal/repo/history"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	dsnFlag := flag.String("dsn", cfg.History.DSN, "history database DSN")
	flag.Parse()

	log, closeLog, err := logger.New(logger.Options{Level: cfg.Log.Level, File: cfg.Log.Path, JSON: cfg.Log.JSON})
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer closeLog()

	dsn := *dsnFlag
	if history.IsMemoryDSN(dsn) {
		log.Info().Msg("memory history store selected, skipping migrations")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err = history.ApplyMigrations(ctx, dsn); err != nil {
		log.Fatal().Err(err).Msg("apply migrations")
	}

	log.Info().Msg("migrations applied")
}
