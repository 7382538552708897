package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourname/upload_lite/internal/app/gatewayhttp"
	"github.com/yourname/upload_lite/internal/config"
	"github.com/yourname/upload_lite/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fatal(err)
	}

	addr := flag.String("addr", cfg.DevGateway.ListenAddr, "listen address")
	dataDir := flag.String("data", cfg.DevGateway.DataDir, "directory for sessions and assembled files")
	forceParts := flag.Int("force-parts", cfg.DevGateway.ForceParts, "allocate exactly this many parts per session (0 = by size)")
	failPart := flag.Int("fail-part", 0, "answer 500 for this part number")
	flag.Parse()

	cfg.DevGateway.DataDir = *dataDir
	cfg.DevGateway.ForceParts = *forceParts
	if err = cfg.ValidateDevGateway(); err != nil {
		fatal(err)
	}

	log, closeLog, err := logger.New(logger.Options{Level: cfg.Log.Level, File: cfg.Log.Path, JSON: cfg.Log.JSON})
	if err != nil {
		fatal(err)
	}
	defer closeLog()

	if err = os.MkdirAll(*dataDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("create data dir")
	}

	srv := gatewayhttp.NewServer(gatewayhttp.Options{
		DataDir:    *dataDir,
		PublicURL:  cfg.DevGateway.PublicURL,
		APIKey:     cfg.DevGateway.APIKey,
		PartSize:   cfg.DevGateway.PartSize,
		ForceParts: *forceParts,
		FailPart:   *failPart,
		Logger:     &log,
	})

	// Настраиваем фоновый GC по удалению незавершённых сессий.
	stopGC := srv.StartGC(cfg.DevGateway.GCTTL, cfg.DevGateway.GCInterval)
	defer stopGC()

	server := &http.Server{Addr: *addr, Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("gateway shutdown")
		}
	}()

	log.Info().
		Str("addr", *addr).
		Str("data", *dataDir).
		Dur("gc_ttl", cfg.DevGateway.GCTTL).
		Dur("gc_every", cfg.DevGateway.GCInterval).
		Msg("dev gateway listening")
	if err = server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("gateway listen")
	}
}

func fatal(err error) {
	_, _ = os.Stderr.WriteString(err.Error() + "\n")
	os.Exit(1)
}
