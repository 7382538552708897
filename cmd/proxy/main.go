package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourname/upload_lite/internal/app/proxyhttp"
	"github.com/yourname/upload_lite/internal/config"
	"github.com/yourname/upload_lite/internal/logger"
)

// main поднимает прокси к API загрузок и обеспечивает корректное завершение по сигналу.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fatal(err)
	}
	if err = cfg.ValidateProxy(); err != nil {
		fatal(err)
	}

	log, closeLog, err := logger.New(logger.Options{Level: cfg.Log.Level, File: cfg.Log.Path, JSON: cfg.Log.JSON})
	if err != nil {
		fatal(err)
	}
	defer closeLog()

	handler, _, err := proxyhttp.NewServer(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("build proxy")
	}

	server := &http.Server{
		Addr:              cfg.Proxy.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Сценарий graceful shutdown при получении SIGTERM/SIGINT.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("proxy shutdown")
		}
	}()

	log.Info().
		Str("addr", cfg.Proxy.ListenAddr).
		Str("upstream", cfg.Proxy.UpstreamURL).
		Msg("proxy listening")
	if err = server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("proxy listen")
	}
}

func fatal(err error) {
	_, _ = os.Stderr.WriteString(err.Error() + "\n")
	os.Exit(1)
}
