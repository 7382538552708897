package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/yourname/upload_lite/internal/app/termui"
	"github.com/yourname/upload_lite/internal/config"
	"github.com/yourname/upload_lite/internal/logger"
	"github.com/yourname/upload_lite/internal/models"
	"github.com/yourname/upload_lite/internal/repo/history"
	"github.com/yourname/upload_lite/internal/usecase/uploadsvc"
	"github.com/yourname/upload_lite/internal/usecase/uploadsvc/adapters/s3gateway"
	"github.com/yourname/upload_lite/pkg/gatewayclient"
	"github.com/yourname/upload_lite/pkg/partclient"
)

const (
	gatewayHTTP = "http"
	gatewayS3   = "s3"
)

type uploadFlags struct {
	file        string
	apiKey      string
	apiURL      string
	contentType string
	gateway     string
	concurrency int
	viaProxy    bool
	quiet       bool
	abort       bool
}

func runUpload(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return exitConfig
	}

	var f uploadFlags
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.file, "file", "", "path to the file to upload")
	fs.StringVar(&f.apiKey, "api-key", cfg.API.Key, "API key for the upload service")
	fs.StringVar(&f.apiURL, "api-url", cfg.API.URL, "base URL of the upload API or proxy")
	fs.StringVar(&f.contentType, "content-type", "", "content type; detected from the file when empty")
	fs.StringVar(&f.gateway, "gateway", gatewayHTTP, "session gateway: http or s3")
	fs.IntVar(&f.concurrency, "concurrency", cfg.Upload.Concurrency, "parts uploaded at once")
	fs.BoolVar(&f.viaProxy, "proxy", cfg.API.ViaProxy, "talk to the proxy (X-Api-Key) instead of the API")
	fs.BoolVar(&f.quiet, "quiet", false, "do not draw the progress bar")
	fs.BoolVar(&f.abort, "abort-on-failure", cfg.Upload.AbortOnFailure, "abort the multipart session when the upload fails (s3 gateway)")
	if err = fs.Parse(args); err != nil {
		return exitUsage
	}
	if f.file == "" && fs.NArg() > 0 {
		f.file = fs.Arg(0)
	}

	cfg.API.URL = f.apiURL
	cfg.API.ViaProxy = f.viaProxy
	cfg.Upload.Concurrency = f.concurrency
	cfg.Upload.AbortOnFailure = f.abort

	log, closeLog, err := logger.New(logger.Options{Level: cfg.Log.Level, File: cfg.Log.Path, JSON: cfg.Log.JSON, Out: stderr})
	if err != nil {
		fmt.Fprintf(stderr, "logger: %v\n", err)
		return exitConfig
	}
	defer closeLog()

	gw, err := buildGateway(ctx, cfg, f.gateway)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitConfig
	}
	// Шлюз S3 ключ API не проверяет, доступ даёт учётка S3. Метка нужна только для проверки ввода.
	if f.gateway == gatewayS3 && strings.TrimSpace(f.apiKey) == "" {
		f.apiKey = gatewayS3
	}

	store, closeStore, err := history.Open(ctx, cfg.History.DSN)
	if err != nil {
		log.Warn().Err(err).Msg("history disabled")
		store, closeStore = nil, func() {}
	}
	defer closeStore()

	svc := uploadsvc.New(uploadsvc.Deps{
		Gateway: gw,
		Parts:   partclient.NewWithHTTPClient(&http.Client{}),
		History: recorderOrNil(store),
		Logger:  &log,
	}, serviceOptions(cfg))

	var obs uploadsvc.Observer
	if !f.quiet {
		obs = termui.NewProgressBar(stdout, "upload")
	}

	attempt := svc.Start(obs)
	defer attempt.Close()

	res, err := attempt.RunFile(ctx, f.apiKey, f.file, f.contentType)
	if err != nil {
		fmt.Fprintln(stderr, uploadsvc.StatusText(err))
		if errors.Is(err, models.ErrInvalidInput) {
			return exitUsage
		}
		return exitFailed
	}

	fmt.Fprintf(stdout, "SysFileUUID: %s\n", res.SessionID)
	fmt.Fprintf(stdout, "Original:    %s\n", res.URL)
	fmt.Fprintf(stdout, "Preview:     %s\n", uploadsvc.PreviewURL(res.URL))
	fmt.Fprintf(stdout, "Thumbnail:   %s\n", uploadsvc.ThumbnailURL(res.URL))
	return exitOK
}

func serviceOptions(cfg *config.Config) uploadsvc.Options {
	return uploadsvc.Options{
		Concurrency:    cfg.Upload.Concurrency,
		TickInterval:   cfg.Upload.TickInterval,
		ResetDelay:     cfg.Upload.ResetDelay,
		PartTimeout:    cfg.Upload.PartTimeout,
		AbortOnFailure: cfg.Upload.AbortOnFailure,
	}
}

func buildGateway(ctx context.Context, cfg *config.Config, kind string) (uploadsvc.Gateway, error) {
	switch kind {
	case gatewayHTTP:
		if err := cfg.ValidateUploader(); err != nil {
			return nil, err
		}
		mode := gatewayclient.ModeDirect
		if cfg.API.ViaProxy {
			mode = gatewayclient.ModeProxy
		}
		return gatewayclient.New(gatewayclient.Options{
			BaseURL: cfg.API.URL,
			Mode:    mode,
			Timeout: cfg.API.Timeout,
		}), nil
	case gatewayS3:
		if err := cfg.ValidateS3(); err != nil {
			return nil, err
		}
		return s3gateway.New(ctx, s3gateway.Options{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
			KeyPrefix:       cfg.S3.KeyPrefix,
			PartSize:        cfg.S3.PartSize,
			PresignExpires:  cfg.S3.PresignExpires,
			PublicBaseURL:   cfg.S3.PublicBaseURL,
		})
	default:
		return nil, fmt.Errorf("unknown gateway %q (want %s or %s)", kind, gatewayHTTP, gatewayS3)
	}
}

// recorderOrNil не даёт положить nil-указатель в интерфейс.
func recorderOrNil(store history.Store) uploadsvc.HistoryRecorder {
	if store == nil {
		return nil
	}
	return store
}
