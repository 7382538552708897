// Package s3gateway открывает multipart-сессии прямо в S3-совместимом хранилище
// и выдаёт пре-подписанные адреса частей. Используется вместо удалённого API загрузок.
package s3gateway

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/yourname/upload_lite/internal/models"
)

const defaultPartSize int64 = 8 << 20

// Options описывает бакет и параметры подписи.
type Options struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	KeyPrefix       string
	PartSize        int64
	PresignExpires  time.Duration
	// PublicBaseURL: префикс публичного адреса объекта, если хранилище не вернуло Location.
	PublicBaseURL string
}

// Gateway реализует init/complete через aws-sdk-go-v2.
type Gateway struct {
	client  *s3.Client
	presign *s3.PresignClient
	opts    Options

	mu       sync.Mutex
	sessions map[string]string // uploadId -> key
}

// New собирает клиента S3 из Options. Статические ключи необязательны:
// без них используется цепочка учётных данных по умолчанию.
func New(ctx context.Context, opts Options) (*Gateway, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	loadOpts := []func(*config.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = opts.UsePathStyle
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})

	return NewWithClient(client, opts), nil
}

// NewWithClient использует готовый клиент S3.
func NewWithClient(client *s3.Client, opts Options) *Gateway {
	if opts.PartSize <= 0 {
		opts.PartSize = defaultPartSize
	}
	if opts.PresignExpires <= 0 {
		opts.PresignExpires = time.Hour
	}
	return &Gateway{
		client:   client,
		presign:  s3.NewPresignClient(client),
		opts:     opts,
		sessions: make(map[string]string),
	}
}

// Init создаёт multipart upload и подписывает PUT для каждой части.
// apiKey не используется: доступ определяется учётными данными S3.
func (g *Gateway) Init(ctx context.Context, _ string, req models.UploadRequest) (models.InitResult, error) {
	name := strings.TrimSpace(req.FileName)
	if name == "" {
		name = "file"
	}
	key := g.opts.KeyPrefix + uuid.NewString() + "/" + name

	in := &s3.CreateMultipartUploadInput{
		Bucket: aws.String(g.opts.Bucket),
		Key:    aws.String(key),
	}
	if req.ContentType != "" {
		in.ContentType = aws.String(req.ContentType)
	}

	out, err := g.client.CreateMultipartUpload(ctx, in)
	if err != nil {
		return models.InitResult{}, fmt.Errorf("%w: %v", models.ErrInitFailed, err)
	}
	uploadID := aws.ToString(out.UploadId)

	total := partsFor(req.FileSize, g.opts.PartSize)
	parts := make([]models.PartDescriptor, 0, total)
	for n := 1; n <= total; n++ {
		signed, errSign := g.presign.PresignUploadPart(ctx, &s3.UploadPartInput{
			Bucket:     aws.String(g.opts.Bucket),
			Key:        aws.String(key),
			UploadId:   aws.String(uploadID),
			PartNumber: aws.Int32(int32(n)),
		}, s3.WithPresignExpires(g.opts.PresignExpires))
		if errSign != nil {
			_ = g.abort(ctx, key, uploadID)
			return models.InitResult{}, fmt.Errorf("%w: presign part %d: %v", models.ErrInitFailed, n, errSign)
		}
		parts = append(parts, models.PartDescriptor{PartNumber: n, URL: signed.URL})
	}

	g.mu.Lock()
	g.sessions[uploadID] = key
	g.mu.Unlock()

	return models.InitResult{SessionID: uploadID, NumberOfParts: total, Parts: parts}, nil
}

// Complete собирает объект из загруженных частей.
func (g *Gateway) Complete(ctx context.Context, _ string, sessionID string, parts []models.PartResult) (models.CompleteResult, error) {
	key, ok := g.session(sessionID)
	if !ok {
		return models.CompleteResult{}, fmt.Errorf("%w: %w", models.ErrCompleteFailed, models.ErrNotFound)
	}

	completed := make([]types.CompletedPart, len(parts))
	for i, p := range parts {
		completed[i] = types.CompletedPart{
			ETag:       aws.String(p.ETag),
			PartNumber: aws.Int32(int32(p.PartNumber)),
		}
	}

	out, err := g.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(g.opts.Bucket),
		Key:             aws.String(key),
		UploadId:        aws.String(sessionID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		return models.CompleteResult{}, fmt.Errorf("%w: %v", models.ErrCompleteFailed, err)
	}

	g.mu.Lock()
	delete(g.sessions, sessionID)
	g.mu.Unlock()

	return models.CompleteResult{SessionID: sessionID, URL: g.objectURL(key, aws.ToString(out.Location))}, nil
}

// Abort отменяет незавершённую сессию, чтобы хранилище освободило части.
func (g *Gateway) Abort(ctx context.Context, sessionID string) error {
	key, ok := g.session(sessionID)
	if !ok {
		return models.ErrNotFound
	}
	if err := g.abort(ctx, key, sessionID); err != nil {
		return err
	}
	g.mu.Lock()
	delete(g.sessions, sessionID)
	g.mu.Unlock()
	return nil
}

func (g *Gateway) abort(ctx context.Context, key, uploadID string) error {
	_, err := g.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(g.opts.Bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	return err
}

func (g *Gateway) session(id string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key, ok := g.sessions[id]
	return key, ok
}

func (g *Gateway) objectURL(key, location string) string {
	if g.opts.PublicBaseURL != "" {
		return strings.TrimRight(g.opts.PublicBaseURL, "/") + "/" + escapeKey(key)
	}
	return location
}

func escapeKey(key string) string {
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

// partsFor: сколько частей по partSize нужно на size байт (минимум одна).
func partsFor(size, partSize int64) int {
	if size <= 0 {
		return 1
	}
	return int((size + partSize - 1) / partSize)
}
