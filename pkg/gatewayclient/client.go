package gatewayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yourname/upload_lite/internal/models"
	"github.com/yourname/upload_lite/pkg/uploadproto"
)

// Mode выбирает, куда и как отправляются запросы сессии.
type Mode int

const (
	// ModeDirect: прямо в API загрузок, ключ в заголовке Authorization.
	ModeDirect Mode = iota
	// ModeProxy: через прокси, ключ в заголовке X-Api-Key.
	ModeProxy
)

const maxErrorBody = 1 << 10

// Options настраивает клиент шлюза.
type Options struct {
	BaseURL string
	Mode    Mode
	Timeout time.Duration
}

// Client реализует init/complete поверх HTTP+JSON.
type Client struct {
	c    *http.Client
	opts Options
}

// New создаёт клиент шлюза.
func New(opts Options) *Client {
	return &Client{
		c:    &http.Client{Timeout: opts.Timeout},
		opts: opts,
	}
}

// Init открывает multipart-сессию и получает адреса частей.
func (c *Client) Init(ctx context.Context, apiKey string, req models.UploadRequest) (models.InitResult, error) {
	body := uploadproto.InitRequest{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		FileSize:    req.FileSize,
	}

	var out uploadproto.InitResponse
	if err := c.do(ctx, http.MethodPost, c.initPath(), apiKey, body, &out); err != nil {
		return models.InitResult{}, fmt.Errorf("%w: %v", models.ErrInitFailed, err)
	}

	parts := make([]models.PartDescriptor, len(out.Parts))
	for i, p := range out.Parts {
		parts[i] = models.PartDescriptor{PartNumber: p.PartNumber, URL: p.URL}
	}

	return models.InitResult{
		SessionID:     out.UUID,
		NumberOfParts: out.NumberOfParts,
		Parts:         parts,
	}, nil
}

// Complete фиксирует загруженные части в итоговый объект.
func (c *Client) Complete(ctx context.Context, apiKey, sessionID string, parts []models.PartResult) (models.CompleteResult, error) {
	body := uploadproto.CompleteRequest{
		UUID:  sessionID,
		Parts: make([]uploadproto.CompletePart, len(parts)),
	}
	for i, p := range parts {
		body.Parts[i] = uploadproto.CompletePart{PartNumber: p.PartNumber, ETag: p.ETag}
	}

	var out uploadproto.CompleteResponse
	if err := c.do(ctx, http.MethodPut, c.completePath(), apiKey, body, &out); err != nil {
		return models.CompleteResult{}, fmt.Errorf("%w: %v", models.ErrCompleteFailed, err)
	}

	return models.CompleteResult{SessionID: out.UUID, URL: out.URL}, nil
}

func (c *Client) initPath() string {
	if c.opts.Mode == ModeProxy {
		return uploadproto.ProxyInitPath
	}
	return uploadproto.InitPath
}

func (c *Client) completePath() string {
	if c.opts.Mode == ModeProxy {
		return uploadproto.ProxyCompletePath
	}
	return uploadproto.CompletePath
}

func (c *Client) do(ctx context.Context, method, path, apiKey string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}

	u := strings.TrimRight(c.opts.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", uploadproto.ContentTypeJSON)
	if apiKey != "" {
		if c.opts.Mode == ModeProxy {
			req.Header.Set(uploadproto.HeaderAPIKey, apiKey)
		} else {
			req.Header.Set(uploadproto.HeaderAuthorization, apiKey)
		}
	}

	resp, err := c.c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return statusError(resp)
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusError достаёт сообщение из JSON-ошибки, если шлюз его прислал.
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var e uploadproto.ErrorResponse
	if json.Unmarshal(raw, &e) == nil && e.Message != "" {
		return fmt.Errorf("%s: %s", resp.Status, e.Message)
	}
	if msg := strings.TrimSpace(string(raw)); msg != "" {
		return fmt.Errorf("%s: %s", resp.Status, msg)
	}
	return fmt.Errorf("%s", resp.Status)
}
