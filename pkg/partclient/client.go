package partclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/yourname/upload_lite/internal/models"
	"github.com/yourname/upload_lite/pkg/uploadproto"
)

// maxErrorBody ограничивает, сколько байт тела ошибки попадёт в сообщение.
const maxErrorBody = 512

// Client загружает одну часть по пре-подписанному адресу.
type Client interface {
	// UploadPart отправляет байты части и возвращает ETag из ответа (может быть пустым).
	UploadPart(ctx context.Context, url string, body io.Reader, size int64) (string, error)
}

type httpClient struct {
	c *http.Client
}

// New создаёт HTTP-клиент по умолчанию.
func New() Client {
	return &httpClient{
		c: &http.Client{},
	}
}

// NewWithHTTPClient использует переданный *http.Client (таймауты, транспорт).
func NewWithHTTPClient(c *http.Client) Client {
	if c == nil {
		c = &http.Client{}
	}
	return &httpClient{c: c}
}

// UploadPart выполняет один PUT без повторов. Адрес уже подписан, поэтому ключ API не передаётся.
func (h *httpClient) UploadPart(ctx context.Context, url string, body io.Reader, size int64) (string, error) {
	if body == nil {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrPartUploadFailed, err)
	}
	req.ContentLength = size
	if size == 0 {
		req.Body = http.NoBody
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := h.c.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrPartUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%w: %s%s", models.ErrPartUploadFailed, resp.Status, bodyExcerpt(resp.Body))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.Header.Get(uploadproto.HeaderETag), nil
}

func bodyExcerpt(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	s := strings.TrimSpace(string(b))
	if s == "" {
		return ""
	}
	return ": " + s
}
