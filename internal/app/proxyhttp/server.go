// Package proxyhttp реализует обратный прокси к API загрузок: принимает ключ в X-Api-Key
// и передаёт его дальше в Authorization, чтобы браузеру не нужен был прямой доступ к API.
package proxyhttp

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/yourname/upload_lite/internal/config"
	"github.com/yourname/upload_lite/pkg/uploadproto"
)

// maxBodySize ограничивает тело init/complete; это маленькие JSON.
const maxBodySize = 1 << 20

type Server struct {
	upstream string
	client   *http.Client
	log      zerolog.Logger
}

// NewServer конструктор
func NewServer(cfg *config.Config, log zerolog.Logger) (http.Handler, *Server, error) {
	upstream := strings.TrimRight(strings.TrimSpace(cfg.Proxy.UpstreamURL), "/")
	if upstream == "" {
		return nil, nil, errors.New("proxy upstream url is empty")
	}

	timeout := cfg.Proxy.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	srv := &Server{
		upstream: upstream,
		client:   &http.Client{Timeout: timeout},
		log:      log,
	}

	rtr := chi.NewRouter()
	rtr.Use(srv.logRequests)
	rtr.Post(uploadproto.ProxyInitPath, srv.proxyInit)
	rtr.Put(uploadproto.ProxyCompletePath, srv.proxyComplete)
	rtr.Get("/health", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	return rtr, srv, nil
}
