package gatewayhttp

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/yourname/upload_lite/pkg/httperrors"
	"github.com/yourname/upload_lite/pkg/uploadproto"
)

const (
	defaultPartSize int64 = 5 << 20
	maxParts              = 10000
)

// Options настраивает шлюз.
type Options struct {
	DataDir string
	// PublicURL задаёт базовый адрес выдаваемых ссылок. Если пусто, адрес берётся из запроса.
	PublicURL string
	// APIKey, если задан, должен совпасть с заголовком Authorization.
	APIKey   string
	PartSize int64
	// ForceParts > 0 выделяет ровно столько адресов, сколько указано, независимо от размера.
	ForceParts int
	// FailPart: номер части, на которую шлюз ответит 500. Для тестов обработки ошибок.
	FailPart int
	Logger   *zerolog.Logger
	// Now подменяет часы (для GC в тестах).
	Now func() time.Time
}

// Server serves the multipart gateway API on top of the local filesystem.
type Server struct {
	opts Options
	log  zerolog.Logger

	// mu сериализует изменения meta.json.
	mu sync.Mutex
}

// New создаёт HTTP-обработчик шлюза поверх каталога с данными.
func New(opts Options) http.Handler {
	return NewServer(opts).routes()
}

// NewServer возвращает сам сервер, если нужен доступ к GC.
func NewServer(opts Options) *Server {
	if opts.PartSize <= 0 {
		opts.PartSize = defaultPartSize
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{opts: opts, log: log}
}

// Handler возвращает маршруты сервера.
func (a *Server) Handler() http.Handler {
	return a.routes()
}

// routes регистрирует обработчики протокола, частей, файлов, здоровья и GC.
func (a *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Group(func(api chi.Router) {
		api.Use(a.requireAPIKey)
		api.Post(uploadproto.InitPath, a.initUpload)
		api.Put(uploadproto.CompletePath, a.completeUpload)
	})

	// Адреса частей выдаются init и сами служат доступом, как пре-подписанные ссылки.
	r.Route("/parts/{sessionID}/{partNumber}", func(pr chi.Router) {
		pr.Put("/", a.putPart)
		pr.Head("/", a.inspectPart)
	})

	r.Get("/files/{sessionID}/{name}", a.fetchFile)
	r.Get("/health", a.health)
	r.Post("/admin/gc", a.gcOnce)

	return r
}

func (a *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.opts.APIKey != "" && strings.TrimSpace(r.Header.Get(uploadproto.HeaderAuthorization)) != a.opts.APIKey {
			httperrors.Write(w, httperrors.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// baseURL: публичный адрес шлюза без завершающего слеша.
func (a *Server) baseURL(r *http.Request) string {
	if a.opts.PublicURL != "" {
		return strings.TrimRight(a.opts.PublicURL, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	return scheme + "://" + r.Host
}
