package gatewayhttp

import (
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// fetchFile отдаёт собранный объект. Префиксы preview_ и thumbnail_ отдают тот же объект:
// шлюз не генерирует превью, но ссылки на них должны открываться.
func (a *Server) fetchFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if _, err := uuid.Parse(id); err != nil {
		http.NotFound(w, r)
		return
	}

	m, err := readMeta(a.metaPath(id))
	if err != nil || !m.Completed {
		http.NotFound(w, r)
		return
	}

	name := chi.URLParam(r, "name")
	name = strings.TrimPrefix(strings.TrimPrefix(name, "preview_"), "thumbnail_")
	if name != m.FileName {
		http.NotFound(w, r)
		return
	}

	f, err := os.Open(a.objectPath(id))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if m.ContentType != "" {
		w.Header().Set("Content-Type", m.ContentType)
	}
	http.ServeContent(w, r, m.FileName, info.ModTime(), f)
}
