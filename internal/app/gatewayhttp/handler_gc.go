package gatewayhttp

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const manualGCTTL = 24 * time.Hour

type gcResult struct {
	Removed int `json:"removed"`
}

// gcOnce вручную запускает сбор незавершённых сессий. ?ttl=10m переопределяет возраст.
func (a *Server) gcOnce(w http.ResponseWriter, r *http.Request) {
	ttl := manualGCTTL
	if v := r.URL.Query().Get("ttl"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			http.Error(w, "invalid ttl", http.StatusBadRequest)
			return
		}
		ttl = d
	}

	removed, err := a.Sweep(ttl)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(gcResult{Removed: removed})
}

// StartGC стартует периодическую очистку каталога.
func (a *Server) StartGC(ttl time.Duration, every time.Duration) func() {
	if every <= 0 || ttl <= 0 {
		return func() {}
	}

	ticker := time.NewTicker(every)
	stop := make(chan struct{})
	var once sync.Once
	go func() {
		for {
			select {
			case <-ticker.C:
				if n, err := a.Sweep(ttl); err != nil {
					a.log.Warn().Err(err).Msg("gc sweep failed")
				} else if n > 0 {
					a.log.Info().Int("removed", n).Msg("gc removed stale sessions")
				}
			case <-stop:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		once.Do(func() {
			close(stop)
		})
	}
}

// Sweep удаляет сессии старше ttl, которые так и не были завершены.
func (a *Server) Sweep(ttl time.Duration) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.opts.Now()
	entries, err := os.ReadDir(a.opts.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}

		m, err := readMeta(filepath.Join(a.opts.DataDir, e.Name(), metaFileName))
		if err != nil || m.Completed {
			continue
		}
		if now.Sub(m.CreatedAt) < ttl {
			continue
		}

		if err = os.RemoveAll(filepath.Join(a.opts.DataDir, e.Name())); err == nil {
			removed++
		}
	}

	return removed, nil
}
