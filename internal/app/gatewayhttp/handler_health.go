package gatewayhttp

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"
)

// healthStats: payload ответа /health.
type healthStats struct {
	OK         bool  `json:"ok"`
	Sessions   int   `json:"sessions"`
	TotalBytes int64 `json:"total_bytes"`
}

// health возвращает число сессий и суммарный размер данных шлюза.
func (a *Server) health(w http.ResponseWriter, _ *http.Request) {
	var stats healthStats
	err := filepath.WalkDir(a.opts.DataDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if d.Name() == metaFileName {
			stats.Sessions++
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		stats.TotalBytes += info.Size()

		return nil
	})

	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	stats.OK = true
	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(stats); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
