package gatewayhttp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yourname/upload_lite/internal/models"
)

const (
	metaFileName       = "meta.json"
	objectFileName     = "object"
	partFilenameFormat = "part-%05d"
)

// partMeta описывает одну часть, сохранённую шлюзом.
type partMeta struct {
	Number int    `json:"number"`
	Size   int64  `json:"size"`
	ETag   string `json:"etag"`
}

// sessionMeta хранится на диске и описывает всю multipart-сессию.
type sessionMeta struct {
	SessionID   string           `json:"session_id"`
	FileName    string           `json:"file_name"`
	ContentType string           `json:"content_type"`
	FileSize    int64            `json:"file_size"`
	TotalParts  int              `json:"total_parts"`
	Parts       map[int]partMeta `json:"parts"`
	Completed   bool             `json:"completed"`
	Size        int64            `json:"size,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

func (a *Server) sessionDir(id string) string {
	return filepath.Join(a.opts.DataDir, id)
}

func (a *Server) metaPath(id string) string {
	return filepath.Join(a.sessionDir(id), metaFileName)
}

func (a *Server) partPath(id string, n int) string {
	return filepath.Join(a.sessionDir(id), fmt.Sprintf(partFilenameFormat, n))
}

func (a *Server) objectPath(id string) string {
	return filepath.Join(a.sessionDir(id), objectFileName)
}

// writeMeta сохраняет метаданные сессии целиком через временный файл.
func writeMeta(path string, m *sessionMeta) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err = os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// readMeta читает метаданные сессии с диска.
func readMeta(path string) (*sessionMeta, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}

	var m sessionMeta
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	if m.Parts == nil {
		m.Parts = map[int]partMeta{}
	}

	return &m, nil
}
