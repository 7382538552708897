package gatewayhttp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/yourname/upload_lite/internal/models"
	"github.com/yourname/upload_lite/pkg/httperrors"
	"github.com/yourname/upload_lite/pkg/uploadproto"
)

// initUpload открывает сессию и выделяет адреса частей.
func (a *Server) initUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadproto.InitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.Write(w, fmt.Errorf("%w: %v", models.ErrInvalidInput, err))
		return
	}

	name := path.Base(strings.TrimSpace(req.FileName))
	if name == "" || name == "." || name == "/" {
		httperrors.Write(w, fmt.Errorf("%w: fileName is required", models.ErrInvalidInput))
		return
	}
	if req.FileSize < 0 {
		httperrors.Write(w, fmt.Errorf("%w: fileSize is negative", models.ErrInvalidInput))
		return
	}

	total := a.partsFor(req.FileSize)
	if total > maxParts {
		httperrors.Write(w, fmt.Errorf("%w: file needs %d parts, limit is %d", models.ErrInvalidInput, total, maxParts))
		return
	}

	m := &sessionMeta{
		SessionID:   uuid.NewString(),
		FileName:    name,
		ContentType: req.ContentType,
		FileSize:    req.FileSize,
		TotalParts:  total,
		Parts:       map[int]partMeta{},
		CreatedAt:   a.opts.Now().UTC(),
	}

	if err := os.MkdirAll(a.sessionDir(m.SessionID), 0o755); err != nil {
		httperrors.Write(w, err)
		return
	}
	if err := writeMeta(a.metaPath(m.SessionID), m); err != nil {
		httperrors.Write(w, err)
		return
	}

	base := a.baseURL(r)
	resp := uploadproto.InitResponse{
		UUID:          m.SessionID,
		NumberOfParts: total,
		Parts:         make([]uploadproto.InitPart, total),
	}
	for i := range resp.Parts {
		resp.Parts[i] = uploadproto.InitPart{
			PartNumber: i + 1,
			URL:        fmt.Sprintf("%s/parts/%s/%d", base, m.SessionID, i+1),
		}
	}

	a.log.Info().
		Str("session", m.SessionID).
		Str("file", name).
		Int64("size", req.FileSize).
		Int("parts", total).
		Msg("multipart session opened")

	w.Header().Set("Content-Type", uploadproto.ContentTypeJSON)
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(resp)
}

// partsFor: ceil(size/partSize), минимум одна часть; ForceParts переопределяет расчёт.
func (a *Server) partsFor(size int64) int {
	if a.opts.ForceParts > 0 {
		return a.opts.ForceParts
	}
	if size <= 0 {
		return 1
	}
	n := (size + a.opts.PartSize - 1) / a.opts.PartSize
	if n > maxParts {
		return maxParts + 1
	}
	return int(n)
}
