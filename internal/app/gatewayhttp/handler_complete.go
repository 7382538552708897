package gatewayhttp

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/google/uuid"

	"github.com/yourname/upload_lite/internal/models"
	"github.com/yourname/upload_lite/pkg/httperrors"
	"github.com/yourname/upload_lite/pkg/uploadproto"
)

// completeUpload склеивает перечисленные части в объект.
// Частей может быть меньше, чем выделено при init, но номера должны идти подряд с 1.
func (a *Server) completeUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadproto.CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.Write(w, fmt.Errorf("%w: %v", models.ErrInvalidInput, err))
		return
	}
	if len(req.Parts) == 0 {
		httperrors.Write(w, fmt.Errorf("%w: parts list is empty", models.ErrInvalidInput))
		return
	}

	if _, err := uuid.Parse(req.UUID); err != nil {
		httperrors.Write(w, fmt.Errorf("session %q: %w", req.UUID, models.ErrNotFound))
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	m, err := readMeta(a.metaPath(req.UUID))
	if err != nil {
		httperrors.Write(w, err)
		return
	}
	if m.Completed {
		httperrors.Write(w, fmt.Errorf("%w: session %s already completed", httperrors.ErrConflict, req.UUID))
		return
	}

	for i, p := range req.Parts {
		if p.PartNumber != i+1 {
			httperrors.Write(w, fmt.Errorf("%w: part %d listed at position %d", models.ErrInvalidInput, p.PartNumber, i+1))
			return
		}
		stored, ok := m.Parts[p.PartNumber]
		if !ok {
			httperrors.Write(w, fmt.Errorf("%w: part %d was not uploaded", models.ErrInvalidInput, p.PartNumber))
			return
		}
		if p.ETag != stored.ETag {
			httperrors.Write(w, fmt.Errorf("%w: etag mismatch for part %d", httperrors.ErrConflict, p.PartNumber))
			return
		}
	}

	size, err := a.assemble(req.UUID, len(req.Parts))
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	m.Completed = true
	m.Size = size
	if err = writeMeta(a.metaPath(req.UUID), m); err != nil {
		httperrors.Write(w, err)
		return
	}

	fileURL := fmt.Sprintf("%s/files/%s/%s", a.baseURL(r), m.SessionID, url.PathEscape(m.FileName))

	a.log.Info().
		Str("session", m.SessionID).
		Int("parts", len(req.Parts)).
		Int("allocated", m.TotalParts).
		Int64("size", size).
		Msg("multipart session completed")

	w.Header().Set("Content-Type", uploadproto.ContentTypeJSON)
	_ = json.NewEncoder(w).Encode(uploadproto.CompleteResponse{UUID: m.SessionID, URL: fileURL})
}

// assemble пишет части 1..count подряд в один файл и удаляет их.
func (a *Server) assemble(id string, count int) (int64, error) {
	tmp := a.objectPath(id) + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return 0, err
	}

	var total int64
	for n := 1; n <= count; n++ {
		written, errCopy := appendFile(out, a.partPath(id, n))
		if errCopy != nil {
			_ = out.Close()
			_ = os.Remove(tmp)
			return 0, fmt.Errorf("assemble part %d: %w", n, errCopy)
		}
		total += written
	}
	if err = out.Close(); err != nil {
		_ = os.Remove(tmp)
		return 0, err
	}
	if err = os.Rename(tmp, a.objectPath(id)); err != nil {
		return 0, err
	}

	for n := 1; n <= count; n++ {
		_ = os.Remove(a.partPath(id, n))
	}
	return total, nil
}

func appendFile(dst io.Writer, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(dst, f)
}
