package gatewayhttp

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"net/http"
	"os"

	"github.com/yourname/upload_lite/pkg/httperrors"
	"github.com/yourname/upload_lite/pkg/uploadproto"
)

// putPart принимает байты части и отвечает её ETag.
func (a *Server) putPart(w http.ResponseWriter, r *http.Request) {
	req, ok := a.requirePartRequest(w, r)
	if !ok {
		return
	}

	if a.opts.FailPart == req.number {
		http.Error(w, "injected failure", http.StatusInternalServerError)
		return
	}

	m, err := readMeta(a.metaPath(req.sessionID))
	if err != nil {
		httperrors.Write(w, err)
		return
	}
	if m.Completed {
		http.Error(w, "session already completed", http.StatusConflict)
		return
	}
	if req.number > m.TotalParts {
		http.NotFound(w, r)
		return
	}

	f, err := os.Create(a.partPath(req.sessionID, req.number))
	if err != nil {
		httperrors.Write(w, err)
		return
	}
	defer f.Close()

	h := md5.New()
	n, err := io.Copy(io.MultiWriter(f, h), r.Body)
	if err != nil {
		httperrors.Write(w, err)
		return
	}
	if r.ContentLength >= 0 && n != r.ContentLength {
		http.Error(w, "size mismatch", http.StatusBadRequest)
		return
	}
	etag := `"` + hex.EncodeToString(h.Sum(nil)) + `"`

	if err = a.recordPart(req.sessionID, partMeta{Number: req.number, Size: n, ETag: etag}); err != nil {
		httperrors.Write(w, err)
		return
	}

	a.log.Debug().
		Str("session", req.sessionID).
		Int("part", req.number).
		Int64("size", n).
		Msg("part stored")

	w.Header().Set(uploadproto.HeaderETag, etag)
	w.WriteHeader(http.StatusOK)
}

// recordPart обновляет meta.json; повторный PUT перезаписывает размер и ETag.
func (a *Server) recordPart(id string, p partMeta) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	m, err := readMeta(a.metaPath(id))
	if err != nil {
		return err
	}
	m.Parts[p.Number] = p
	return writeMeta(a.metaPath(id), m)
}
