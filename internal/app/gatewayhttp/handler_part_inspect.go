package gatewayhttp

import (
	"net/http"
	"strconv"

	"github.com/yourname/upload_lite/pkg/uploadproto"
)

// inspectPart отвечает на HEAD-запросы метаданными по части.
func (a *Server) inspectPart(w http.ResponseWriter, r *http.Request) {
	req, ok := a.requirePartRequest(w, r)
	if !ok {
		return
	}

	m, err := readMeta(a.metaPath(req.sessionID))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	part, ok := m.Parts[req.number]
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Length", strconv.FormatInt(part.Size, 10))
	w.Header().Set(uploadproto.HeaderETag, part.ETag)
	w.WriteHeader(http.StatusOK)
}
