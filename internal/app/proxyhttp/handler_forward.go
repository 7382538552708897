package proxyhttp

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/yourname/upload_lite/pkg/httperrors"
	"github.com/yourname/upload_lite/pkg/uploadproto"
)

// proxyInit пересылает init в API загрузок.
func (s *Server) proxyInit(w http.ResponseWriter, r *http.Request) {
	s.forward(w, r, http.MethodPost, uploadproto.InitPath)
}

// proxyComplete пересылает complete в API загрузок.
func (s *Server) proxyComplete(w http.ResponseWriter, r *http.Request) {
	s.forward(w, r, http.MethodPut, uploadproto.CompletePath)
}

// forward передаёт тело как есть и возвращает статус и тело апстрима с Content-Type: application/json.
func (s *Server) forward(w http.ResponseWriter, r *http.Request, method, path string) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		httperrors.WriteStatus(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(body) > maxBodySize {
		httperrors.WriteStatus(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), method, s.upstream+path, bytes.NewReader(body))
	if err != nil {
		httperrors.WriteStatus(w, http.StatusInternalServerError, err.Error())
		return
	}
	req.Header.Set("Content-Type", uploadproto.ContentTypeJSON)
	if key := strings.TrimSpace(r.Header.Get(uploadproto.HeaderAPIKey)); key != "" {
		req.Header.Set(uploadproto.HeaderAuthorization, key)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Error().Err(err).Str("path", path).Msg("upstream request failed")
		httperrors.WriteStatus(w, http.StatusBadGateway, "upstream unavailable")
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", uploadproto.ContentTypeJSON)
	w.WriteHeader(resp.StatusCode)
	if _, err = io.Copy(w, resp.Body); err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("relay upstream body")
	}
}
