package gatewayhttp

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// partRequest содержит идентификаторы части из URL.
type partRequest struct {
	sessionID string
	number    int
}

// requirePartRequest валидирует path-параметры и отвечает 404, если они некорректны.
func (a *Server) requirePartRequest(w http.ResponseWriter, r *http.Request) (*partRequest, bool) {
	req, err := newPartRequest(r)
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}

	return req, true
}

// newPartRequest парсит идентификаторы из URL.
func newPartRequest(r *http.Request) (*partRequest, error) {
	id := chi.URLParam(r, "sessionID")
	numStr := chi.URLParam(r, "partNumber")

	// Сессии называются uuid: это же защищает от выхода за пределы каталога данных.
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid session id: %w", err)
	}

	n, err := strconv.Atoi(numStr)
	if err != nil {
		return nil, fmt.Errorf("invalid part number: %w", err)
	}
	if n < 1 || n > maxParts {
		return nil, fmt.Errorf("invalid part number: %d", n)
	}

	return &partRequest{sessionID: id, number: n}, nil
}
