package httperrors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yourname/upload_lite/internal/models"
	"github.com/yourname/upload_lite/pkg/uploadproto"
)

var (
	// ErrUnauthorized: ключ API не передан или не совпал.
	ErrUnauthorized = errors.New("invalid api key")
	// ErrConflict: запрос противоречит состоянию сессии (повторный complete, чужой ETag).
	ErrConflict = errors.New("conflict")
)

// Status подбирает HTTP-статус для ошибки.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Write отвечает JSON-телом {"message": ...} со статусом из Status.
func Write(w http.ResponseWriter, err error) {
	WriteStatus(w, Status(err), err.Error())
}

// WriteStatus отвечает JSON-ошибкой с явным статусом.
func WriteStatus(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", uploadproto.ContentTypeJSON)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(uploadproto.ErrorResponse{Message: msg})
}
