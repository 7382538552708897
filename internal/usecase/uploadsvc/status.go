package uploadsvc

import (
	"errors"
	"strings"

	"github.com/yourname/upload_lite/internal/models"
)

const (
	statusNoAPIKey  = "Please enter your API key."
	statusNoFile    = "Please select a file."
	statusUnknown   = "An unknown error occurred."
	statusErrPrefix = "Error: "
)

// StatusText превращает ошибку попытки в одну строку для пользователя.
func StatusText(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, models.ErrMissingAPIKey):
		return statusNoAPIKey
	case errors.Is(err, models.ErrMissingFile):
		return statusNoFile
	}

	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return statusUnknown
	}
	return statusErrPrefix + msg
}
