package uploadsvc

import (
	"net/url"
	"path"
	"strings"
)

const (
	PreviewPrefix   = "preview_"
	ThumbnailPrefix = "thumbnail_"
)

// PreviewURL возвращает адрес превью для итогового объекта.
func PreviewURL(fileURL string) string {
	return VariantURL(fileURL, PreviewPrefix)
}

// ThumbnailURL возвращает адрес миниатюры для итогового объекта.
func ThumbnailURL(fileURL string) string {
	return VariantURL(fileURL, ThumbnailPrefix)
}

// VariantURL добавляет prefix к имени файла в последнем сегменте пути.
// Если адрес не разбирается или у имени нет расширения, возвращается исходный адрес.
func VariantURL(fileURL, prefix string) string {
	u, err := url.Parse(fileURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fileURL
	}

	dir, name := path.Split(u.Path)
	if name == "" || !strings.Contains(name, ".") {
		return fileURL
	}
	u.Path = dir + prefix + name

	if u.RawPath != "" {
		rawDir, rawName := path.Split(u.RawPath)
		u.RawPath = rawDir + prefix + rawName
	}

	return u.String()
}
