// Package uploadproto описывает HTTP-протокол multipart-загрузки: эндпоинты шлюза, прокси и формат тел.
package uploadproto

// Пути и заголовки протокола.
const (
	InitPath     = "/v1/uploads/init-multi-part"
	CompletePath = "/v1/uploads/complete-multi-part"

	ProxyInitPath     = "/api/proxy-init-multipart"
	ProxyCompletePath = "/api/proxy-complete-multipart"

	HeaderAuthorization = "Authorization"
	HeaderAPIKey        = "X-Api-Key"
	HeaderETag          = "ETag"
	ContentTypeJSON     = "application/json"
)

// InitRequest: тело запроса init.
type InitRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	FileSize    int64  `json:"fileSize"`
}

// InitPart: один выделенный адрес части.
type InitPart struct {
	PartNumber int    `json:"partNumber"`
	URL        string `json:"url"`
}

// InitResponse: ответ init.
type InitResponse struct {
	UUID          string     `json:"uuid"`
	NumberOfParts int        `json:"numberOfParts"`
	Parts         []InitPart `json:"parts"`
}

// CompletePart: токен одной загруженной части.
type CompletePart struct {
	PartNumber int    `json:"partNumber"`
	ETag       string `json:"eTag"`
}

// CompleteRequest: тело запроса complete.
type CompleteRequest struct {
	UUID  string         `json:"uuid"`
	Parts []CompletePart `json:"parts"`
}

// CompleteResponse: ответ complete.
type CompleteResponse struct {
	UUID string `json:"uuid"`
	URL  string `json:"url"`
}

// ErrorResponse: тело ошибки, которое шлюз может вернуть вместе с не-2xx статусом.
type ErrorResponse struct {
	Message string `json:"message"`
}
