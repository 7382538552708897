package models

// UploadRequest описывает файл, который нужно загрузить. Создаётся один раз на попытку.
type UploadRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	FileSize    int64  `json:"fileSize"`
}

// PartDescriptor: выделенный сервером пре-подписанный адрес для одной части.
type PartDescriptor struct {
	PartNumber int    `json:"partNumber"`
	URL        string `json:"url"`
}

// InitResult возвращается шлюзом после открытия multipart-сессии.
type InitResult struct {
	SessionID     string
	NumberOfParts int
	Parts         []PartDescriptor
}

// Chunk: непрерывный диапазон байт исходного файла.
type Chunk struct {
	Index  int
	Offset int64
	Size   int64
}

// End возвращает смещение первого байта после чанка.
func (c Chunk) End() int64 {
	return c.Offset + c.Size
}

// PartResult хранит токен завершения (ETag) загруженной части.
type PartResult struct {
	PartNumber int    `json:"partNumber"`
	ETag       string `json:"eTag"`
}

// CompleteResult: итог успешной загрузки.
type CompleteResult struct {
	SessionID string `json:"uuid"`
	URL       string `json:"url"`
}
