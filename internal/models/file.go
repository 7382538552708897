package models

import "time"

// UploadRecord: запись журнала о завершённой загрузке.
type UploadRecord struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"uuid"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Parts       int       `json:"parts"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}
