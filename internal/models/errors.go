package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrInitFailed       = errors.New("failed to init multipart upload")
	ErrPartUploadFailed = errors.New("failed to upload part")
	ErrCompleteFailed   = errors.New("failed to complete multipart upload")

	ErrNotFound = errors.New("session not found")

	ErrMissingAPIKey = fmt.Errorf("%w: api key is empty", ErrInvalidInput)
	ErrMissingFile   = fmt.Errorf("%w: file is not selected", ErrInvalidInput)
)

// UploadError: терминальная ошибка попытки загрузки.
// Kind всегда один из Err* выше, PartIndex заполнен только для ErrPartUploadFailed.
type UploadError struct {
	Kind      error
	PartIndex int
	Err       error
}

// NewUploadError оборачивает причину в ошибку заданного вида.
func NewUploadError(kind, err error) *UploadError {
	return &UploadError{Kind: kind, PartIndex: -1, Err: err}
}

// NewPartError создаёт ошибку загрузки части с индексом partIndex (0-based).
func NewPartError(partIndex int, err error) *UploadError {
	return &UploadError{Kind: ErrPartUploadFailed, PartIndex: partIndex, Err: err}
}

func (e *UploadError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	msg := e.Err.Error()
	if !errors.Is(e.Err, e.Kind) {
		msg = e.Kind.Error() + ": " + msg
	}
	if e.Kind == ErrPartUploadFailed && e.PartIndex >= 0 {
		return fmt.Sprintf("part %d: %s", e.PartIndex+1, msg)
	}
	return msg
}

func (e *UploadError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
