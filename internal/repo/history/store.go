// Package history ведёт журнал завершённых загрузок: Postgres или память.
package history

import (
	"context"
	"strings"

	"github.com/yourname/upload_lite/internal/models"
)

// Store: общий интерфейс обоих хранилищ.
type Store interface {
	Save(ctx context.Context, rec models.UploadRecord) error
	Get(ctx context.Context, id string) (models.UploadRecord, error)
	List(ctx context.Context, limit int) ([]models.UploadRecord, error)
}

var (
	_ Store = (*PGStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

// IsMemoryDSN сообщает, что вместо Postgres выбрано хранилище в памяти.
func IsMemoryDSN(dsn string) bool {
	dsn = strings.TrimSpace(dsn)
	return dsn == "" || strings.HasPrefix(dsn, "memory://")
}

// Open выбирает хранилище по DSN. Возвращённую функцию нужно вызвать при завершении.
func Open(ctx context.Context, dsn string) (Store, func(), error) {
	if IsMemoryDSN(dsn) {
		return NewMemoryStore(), func() {}, nil
	}
	pg, err := NewPGStore(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	return pg, pg.Close, nil
}
