package history

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/yourname/upload_lite/internal/models"
)

// Save записывает (или обновляет) запись о загрузке.
func (s *PGStore) Save(ctx context.Context, rec models.UploadRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("record id is empty")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	sqlStr, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Insert(uploadsTable).
		Columns("id", "session_id", "file_name", "content_type", "size", "parts", "url", "created_at").
		Values(rec.ID, rec.SessionID, rec.FileName, rec.ContentType, rec.Size, rec.Parts, rec.URL, rec.CreatedAt).
		Suffix(`
					ON CONFLICT (id) DO UPDATE
					SET session_id   = EXCLUDED.session_id,
						file_name    = EXCLUDED.file_name,
						content_type = EXCLUDED.content_type,
						size         = EXCLUDED.size,
						parts        = EXCLUDED.parts,
						url          = EXCLUDED.url`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert sql: %w", err)
	}

	if _, err = s.pool.Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("exec upsert: %w", err)
	}

	return nil
}
