package history

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/yourname/upload_lite/internal/models"
)

var columns = []string{"id", "session_id", "file_name", "content_type", "size", "parts", "url", "created_at"}

// Get возвращает запись по идентификатору попытки.
func (s *PGStore) Get(ctx context.Context, id string) (models.UploadRecord, error) {
	if strings.TrimSpace(id) == "" {
		return models.UploadRecord{}, fmt.Errorf("record id is empty")
	}

	sqlStr, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(columns...).
		From(uploadsTable).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return models.UploadRecord{}, fmt.Errorf("build select: %w", err)
	}

	rec, err := scanRecord(s.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.UploadRecord{}, models.ErrNotFound
		}
		return models.UploadRecord{}, fmt.Errorf("scan upload row: %w", err)
	}
	return rec, nil
}

// List возвращает последние limit записей, новые первыми.
func (s *PGStore) List(ctx context.Context, limit int) ([]models.UploadRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	sqlStr, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(columns...).
		From(uploadsTable).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query uploads: %w", err)
	}
	defer rows.Close()

	var out []models.UploadRecord
	for rows.Next() {
		rec, errScan := scanRecord(rows)
		if errScan != nil {
			return nil, fmt.Errorf("scan upload row: %w", errScan)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRecord(row pgx.Row) (models.UploadRecord, error) {
	var rec models.UploadRecord
	err := row.Scan(&rec.ID, &rec.SessionID, &rec.FileName, &rec.ContentType, &rec.Size, &rec.Parts, &rec.URL, &rec.CreatedAt)
	return rec, err
}
