package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yourname/upload_lite/internal/models"
)

// DefaultListLimit: сколько записей отдаёт List без явного лимита.
const DefaultListLimit = 20

// MemoryStore хранит журнал только в оперативной памяти; удобно для тестов.
type MemoryStore struct {
	mu   sync.RWMutex
	recs map[string]models.UploadRecord
}

// NewMemoryStore создаёт пустое in-memory хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: map[string]models.UploadRecord{}}
}

// Get возвращает запись по id или ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, id string) (models.UploadRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[id]
	if !ok {
		return models.UploadRecord{}, models.ErrNotFound
	}
	return rec, nil
}

// Save записывает (или обновляет) запись целиком.
func (s *MemoryStore) Save(_ context.Context, rec models.UploadRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.ID] = rec
	return nil
}

// List возвращает последние limit записей, новые первыми.
func (s *MemoryStore) List(_ context.Context, limit int) ([]models.UploadRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	s.mu.RLock()
	out := make([]models.UploadRecord, 0, len(s.recs))
	for _, rec := range s.recs {
		out = append(out, rec)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
