package repository

import (
	"context"
	"sync"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// RecordMemoryRepository はプロセス内のマップに保存する（テスト・ローカル用）。
type RecordMemoryRepository struct {
	mu      sync.RWMutex
	records map[model.RecordKey][]byte
}

func NewRecordMemoryRepository() *RecordMemoryRepository {
	return &RecordMemoryRepository{records: map[model.RecordKey][]byte{}}
}

func (r *RecordMemoryRepository) Load(_ context.Context, key model.RecordKey) ([]byte, error) {
	r.mu.RLock()
	v, ok := r.records[key]
	r.mu.RUnlock()
	if !ok {
		return nil, repo.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (r *RecordMemoryRepository) Save(_ context.Context, key model.RecordKey, value []byte) error {
	r.mu.Lock()
	r.records[key] = append([]byte(nil), value...)
	r.mu.Unlock()
	return nil
}

func (r *RecordMemoryRepository) Delete(_ context.Context, key model.RecordKey) error {
	r.mu.Lock()
	delete(r.records, key)
	r.mu.Unlock()
	return nil
}
