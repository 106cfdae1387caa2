package repository

import (
	"sort"
	"sync"
	"time"

	"retail-dashboard/internal/models"
)

// MemoryKVRepository хранилище в памяти для тестов и запуска без БД
type MemoryKVRepository struct {
	mu      sync.Mutex
	entries map[string]models.KVEntry

	// FailPuts заставляет Put возвращать ошибку (для тестов отказов хранилища)
	FailPuts error
}

func NewMemoryKVRepository() *MemoryKVRepository {
	return &MemoryKVRepository{entries: make(map[string]models.KVEntry)}
}

func (r *MemoryKVRepository) Get(key string) (*models.KVEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[key]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (r *MemoryKVRepository) Put(key, value string, expectedVersion int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailPuts != nil {
		return 0, r.FailPuts
	}

	now := time.Now()
	existing, ok := r.entries[key]
	if !ok {
		if expectedVersion != 0 {
			return 0, models.ErrVersionConflict
		}
		r.entries[key] = models.KVEntry{Key: key, Value: value, Version: 1, CreatedAt: now, UpdatedAt: now}
		return 1, nil
	}

	if existing.Version != expectedVersion {
		return 0, models.ErrVersionConflict
	}

	existing.Value = value
	existing.Version++
	existing.UpdatedAt = now
	r.entries[key] = existing
	return existing.Version, nil
}

func (r *MemoryKVRepository) Delete(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, key)
	return nil
}

func (r *MemoryKVRepository) Keys() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
