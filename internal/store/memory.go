package store

import (
	"sync"
	"time"

	"github.com/i474232898/weather-insight/internal/weather"
)

// MemoryStore is a concurrency-safe in-memory copy of the weather log.
// Each Replace installs a whole new log; readers never observe a partial one.
type MemoryStore struct {
	mu sync.RWMutex

	records  []weather.Record
	version  uint64
	loadedAt time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Replace installs a copy of records as the current log and returns the new version.
func (s *MemoryStore) Replace(records []weather.Record) uint64 {
	cp := make([]weather.Record, len(records))
	copy(cp, records)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = cp
	s.version++
	s.loadedAt = time.Now().UTC()
	return s.version
}

// Snapshot returns the current log in delivery order.
func (s *MemoryStore) Snapshot() ([]weather.Record, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.version == 0 {
		return nil, 0, weather.ErrNotLoaded
	}
	return s.records, s.version, nil
}

// LoadedAt reports when the current log was installed (zero if never).
func (s *MemoryStore) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}
