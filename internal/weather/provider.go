package weather

import (
	"context"
	"errors"
)

// ErrNotLoaded is returned by a Store that has not received a log yet.
var ErrNotLoaded = errors.New("weather log not loaded")

// Source abstracts where the weather log comes from (the JSON feed, Postgres).
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]Record, error)
}

// Store is the contract the in-memory store must satisfy.
//
// Replace swaps in a complete log and returns its version. Snapshot returns the
// current log and version; the returned slice must not be modified.
type Store interface {
	Replace(records []Record) uint64
	Snapshot() ([]Record, uint64, error)
}
