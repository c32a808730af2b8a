package store

import (
	"errors"
	"testing"

	"github.com/i474232898/weather-insight/internal/weather"
)

func TestMemoryStoreNotLoaded(t *testing.T) {
	s := NewMemoryStore()

	_, _, err := s.Snapshot()
	if !errors.Is(err, weather.ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
	if !s.LoadedAt().IsZero() {
		t.Fatalf("expected zero LoadedAt before first load")
	}
}

func TestMemoryStoreReplace(t *testing.T) {
	s := NewMemoryStore()

	in := []weather.Record{{Date: "06-15", City: "Seoul"}}
	if v := s.Replace(in); v != 1 {
		t.Fatalf("expected version 1, got %d", v)
	}

	// The store keeps its own copy.
	in[0].City = "changed"

	got, version, err := s.Snapshot()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if version != 1 || len(got) != 1 || got[0].City != "Seoul" {
		t.Fatalf("unexpected snapshot: version=%d records=%v", version, got)
	}

	if v := s.Replace(nil); v != 2 {
		t.Fatalf("expected version 2, got %d", v)
	}
	got, _, err = s.Snapshot()
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty loaded log, got %v (err %v)", got, err)
	}
	if s.LoadedAt().IsZero() {
		t.Fatalf("expected LoadedAt to be set")
	}
}
