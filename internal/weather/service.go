package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/i474232898/weather-insight/internal/metrics"
)

// WindowConfig controls how "today" and the window are derived.
type WindowConfig struct {
	TodayOffset time.Duration
	Calendar    bool
}

// Service loads the weather log into the store and serves recency windows from it.
type Service struct {
	store    Store
	source   Source
	selector Selector
	offset   time.Duration
	now      func() time.Time

	// loadMu serializes Load so two refreshes never interleave their Replace calls.
	loadMu sync.Mutex

	mu     sync.Mutex
	cached *cachedWindow
}

type cachedWindow struct {
	version uint64
	today   MonthDay
	records []Record
}

// NewService creates a new Service.
func NewService(store Store, source Source, cfg WindowConfig) *Service {
	return &Service{
		store:    store,
		source:   source,
		selector: Selector{Calendar: cfg.Calendar},
		offset:   cfg.TodayOffset,
		now:      time.Now,
	}
}

// Load fetches the full log from the source and replaces the stored copy.
// On failure the previous copy (if any) is kept.
func (s *Service) Load(ctx context.Context) error {
	if s.source == nil {
		return fmt.Errorf("no weather source configured")
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	start := time.Now()
	records, err := s.source.Fetch(ctx)
	if err != nil {
		metrics.ObserveStoreLoad(s.source.Name(), metrics.ResultError, 0, time.Since(start))
		return fmt.Errorf("load weather log from %s: %w", s.source.Name(), err)
	}

	version := s.store.Replace(records)
	metrics.ObserveStoreLoad(s.source.Name(), metrics.ResultSuccess, len(records), time.Since(start))
	log.Printf("INFO: loaded %d weather records from %s (version %d)", len(records), s.source.Name(), version)
	return nil
}

// Recent returns the trailing window for the current "today".
// An unloaded store yields an empty window, not an error.
func (s *Service) Recent() (Window, error) {
	return s.RecentAt(s.now())
}

// RecentAt returns the trailing window for the "today" derived from now.
func (s *Service) RecentAt(now time.Time) (Window, error) {
	today := Today(now, s.offset)

	records, version, err := s.store.Snapshot()
	if err != nil {
		if errors.Is(err, ErrNotLoaded) {
			return Window{Today: today, Records: []Record{}}, nil
		}
		return Window{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c := s.cached; c != nil && c.version == version && c.today == today {
		metrics.IncWindow(metrics.CacheHit)
		return Window{Today: today, Records: cloneRecords(c.records)}, nil
	}

	selected := s.selector.Select(today, records)
	s.cached = &cachedWindow{version: version, today: today, records: selected}
	metrics.IncWindow(metrics.CacheMiss)

	return Window{Today: today, Records: cloneRecords(selected)}, nil
}

func cloneRecords(in []Record) []Record {
	out := make([]Record, len(in))
	copy(out, in)
	return out
}
