package weather_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/i474232898/weather-insight/internal/store"
	"github.com/i474232898/weather-insight/internal/weather"
)

type fakeSource struct {
	records []weather.Record
	err     error
	calls   int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Fetch(ctx context.Context) ([]weather.Record, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

// 2024-06-15 00:00 KST
var june15 = time.Date(2024, 6, 14, 15, 0, 0, 0, time.UTC)

func TestServiceRecentBeforeLoad(t *testing.T) {
	svc := weather.NewService(store.NewMemoryStore(), &fakeSource{}, weather.WindowConfig{TodayOffset: weather.DefaultTodayOffset})

	w, err := svc.RecentAt(june15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Records == nil || len(w.Records) != 0 {
		t.Fatalf("expected empty window, got %#v", w.Records)
	}
	if w.Today.String() != "06-15" {
		t.Fatalf("expected today 06-15, got %s", w.Today)
	}
}

func TestServiceLoadAndRecent(t *testing.T) {
	src := &fakeSource{records: []weather.Record{
		{Date: "06-10", City: "Seoul", Temperature: 25, MinTemperature: 18, Description: "sunny"},
		{Date: "06-01", City: "Seoul", Temperature: 22, MinTemperature: 15, Description: "cloudy"},
		{Date: "06-15", City: "Seoul", Temperature: 27, MinTemperature: 19, Description: "clear"},
	}}
	svc := weather.NewService(store.NewMemoryStore(), src, weather.WindowConfig{TodayOffset: weather.DefaultTodayOffset})

	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	w, err := svc.RecentAt(june15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(w.Records) != 2 || w.Records[0].Date != "06-15" || w.Records[1].Date != "06-10" {
		t.Fatalf("expected [06-15 06-10], got %v", w.Records)
	}

	// Mutating a returned window must not leak into later calls.
	w.Records[0].City = "mutated"
	again, _ := svc.RecentAt(june15)
	if again.Records[0].City != "Seoul" {
		t.Fatalf("expected cached window to be isolated, got %q", again.Records[0].City)
	}
}

func TestServiceLoadFailureKeepsPreviousLog(t *testing.T) {
	src := &fakeSource{records: []weather.Record{{Date: "06-14", City: "Busan"}}}
	svc := weather.NewService(store.NewMemoryStore(), src, weather.WindowConfig{TodayOffset: weather.DefaultTodayOffset})

	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	boom := errors.New("feed down")
	src.err = boom
	err := svc.Load(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped feed error, got %v", err)
	}

	w, _ := svc.RecentAt(june15)
	if len(w.Records) != 1 || w.Records[0].City != "Busan" {
		t.Fatalf("expected previous log to survive, got %v", w.Records)
	}
}

func TestServiceReloadInvalidatesWindow(t *testing.T) {
	src := &fakeSource{records: []weather.Record{{Date: "06-14", City: "Busan"}}}
	svc := weather.NewService(store.NewMemoryStore(), src, weather.WindowConfig{TodayOffset: weather.DefaultTodayOffset})
	_ = svc.Load(context.Background())

	first, _ := svc.RecentAt(june15)
	if len(first.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(first.Records))
	}

	src.records = []weather.Record{{Date: "06-14", City: "Busan"}, {Date: "06-13", City: "Daegu"}}
	_ = svc.Load(context.Background())

	second, _ := svc.RecentAt(june15)
	if len(second.Records) != 2 {
		t.Fatalf("expected reload to be visible, got %v", second.Records)
	}

	// A new day recomputes the window over the same log.
	later, _ := svc.RecentAt(june15.Add(7 * 24 * time.Hour))
	if len(later.Records) != 0 {
		t.Fatalf("expected empty window a week later, got %v", later.Records)
	}
}

func TestServiceCalendarMode(t *testing.T) {
	src := &fakeSource{records: []weather.Record{{Date: "12-30", City: "Seoul"}, {Date: "01-01", City: "Seoul"}}}
	jan2 := time.Date(2025, 1, 1, 15, 0, 0, 0, time.UTC)

	approx := weather.NewService(store.NewMemoryStore(), src, weather.WindowConfig{TodayOffset: weather.DefaultTodayOffset})
	_ = approx.Load(context.Background())
	if w, _ := approx.RecentAt(jan2); len(w.Records) != 1 {
		t.Fatalf("approximate: expected 1 record, got %v", w.Records)
	}

	calendar := weather.NewService(store.NewMemoryStore(), src, weather.WindowConfig{TodayOffset: weather.DefaultTodayOffset, Calendar: true})
	_ = calendar.Load(context.Background())
	if w, _ := calendar.RecentAt(jan2); len(w.Records) != 2 {
		t.Fatalf("calendar: expected 2 records, got %v", w.Records)
	}
}

func TestServiceLoadWithoutSource(t *testing.T) {
	svc := weather.NewService(store.NewMemoryStore(), nil, weather.WindowConfig{})
	if err := svc.Load(context.Background()); err == nil {
		t.Fatalf("expected error without a source")
	}
}
