package patterns

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/miradorstack/mirador-context/internal/cache"
	"github.com/miradorstack/mirador-context/internal/models"
)

type fakeReportStore struct {
	stored int
}

func (f *fakeReportStore) StoreReport(ctx context.Context, report models.PatternReport) error {
	f.stored++
	return nil
}

func TestAnalyzerStoresAndCachesReports(t *testing.T) {
	store := &fakeReportStore{}
	analyzer := NewAnalyzer(nil, DefaultConfig(), cache.NewLRUProvider(8, time.Minute), time.Minute, store)
	s := NewSnapshot(nil, goldenPentagon())

	first, err := analyzer.Analyze(context.Background(), s, nil)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if first.GeneratedAt.IsZero() {
		t.Fatalf("expected report timestamp")
	}
	if store.stored != 1 {
		t.Fatalf("expected report to be stored once, got %d", store.stored)
	}

	second, err := analyzer.Analyze(context.Background(), s, nil)
	if err != nil {
		t.Fatalf("analyze cached: %v", err)
	}
	if store.stored != 1 {
		t.Fatalf("expected cached analysis to skip the store, got %d writes", store.stored)
	}
	if !second.GeneratedAt.Equal(first.GeneratedAt) || second.SacredGeometryScore != first.SacredGeometryScore {
		t.Fatalf("expected cached report to match the original")
	}
}

func TestAnalyzerPositionsChangeCacheKey(t *testing.T) {
	store := &fakeReportStore{}
	analyzer := NewAnalyzer(nil, DefaultConfig(), cache.NewLRUProvider(8, time.Minute), time.Minute, store)
	s := NewSnapshot(nil, goldenPentagon())

	if _, err := analyzer.Analyze(context.Background(), s, nil); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	report, err := analyzer.Analyze(context.Background(), s, map[string]models.Point{"a": {X: 1, Y: 1}})
	if err != nil {
		t.Fatalf("analyze with positions: %v", err)
	}
	if !report.SpiralsAnalyzed {
		t.Fatalf("expected spiral analysis when positions are supplied")
	}
	if store.stored != 2 {
		t.Fatalf("expected two distinct reports, got %d", store.stored)
	}
}

func TestAnalyzerRejectsOversizedSnapshot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxNodes = 3
	analyzer := NewAnalyzer(nil, cfg, nil, 0, StoreFunc(func(context.Context, models.PatternReport) error {
		t.Fatalf("oversized snapshot must not be stored")
		return nil
	}))

	_, err := analyzer.Analyze(context.Background(), NewSnapshot(nil, goldenPentagon()), nil)
	if !errors.Is(err, ErrSnapshotTooLarge) {
		t.Fatalf("expected ErrSnapshotTooLarge, got %v", err)
	}
}

func TestAnalyzerToleratesStoreFailure(t *testing.T) {
	analyzer := NewAnalyzer(nil, DefaultConfig(), nil, 0, StoreFunc(func(context.Context, models.PatternReport) error {
		return errors.New("disk full")
	}))
	if _, err := analyzer.Analyze(context.Background(), NewSnapshot(nil, goldenPentagon()), nil); err != nil {
		t.Fatalf("store failure should only be logged, got %v", err)
	}
}
