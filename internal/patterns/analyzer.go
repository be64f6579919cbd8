package patterns

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/miradorstack/mirador-context/internal/cache"
	"github.com/miradorstack/mirador-context/internal/metrics"
	"github.com/miradorstack/mirador-context/internal/models"
	"github.com/miradorstack/mirador-context/internal/utils"
)

// ErrSnapshotTooLarge is returned when a snapshot exceeds Config.MaxNodes.
var ErrSnapshotTooLarge = errors.New("snapshot exceeds pattern analysis bound")

// Store abstracts persistence for pattern reports.
type Store interface {
	StoreReport(ctx context.Context, report models.PatternReport) error
}

// Analyzer runs comprehensive analyses with caching, metrics and optional
// report persistence.
type Analyzer struct {
	cfg       Config
	logger    *slog.Logger
	cache     cache.Provider
	cacheTTL  time.Duration
	store     Store
	latencies *utils.LatencyTracker
	now       func() time.Time
}

// NewAnalyzer constructs an Analyzer; cacheProvider and store may be nil.
func NewAnalyzer(logger *slog.Logger, cfg Config, cacheProvider cache.Provider, cacheTTL time.Duration, store Store) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if cacheProvider == nil {
		cacheProvider = cache.NoopProvider{}
	}
	return &Analyzer{
		cfg:       cfg,
		logger:    logger,
		cache:     cacheProvider,
		cacheTTL:  cacheTTL,
		store:     store,
		latencies: utils.NewLatencyTracker(256),
		now:       time.Now,
	}
}

// Analyze returns the pattern report for s. Identical snapshots and positions
// are served from cache.
func (a *Analyzer) Analyze(ctx context.Context, s *Snapshot, positions map[string]models.Point) (models.PatternReport, error) {
	if s == nil {
		return models.PatternReport{}, fmt.Errorf("snapshot is nil")
	}
	if a.cfg.MaxNodes > 0 && s.Len() > a.cfg.MaxNodes {
		return models.PatternReport{}, fmt.Errorf("%w: %d nodes > %d", ErrSnapshotTooLarge, s.Len(), a.cfg.MaxNodes)
	}

	key := cacheKey(s, positions)
	if report, ok := a.cached(ctx, key); ok {
		a.logger.Debug("pattern report served from cache", slog.String("snapshot", report.SnapshotID))
		return report, nil
	}

	start := time.Now()
	report := ComprehensiveAnalysis(s, positions, a.cfg)
	duration := time.Since(start)
	report.GeneratedAt = a.now().UTC()

	if err := ctx.Err(); err != nil {
		return models.PatternReport{}, err
	}

	metrics.ObservePatternAnalysis(duration, len(report.Pentagons), report.Triangles.Count, len(report.Spirals))
	a.latencies.Observe(duration)
	if count := a.latencies.Observed(); count >= 20 && count%20 == 0 {
		a.logger.Info("pattern analysis latency", slog.Duration("p95", a.latencies.Percentile(95)), slog.Int("samples", a.latencies.Count()))
	}
	a.logger.Debug("pattern analysis complete",
		slog.String("snapshot", report.SnapshotID),
		slog.Int("pentagons", len(report.Pentagons)),
		slog.Int("triangles", report.Triangles.Count),
		slog.Int("spirals", len(report.Spirals)),
		slog.Float64("score", report.SacredGeometryScore),
	)

	if err := cache.SetJSON(ctx, a.cache, key, report, a.cacheTTL); err != nil {
		a.logger.Warn("pattern cache write failed", slog.Any("error", err))
	}

	if a.store != nil {
		if err := a.store.StoreReport(ctx, report); err != nil {
			a.logger.Warn("pattern report store failed", slog.Any("error", err))
		}
	}
	return report, nil
}

func (a *Analyzer) cached(ctx context.Context, key string) (models.PatternReport, bool) {
	var report models.PatternReport
	if err := cache.GetJSON(ctx, a.cache, key, &report); err != nil {
		switch {
		case !errors.Is(err, cache.ErrCacheMiss):
			a.logger.Warn("pattern cache read failed", slog.Any("error", err))
		case err != cache.ErrCacheMiss:
			a.logger.Warn("pattern cache entry corrupt", slog.Any("error", err))
		}
		return models.PatternReport{}, false
	}
	return report, true
}

func cacheKey(s *Snapshot, positions map[string]models.Point) string {
	if positions == nil {
		return "patterns:" + s.Fingerprint() + ":nopos"
	}
	ids := make([]string, 0, len(positions))
	for id := range positions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	h := xxhash.New()
	for _, id := range ids {
		p := positions[id]
		_, _ = h.WriteString(id)
		_, _ = h.WriteString("=")
		_, _ = h.WriteString(strconv.FormatFloat(p.X, 'g', -1, 64))
		_, _ = h.WriteString(",")
		_, _ = h.WriteString(strconv.FormatFloat(p.Y, 'g', -1, 64))
		_, _ = h.WriteString(";")
	}
	return "patterns:" + s.Fingerprint() + ":" + strconv.FormatUint(h.Sum64(), 16)
}
