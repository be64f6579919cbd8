package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/miradorstack/mirador-context/internal/cache"
	"github.com/miradorstack/mirador-context/internal/config"
	"github.com/miradorstack/mirador-context/internal/engine"
	"github.com/miradorstack/mirador-context/internal/extractors"
	"github.com/miradorstack/mirador-context/internal/metrics"
	"github.com/miradorstack/mirador-context/internal/patterns"
	"github.com/miradorstack/mirador-context/internal/repo"
	"github.com/miradorstack/mirador-context/internal/utils"
)

func main() {
	var configPath string
	var once bool
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.BoolVar(&once, "once", false, "Run a single promotion and analysis pass, then exit")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting mirador-context", slog.String("store", cfg.Store.Path))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	var cacheProvider cache.Provider = cache.NoopProvider{}
	if cfg.Cache.Enabled {
		cacheProvider = cache.NewLRUProvider(cfg.Cache.Size, cfg.Cache.PatternTTL)
	}
	defer cacheProvider.Close()

	store, err := repo.Open(cfg.Store.Path)
	if err != nil {
		logger.Error("failed to open graph store", slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()

	pipeline, err := buildPipeline(cfg, logger, store, cacheProvider)
	if err != nil {
		logger.Error("failed to build engines", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if once {
		runPass(ctx, logger, pipeline, cfg.Patterns.PositionsPath)
		return
	}

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(cfg.Patterns.Interval)
		defer ticker.Stop()
		runPass(ctx, logger, pipeline, cfg.Patterns.PositionsPath)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runPass(ctx, logger, pipeline, cfg.Patterns.PositionsPath)
			}
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	select {
	case <-done:
	case <-time.After(cfg.Server.GracefulTimeout):
		logger.Warn("pass still running after graceful timeout")
	}

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}
	logger.Info("mirador-context stopped")
}

func buildPipeline(cfg *config.Config, logger *slog.Logger, store *repo.Store, cacheProvider cache.Provider) (*engine.Pipeline, error) {
	rules, err := engine.NewTypeRuleEngine(cfg.Rules.Path, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("edge type rules loaded", slog.Int("rules", rules.Len()))

	signals, err := engine.NewSignalEngine(logger, extractors.NewSuite(), engine.SignalConfig{
		Thresholds:         cfg.Signals.Thresholds(),
		MinSignalsRequired: cfg.Signals.MinSignalsRequired,
		AnalyzerTimeout:    cfg.Signals.AnalyzerTimeout,
		DefaultConfidence:  cfg.Signals.DefaultConfidence,
	}, rules)
	if err != nil {
		return nil, err
	}

	influence, err := engine.NewInfluenceEngine(logger, engine.InfluenceConfig{
		DecayLambda:     cfg.Influence.DecayLambda,
		ConfidenceFloor: cfg.Influence.ConfidenceFloor,
	})
	if err != nil {
		return nil, err
	}

	analyzer := patterns.NewAnalyzer(logger, analysisConfig(cfg.Patterns), cacheProvider, cfg.Cache.PatternTTL, store)

	return engine.NewPipeline(logger, store, signals, analyzer, influence, cfg.Pipeline.Workers), nil
}

func analysisConfig(c config.PatternsConfig) patterns.Config {
	return patterns.Config{
		Phi: patterns.PhiConfig{
			Tolerance:           c.PhiTolerance,
			MinPhiScore:         c.MinPhiScore,
			IncludeClosingRatio: c.IncludeClosingRatio,
		},
		Spiral: patterns.SpiralConfig{
			MinRSquared:  c.MinRSquared,
			MaxPathNodes: c.MaxPathNodes,
			MaxPaths:     c.MaxPaths,
		},
		TriangleListLimit: c.TriangleListAt,
		MaxNodes:          c.MaxNodes,
	}
}

func runPass(ctx context.Context, logger *slog.Logger, pipeline *engine.Pipeline, positionsPath string) {
	pairs, err := pipeline.CandidatePairs(ctx)
	if err != nil {
		logger.Error("candidate listing failed", slog.Any("error", err))
		return
	}
	if _, err := pipeline.PromoteCandidates(ctx, pairs); err != nil {
		logger.Error("promotion pass failed", slog.Any("error", err))
	}

	positions, err := patterns.LoadPositions(positionsPath)
	if err != nil {
		logger.Warn("positions unavailable, skipping spiral detection", slog.Any("error", err))
		positions = nil
	}
	report, err := pipeline.AnalyzePatterns(ctx, positions)
	if err != nil {
		logger.Error("pattern analysis failed", slog.Any("error", err))
	} else {
		logger.Info("pattern analysis complete",
			slog.String("snapshot", report.SnapshotID),
			slog.Int("pentagons", len(report.Pentagons)),
			slog.Int("triangles", report.Triangles.Count),
			slog.Float64("geometry_score", report.SacredGeometryScore),
		)
	}

	ranked, err := pipeline.Prioritize(ctx, time.Now(), nil)
	if err != nil {
		logger.Error("prioritization failed", slog.Any("error", err))
		return
	}
	for i, node := range ranked {
		if i == topRanked {
			break
		}
		logger.Info("priority", slog.Int("rank", i+1), slog.String("node", node.NodeID), slog.Float64("score", node.Score))
	}
}

const topRanked = 5
