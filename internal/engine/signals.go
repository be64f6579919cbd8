package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/miradorstack/mirador-context/internal/metrics"
	"github.com/miradorstack/mirador-context/internal/models"
	"github.com/miradorstack/mirador-context/internal/utils"
)

const (
	// PromotionMethod names the decision procedure recorded in provenance.
	PromotionMethod = "consensus-of-evidence"
	// PromotionVersion is bumped whenever scoring semantics change.
	PromotionVersion = "1.0"

	defaultMinSignals = 2
	defaultConfidence = 0.8
)

// ErrPortNotConfigured is reported for a signal family without an analyzer.
var ErrPortNotConfigured = errors.New("analyzer port not configured")

// Analyzers is the set of five signal analyzer ports. Each returns a score
// that is expected, but not trusted, to lie in [0,1].
type Analyzers interface {
	SemanticSimilarity(ctx context.Context, a, b string) (float64, error)
	StatisticalCorrelation(ctx context.Context, a, b []float64) (float64, error)
	StructuralOverlap(ctx context.Context, a, b map[string]string) (float64, error)
	CausalLeadLag(ctx context.Context, a, b []time.Time) (float64, error)
	SpatialProximity(ctx context.Context, a, b *models.Location) (float64, error)
}

// AnalyzerFuncs adapts plain functions to Analyzers. A nil function reports
// ErrPortNotConfigured.
type AnalyzerFuncs struct {
	Semantic    func(ctx context.Context, a, b string) (float64, error)
	Statistical func(ctx context.Context, a, b []float64) (float64, error)
	Structural  func(ctx context.Context, a, b map[string]string) (float64, error)
	Temporal    func(ctx context.Context, a, b []time.Time) (float64, error)
	Spatial     func(ctx context.Context, a, b *models.Location) (float64, error)
}

func (f AnalyzerFuncs) SemanticSimilarity(ctx context.Context, a, b string) (float64, error) {
	if f.Semantic == nil {
		return 0, ErrPortNotConfigured
	}
	return f.Semantic(ctx, a, b)
}

func (f AnalyzerFuncs) StatisticalCorrelation(ctx context.Context, a, b []float64) (float64, error) {
	if f.Statistical == nil {
		return 0, ErrPortNotConfigured
	}
	return f.Statistical(ctx, a, b)
}

func (f AnalyzerFuncs) StructuralOverlap(ctx context.Context, a, b map[string]string) (float64, error) {
	if f.Structural == nil {
		return 0, ErrPortNotConfigured
	}
	return f.Structural(ctx, a, b)
}

func (f AnalyzerFuncs) CausalLeadLag(ctx context.Context, a, b []time.Time) (float64, error) {
	if f.Temporal == nil {
		return 0, ErrPortNotConfigured
	}
	return f.Temporal(ctx, a, b)
}

func (f AnalyzerFuncs) SpatialProximity(ctx context.Context, a, b *models.Location) (float64, error) {
	if f.Spatial == nil {
		return 0, ErrPortNotConfigured
	}
	return f.Spatial(ctx, a, b)
}

// SignalConfig is the immutable promotion configuration.
type SignalConfig struct {
	Thresholds         models.Thresholds
	MinSignalsRequired int
	// AnalyzerTimeout bounds each port call; zero means no per-port timeout.
	AnalyzerTimeout   time.Duration
	DefaultConfidence float64
}

// DefaultSignalConfig returns the default thresholds, two required signals
// and a two second per-analyzer timeout.
func DefaultSignalConfig() SignalConfig {
	return SignalConfig{
		Thresholds:         models.DefaultThresholds(),
		MinSignalsRequired: defaultMinSignals,
		AnalyzerTimeout:    2 * time.Second,
		DefaultConfidence:  defaultConfidence,
	}
}

// SignalResult is a computed vector plus the families whose ports failed.
type SignalResult struct {
	Vector models.SignalVector
	Failed map[models.Signal]error
}

// FailedSignals lists failed families in canonical order.
func (r SignalResult) FailedSignals() []models.Signal {
	if len(r.Failed) == 0 {
		return nil
	}
	out := make([]models.Signal, 0, len(r.Failed))
	for _, sig := range models.AllSignals {
		if _, ok := r.Failed[sig]; ok {
			out = append(out, sig)
		}
	}
	return out
}

// SignalEngine decides whether candidate node pairs become relationship edges.
type SignalEngine struct {
	logger    *slog.Logger
	analyzers Analyzers
	rules     *TypeRuleEngine
	cfg       SignalConfig
	now       func() time.Time
}

// NewSignalEngine validates cfg and constructs a SignalEngine. rules may be nil.
func NewSignalEngine(logger *slog.Logger, analyzers Analyzers, cfg SignalConfig, rules *TypeRuleEngine) (*SignalEngine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if analyzers == nil {
		return nil, utils.ConfigError("engine.signals", "analyzers are required")
	}
	thresholds := models.DefaultThresholds()
	for sig, v := range cfg.Thresholds {
		if _, ok := thresholds[sig]; !ok {
			return nil, utils.ConfigError("engine.signals", "unknown signal %q in thresholds", sig)
		}
		if v < 0 || v > 1 {
			return nil, utils.ConfigError("engine.signals", "%s threshold %.3f outside [0,1]", sig, v)
		}
		thresholds[sig] = v
	}
	cfg.Thresholds = thresholds
	if cfg.MinSignalsRequired < 1 || cfg.MinSignalsRequired > len(models.AllSignals) {
		return nil, utils.ConfigError("engine.signals", "min signals required %d outside [1,%d]", cfg.MinSignalsRequired, len(models.AllSignals))
	}
	if cfg.AnalyzerTimeout < 0 {
		return nil, utils.ConfigError("engine.signals", "analyzer timeout must not be negative")
	}
	if cfg.DefaultConfidence <= 0 || cfg.DefaultConfidence > 1 {
		cfg.DefaultConfidence = defaultConfidence
	}
	return &SignalEngine{
		logger:    logger,
		analyzers: analyzers,
		rules:     rules,
		cfg:       cfg,
		now:       time.Now,
	}, nil
}

// Config returns a copy of the engine configuration.
func (e *SignalEngine) Config() SignalConfig {
	cfg := e.cfg
	cfg.Thresholds = e.cfg.Thresholds.Clone()
	return cfg
}

// ComputeSignals invokes the five ports concurrently and joins on all of
// them. A failing, panicking or timed-out port degrades only its own family
// to 0.0; every score is clamped to [0,1]. It never returns an error.
func (e *SignalEngine) ComputeSignals(ctx context.Context, a, b models.ContextNode) SignalResult {
	scores := make([]float64, len(models.AllSignals))
	errs := make([]error, len(models.AllSignals))

	// plain group: a failing port never cancels its siblings
	var g errgroup.Group
	for i, sig := range models.AllSignals {
		g.Go(func() error {
			scores[i], errs[i] = e.invoke(ctx, sig, a, b)
			return nil
		})
	}
	_ = g.Wait()

	result := SignalResult{}
	for i, sig := range models.AllSignals {
		if errs[i] != nil {
			if result.Failed == nil {
				result.Failed = make(map[models.Signal]error)
			}
			result.Failed[sig] = errs[i]
			metrics.ObserveSignalFailure(string(sig))
			e.logger.Warn("signal analyzer failed, degrading to zero",
				slog.String("signal", string(sig)),
				slog.String("src", a.ID),
				slog.String("dst", b.ID),
				slog.Any("error", errs[i]),
			)
			continue
		}
		result.Vector.Set(sig, scores[i])
	}
	result.Vector = result.Vector.Clamp()

	if len(result.Failed) == len(models.AllSignals) {
		e.logger.Error("all signal analyzers failed", slog.String("src", a.ID), slog.String("dst", b.ID))
	}
	return result
}

func (e *SignalEngine) invoke(ctx context.Context, sig models.Signal, a, b models.ContextNode) (float64, error) {
	if e.cfg.AnalyzerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.AnalyzerTimeout)
		defer cancel()
	}

	type outcome struct {
		score float64
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%s analyzer panicked: %v", sig, r)}
			}
		}()
		score, err := e.call(ctx, sig, a.Features, b.Features)
		done <- outcome{score: score, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return 0, out.err
		}
		return out.score, nil
	case <-ctx.Done():
		return 0, fmt.Errorf("%s analyzer: %w", sig, ctx.Err())
	}
}

func (e *SignalEngine) call(ctx context.Context, sig models.Signal, a, b models.Features) (float64, error) {
	switch sig {
	case models.SignalSemantic:
		return e.analyzers.SemanticSimilarity(ctx, a.Text, b.Text)
	case models.SignalStatistical:
		return e.analyzers.StatisticalCorrelation(ctx, a.Series, b.Series)
	case models.SignalStructural:
		return e.analyzers.StructuralOverlap(ctx, a.Metadata, b.Metadata)
	case models.SignalTemporal:
		return e.analyzers.CausalLeadLag(ctx, a.Timeline, b.Timeline)
	case models.SignalSpatial:
		return e.analyzers.SpatialProximity(ctx, a.Location, b.Location)
	default:
		return 0, fmt.Errorf("unknown signal %q", sig)
	}
}

// EvaluatePromotion checks each family against its threshold (score >=
// threshold passes) and promotes when at least minRequired families pass.
// Families missing from thresholds use the defaults; minRequired <= 0 means 2.
func EvaluatePromotion(signals models.SignalVector, thresholds models.Thresholds, minRequired int) (bool, map[models.Signal]bool) {
	if minRequired <= 0 {
		minRequired = defaultMinSignals
	}
	defaults := models.DefaultThresholds()
	passed := make(map[models.Signal]bool, len(models.AllSignals))
	count := 0
	for _, sig := range models.AllSignals {
		threshold, ok := thresholds[sig]
		if !ok {
			threshold = defaults[sig]
		}
		ok = signals.Get(sig) >= threshold
		passed[sig] = ok
		if ok {
			count++
		}
	}
	return count >= minRequired, passed
}

// EvaluatePromotion applies the engine's threshold table.
func (e *SignalEngine) EvaluatePromotion(signals models.SignalVector) (bool, map[models.Signal]bool) {
	return EvaluatePromotion(signals, e.cfg.Thresholds, e.cfg.MinSignalsRequired)
}

// CreateEdge builds a relationship edge from src to dst. Strength is the mean
// of the signals that passed their threshold (0 when none did); a
// non-positive confidence uses the configured default. Unknown edge types
// fall back to related_to.
func (e *SignalEngine) CreateEdge(src, dst string, edgeType models.EdgeType, signals models.SignalVector, confidence float64) models.RelationshipEdge {
	if confidence <= 0 {
		confidence = e.cfg.DefaultConfidence
	}
	if !edgeType.Valid() {
		e.logger.Debug("unknown edge type, using related_to", slog.String("type", string(edgeType)))
		edgeType = models.EdgeRelatedTo
	}
	signals = signals.Clamp()
	_, passed := e.EvaluatePromotion(signals)

	sum := 0.0
	count := 0
	for _, sig := range models.AllSignals {
		if passed[sig] {
			sum += signals.Get(sig)
			count++
		}
	}
	strength := 0.0
	if count > 0 {
		strength = sum / float64(count)
	}

	started := e.now().UTC()
	return models.RelationshipEdge{
		ID:              uuid.NewString(),
		Src:             src,
		Dst:             dst,
		Type:            edgeType,
		Strength:        models.ClampUnit(strength),
		Confidence:      models.ClampUnit(confidence),
		Signals:         signals,
		SignalsRequired: e.cfg.MinSignalsRequired,
		SignalsPassed:   count,
		ImpactWeight:    1.0,
		StartedAt:       &started,
		Provenance: models.Provenance{
			Method:     PromotionMethod,
			Version:    PromotionVersion,
			Thresholds: e.cfg.Thresholds.Clone(),
			RawScores:  signals.Map(),
			Passed:     passed,
		},
	}
}

// Outcome is the result of evaluating a candidate pair.
type Outcome string

const (
	OutcomePromote Outcome = "promote"
	OutcomeReject  Outcome = "reject"
	OutcomeHold    Outcome = "hold"
)

// Reasons attached to non-promoted decisions.
const (
	ReasonInsufficientSignals = "insufficient_signals"
	ReasonDegradedSignals     = "degraded_signals"
	ReasonSelfPair            = "self_pair"
	ReasonAlreadyRelated      = "already_related"
)

// EvaluateOptions customise the edge produced by a promotion.
type EvaluateOptions struct {
	// Type overrides rule-based classification when set.
	Type       models.EdgeType
	Confidence float64
	// ImpactWeight overrides the default 1.0 when positive.
	ImpactWeight float64
}

// Decision is the full outcome of evaluating one candidate pair.
type Decision struct {
	Src         string
	Dst         string
	Outcome     Outcome
	Reason      string
	Signals     models.SignalVector
	Passed      map[models.Signal]bool
	PassedCount int
	Failed      []models.Signal
	Edge        *models.RelationshipEdge
}

// Evaluate computes signals for a and b and decides the pair: promote when
// enough families agree, hold when failed ports could still have tipped the
// count over the minimum, reject otherwise. Not promoting is a normal result.
func (e *SignalEngine) Evaluate(ctx context.Context, a, b models.ContextNode, opts EvaluateOptions) Decision {
	decision := Decision{Src: a.ID, Dst: b.ID}
	if a.ID == b.ID {
		decision.Outcome = OutcomeReject
		decision.Reason = ReasonSelfPair
		return decision
	}

	result := e.ComputeSignals(ctx, a, b)
	ok, passed := e.EvaluatePromotion(result.Vector)
	decision.Signals = result.Vector
	decision.Passed = passed
	decision.Failed = result.FailedSignals()
	for _, p := range passed {
		if p {
			decision.PassedCount++
		}
	}

	if !ok {
		decision.Outcome = OutcomeReject
		decision.Reason = ReasonInsufficientSignals
		if decision.PassedCount+len(decision.Failed) >= e.cfg.MinSignalsRequired && len(decision.Failed) > 0 {
			decision.Outcome = OutcomeHold
			decision.Reason = ReasonDegradedSignals
		}
		return decision
	}

	edgeType := opts.Type
	if edgeType == "" {
		edgeType = models.EdgeRelatedTo
		if t, ruleID, matched := e.rules.Classify(passed, meanPassed(result.Vector, passed)); matched {
			edgeType = t
			e.logger.Debug("edge type rule matched", slog.String("rule", ruleID), slog.String("type", string(t)))
		}
	}
	edge := e.CreateEdge(a.ID, b.ID, edgeType, result.Vector, opts.Confidence)
	if opts.ImpactWeight > 0 {
		edge.ImpactWeight = opts.ImpactWeight
	}
	edge.Provenance.FailedSignals = decision.Failed
	decision.Outcome = OutcomePromote
	decision.Edge = &edge
	return decision
}

func meanPassed(v models.SignalVector, passed map[models.Signal]bool) float64 {
	sum, n := 0.0, 0
	for _, sig := range models.AllSignals {
		if passed[sig] {
			sum += v.Get(sig)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
