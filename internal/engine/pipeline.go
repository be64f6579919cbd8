package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/miradorstack/mirador-context/internal/metrics"
	"github.com/miradorstack/mirador-context/internal/models"
	"github.com/miradorstack/mirador-context/internal/patterns"
)

// GraphStore is the persistence port of the pipeline.
type GraphStore interface {
	GetNode(ctx context.Context, id string) (models.ContextNode, error)
	ListNodes(ctx context.Context) ([]models.ContextNode, error)
	OpenEdges(ctx context.Context) ([]models.RelationshipEdge, error)
	PersistEdge(ctx context.Context, edge models.RelationshipEdge) error
	CloseEdge(ctx context.Context, id string, endedAt time.Time) error
}

// CandidatePair is an ordered pair of nodes to evaluate.
type CandidatePair struct {
	Src     string
	Dst     string
	Options EvaluateOptions
}

// PromotionSummary collects the decisions of a promotion pass in input order.
type PromotionSummary struct {
	Decisions []Decision
	Promoted  int
	Rejected  int
	Held      int
}

// Pipeline wires the engines to a graph store: pairs flow through signal
// consensus into persisted edges, snapshots feed pattern analysis, and
// current edges feed priority ranking.
type Pipeline struct {
	logger    *slog.Logger
	store     GraphStore
	signals   *SignalEngine
	analyzer  *patterns.Analyzer
	influence *InfluenceEngine
	workers   int
	now       func() time.Time
}

// NewPipeline constructs a Pipeline. workers <= 0 evaluates pairs sequentially.
func NewPipeline(
	logger *slog.Logger,
	store GraphStore,
	signals *SignalEngine,
	analyzer *patterns.Analyzer,
	influence *InfluenceEngine,
	workers int,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = 1
	}
	return &Pipeline{
		logger:    logger,
		store:     store,
		signals:   signals,
		analyzer:  analyzer,
		influence: influence,
		workers:   workers,
		now:       time.Now,
	}
}

// AllPairs returns every ordered pair of distinct nodes, sorted by source
// then destination id. Both directions are proposed so that each can be
// promoted on its own evidence.
func AllPairs(nodes []models.ContextNode) []CandidatePair {
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	sort.Strings(ids)
	pairs := make([]CandidatePair, 0, len(ids)*(len(ids)-1))
	for i := 0; i < len(ids); i++ {
		for j := 0; j < len(ids); j++ {
			if ids[i] == ids[j] {
				continue
			}
			pairs = append(pairs, CandidatePair{Src: ids[i], Dst: ids[j]})
		}
	}
	return pairs
}

// CandidatePairs lists every ordered pair of stored nodes.
func (p *Pipeline) CandidatePairs(ctx context.Context) ([]CandidatePair, error) {
	nodes, err := p.store.ListNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	return AllPairs(nodes), nil
}

// PromoteCandidates evaluates pairs concurrently and persists promoted
// edges. Pairs that already have an open edge in the same direction are
// rejected without computing signals. Store failures abort the pass.
func (p *Pipeline) PromoteCandidates(ctx context.Context, pairs []CandidatePair) (PromotionSummary, error) {
	if p.store == nil || p.signals == nil {
		return PromotionSummary{}, fmt.Errorf("pipeline not configured")
	}
	open, err := p.store.OpenEdges(ctx)
	if err != nil {
		return PromotionSummary{}, fmt.Errorf("load open edges: %w", err)
	}
	related := make(map[[2]string]struct{}, len(open))
	for _, e := range open {
		related[[2]string{e.Src, e.Dst}] = struct{}{}
	}

	decisions := make([]Decision, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, pair := range pairs {
		if _, ok := related[[2]string{pair.Src, pair.Dst}]; ok {
			decisions[i] = Decision{Src: pair.Src, Dst: pair.Dst, Outcome: OutcomeReject, Reason: ReasonAlreadyRelated}
			continue
		}
		g.Go(func() error {
			d, err := p.promote(gctx, pair)
			if err != nil {
				return err
			}
			decisions[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return PromotionSummary{}, err
	}

	summary := PromotionSummary{Decisions: decisions}
	for _, d := range decisions {
		metrics.ObservePromotion(string(d.Outcome))
		switch d.Outcome {
		case OutcomePromote:
			summary.Promoted++
		case OutcomeHold:
			summary.Held++
		default:
			summary.Rejected++
		}
	}
	p.logger.Info("promotion pass complete",
		slog.Int("pairs", len(pairs)),
		slog.Int("promoted", summary.Promoted),
		slog.Int("held", summary.Held),
		slog.Int("rejected", summary.Rejected),
	)
	return summary, nil
}

func (p *Pipeline) promote(ctx context.Context, pair CandidatePair) (Decision, error) {
	if pair.Src == pair.Dst {
		return Decision{Src: pair.Src, Dst: pair.Dst, Outcome: OutcomeReject, Reason: ReasonSelfPair}, nil
	}
	a, err := p.store.GetNode(ctx, pair.Src)
	if err != nil {
		return Decision{}, fmt.Errorf("get node %s: %w", pair.Src, err)
	}
	b, err := p.store.GetNode(ctx, pair.Dst)
	if err != nil {
		return Decision{}, fmt.Errorf("get node %s: %w", pair.Dst, err)
	}

	d := p.signals.Evaluate(ctx, a, b, pair.Options)
	if d.Outcome != OutcomePromote {
		return d, nil
	}
	if err := p.store.PersistEdge(ctx, *d.Edge); err != nil {
		return Decision{}, fmt.Errorf("persist edge %s->%s: %w", pair.Src, pair.Dst, err)
	}
	p.logger.Debug("edge promoted",
		slog.String("id", d.Edge.ID),
		slog.String("src", d.Src),
		slog.String("dst", d.Dst),
		slog.String("type", string(d.Edge.Type)),
		slog.Float64("strength", d.Edge.Strength),
	)
	return d, nil
}

// Supersede closes edgeID at when. Edges are never deleted.
func (p *Pipeline) Supersede(ctx context.Context, edgeID string, when time.Time) error {
	if when.IsZero() {
		when = p.now()
	}
	if err := p.store.CloseEdge(ctx, edgeID, when.UTC()); err != nil {
		return fmt.Errorf("close edge %s: %w", edgeID, err)
	}
	return nil
}

// Snapshot captures the current nodes and open edges.
func (p *Pipeline) Snapshot(ctx context.Context) (*patterns.Snapshot, error) {
	nodes, err := p.store.ListNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	edges, err := p.store.OpenEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("load open edges: %w", err)
	}
	return patterns.NewSnapshot(nodes, edges), nil
}

// AnalyzePatterns runs pattern analysis over a fresh snapshot. positions may
// be nil, in which case spiral detection is skipped.
func (p *Pipeline) AnalyzePatterns(ctx context.Context, positions map[string]models.Point) (models.PatternReport, error) {
	if p.analyzer == nil {
		return models.PatternReport{}, fmt.Errorf("pattern analyzer not configured")
	}
	snapshot, err := p.Snapshot(ctx)
	if err != nil {
		return models.PatternReport{}, err
	}
	return p.analyzer.Analyze(ctx, snapshot, positions)
}

// Prioritize ranks every node at now using the current open edges.
func (p *Pipeline) Prioritize(ctx context.Context, now time.Time, overrides map[string]models.Override) ([]models.RankedNode, error) {
	if p.influence == nil {
		return nil, fmt.Errorf("influence engine not configured")
	}
	nodes, err := p.store.ListNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	edges, err := p.store.OpenEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("load open edges: %w", err)
	}
	return p.influence.RankNodes(nodes, edges, now, overrides), nil
}
