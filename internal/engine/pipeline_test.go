package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/miradorstack/mirador-context/internal/models"
	"github.com/miradorstack/mirador-context/internal/patterns"
)

var errMissing = errors.New("missing")

type fakeGraphStore struct {
	mu         sync.Mutex
	nodes      map[string]models.ContextNode
	edges      []models.RelationshipEdge
	persistErr error
}

func newFakeGraphStore(nodes ...models.ContextNode) *fakeGraphStore {
	f := &fakeGraphStore{nodes: make(map[string]models.ContextNode)}
	for _, n := range nodes {
		f.nodes[n.ID] = n
	}
	return f
}

func (f *fakeGraphStore) GetNode(ctx context.Context, id string) (models.ContextNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[id]
	if !ok {
		return models.ContextNode{}, errMissing
	}
	return n, nil
}

func (f *fakeGraphStore) ListNodes(ctx context.Context) ([]models.ContextNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.ContextNode, 0, len(f.nodes))
	for _, n := range f.nodes {
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeGraphStore) OpenEdges(ctx context.Context) ([]models.RelationshipEdge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.RelationshipEdge, 0, len(f.edges))
	for _, e := range f.edges {
		if e.Open() {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeGraphStore) PersistEdge(ctx context.Context, edge models.RelationshipEdge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.persistErr != nil {
		return f.persistErr
	}
	f.edges = append(f.edges, edge)
	return nil
}

func (f *fakeGraphStore) CloseEdge(ctx context.Context, id string, endedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.edges {
		if f.edges[i].ID == id && f.edges[i].Open() {
			f.edges[i].EndedAt = &endedAt
			return nil
		}
	}
	return errMissing
}

// textAnalyzers scores two signals from node text so that pairs sharing a
// prefix agree and others do not.
func textAnalyzers() AnalyzerFuncs {
	agree := func(a, b string) float64 {
		if a != "" && b != "" && a[:1] == b[:1] {
			return 0.9
		}
		return 0
	}
	return AnalyzerFuncs{
		Semantic: func(ctx context.Context, a, b string) (float64, error) {
			return agree(a, b), nil
		},
		Statistical: func(ctx context.Context, a, b []float64) (float64, error) { return 0, nil },
		Structural:  func(ctx context.Context, a, b map[string]string) (float64, error) { return 0, nil },
		Temporal:    func(ctx context.Context, a, b []time.Time) (float64, error) { return 0, nil },
		Spatial: func(ctx context.Context, a, b *models.Location) (float64, error) {
			if a == nil || b == nil {
				return 0, nil
			}
			return 0.9, nil
		},
	}
}

func textNode(id, text string) models.ContextNode {
	return models.ContextNode{
		ID:       id,
		Features: models.Features{Text: text, Location: &models.Location{}},
	}
}

func newTestPipeline(t *testing.T, store GraphStore) *Pipeline {
	t.Helper()
	signals, err := NewSignalEngine(nil, textAnalyzers(), DefaultSignalConfig(), nil)
	if err != nil {
		t.Fatalf("signal engine: %v", err)
	}
	influence, err := NewInfluenceEngine(nil, DefaultInfluenceConfig())
	if err != nil {
		t.Fatalf("influence engine: %v", err)
	}
	analyzer := patterns.NewAnalyzer(nil, patterns.DefaultConfig(), nil, 0, nil)
	return NewPipeline(nil, store, signals, analyzer, influence, 4)
}

func TestAllPairs(t *testing.T) {
	pairs := AllPairs([]models.ContextNode{{ID: "c"}, {ID: "a"}, {ID: "b"}})
	if len(pairs) != 6 {
		t.Fatalf("expected 6 ordered pairs, got %d", len(pairs))
	}
	want := []CandidatePair{
		{Src: "a", Dst: "b"}, {Src: "a", Dst: "c"},
		{Src: "b", Dst: "a"}, {Src: "b", Dst: "c"},
		{Src: "c", Dst: "a"}, {Src: "c", Dst: "b"},
	}
	for i, w := range want {
		if pairs[i].Src != w.Src || pairs[i].Dst != w.Dst {
			t.Fatalf("pair %d: expected %s->%s, got %+v", i, w.Src, w.Dst, pairs[i])
		}
	}
}

func TestPipelinePromoteCandidates(t *testing.T) {
	store := newFakeGraphStore(
		textNode("a", "alpha"),
		textNode("b", "apex"),
		textNode("c", "zulu"),
	)
	p := newTestPipeline(t, store)
	pairs, err := p.CandidatePairs(context.Background())
	if err != nil {
		t.Fatalf("CandidatePairs: %v", err)
	}

	summary, err := p.PromoteCandidates(context.Background(), pairs)
	if err != nil {
		t.Fatalf("PromoteCandidates: %v", err)
	}
	if summary.Promoted != 2 || summary.Rejected != 4 {
		t.Fatalf("expected 2 promoted and 4 rejected, got %+v", summary)
	}
	if summary.Decisions[0].Outcome != OutcomePromote {
		t.Fatalf("expected a->b promoted, got %s", summary.Decisions[0].Outcome)
	}
	if len(store.edges) != 2 {
		t.Fatalf("expected a->b and b->a edges, got %+v", store.edges)
	}
	directions := map[string]bool{}
	for _, e := range store.edges {
		directions[e.Src+"->"+e.Dst] = true
	}
	if !directions["a->b"] || !directions["b->a"] {
		t.Fatalf("expected both directions persisted, got %v", directions)
	}

	again, err := p.PromoteCandidates(context.Background(), pairs[:1])
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if again.Decisions[0].Reason != ReasonAlreadyRelated {
		t.Fatalf("expected already_related, got %+v", again.Decisions[0])
	}
	if len(store.edges) != 2 {
		t.Fatalf("expected no duplicate edge, got %d", len(store.edges))
	}
}

func TestPipelinePromoteCandidatesStoreErrors(t *testing.T) {
	store := newFakeGraphStore(textNode("a", "alpha"), textNode("b", "apex"))
	store.persistErr = errors.New("disk full")
	p := newTestPipeline(t, store)

	_, err := p.PromoteCandidates(context.Background(), []CandidatePair{{Src: "a", Dst: "b"}})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected persist error, got %v", err)
	}

	_, err = p.PromoteCandidates(context.Background(), []CandidatePair{{Src: "a", Dst: "ghost"}})
	if !errors.Is(err, errMissing) {
		t.Fatalf("expected missing node error, got %v", err)
	}
}

func TestPipelineSupersedeAndPatterns(t *testing.T) {
	store := newFakeGraphStore(textNode("a", "alpha"), textNode("b", "apex"))
	p := newTestPipeline(t, store)
	if _, err := p.PromoteCandidates(context.Background(), AllPairs([]models.ContextNode{{ID: "a"}, {ID: "b"}})); err != nil {
		t.Fatalf("PromoteCandidates: %v", err)
	}

	report, err := p.AnalyzePatterns(context.Background(), nil)
	if err != nil {
		t.Fatalf("AnalyzePatterns: %v", err)
	}
	if report.NodeCount != 2 || report.EdgeCount != 2 {
		t.Fatalf("unexpected report sizes: %+v", report)
	}
	if report.SpiralsAnalyzed {
		t.Fatalf("expected no spiral analysis without positions")
	}

	id := store.edges[0].ID
	if err := p.Supersede(context.Background(), id, time.Now()); err != nil {
		t.Fatalf("Supersede: %v", err)
	}
	if err := p.Supersede(context.Background(), id, time.Now()); err == nil {
		t.Fatalf("expected error closing an already closed edge")
	}
	snapshot, err := p.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snapshot.EdgeCount() != 1 {
		t.Fatalf("expected closed edge to leave the snapshot, got %d", snapshot.EdgeCount())
	}
}

func TestPipelineAgreeingTriadClosesTriangles(t *testing.T) {
	store := newFakeGraphStore(
		textNode("a", "alpha"),
		textNode("b", "apex"),
		textNode("c", "atlas"),
	)
	p := newTestPipeline(t, store)
	pairs, err := p.CandidatePairs(context.Background())
	if err != nil {
		t.Fatalf("CandidatePairs: %v", err)
	}
	summary, err := p.PromoteCandidates(context.Background(), pairs)
	if err != nil {
		t.Fatalf("PromoteCandidates: %v", err)
	}
	if summary.Promoted != 6 {
		t.Fatalf("expected every ordered pair promoted, got %+v", summary)
	}

	report, err := p.AnalyzePatterns(context.Background(), nil)
	if err != nil {
		t.Fatalf("AnalyzePatterns: %v", err)
	}
	if report.Triangles.Count != 2 {
		t.Fatalf("expected both directed triangles, got %d", report.Triangles.Count)
	}
	if report.TriangleDensity != 1 || report.SacredGeometryScore <= 0 {
		t.Fatalf("expected full triangle density and a positive score, got %+v", report)
	}
}

func TestPipelinePrioritize(t *testing.T) {
	now := time.Now()
	urgent := textNode("urgent", "x")
	urgent.Attributes.Priority = models.LevelCritical
	calm := textNode("calm", "y")
	calm.Attributes.Priority = models.LevelLow
	store := newFakeGraphStore(urgent, calm)
	p := newTestPipeline(t, store)

	ranked, err := p.Prioritize(context.Background(), now, nil)
	if err != nil {
		t.Fatalf("Prioritize: %v", err)
	}
	if len(ranked) != 2 || ranked[0].NodeID != "urgent" {
		t.Fatalf("expected urgent first, got %+v", ranked)
	}
}
