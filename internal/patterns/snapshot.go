package patterns

import (
	"math"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/miradorstack/mirador-context/internal/models"
)

// Snapshot is an immutable view of the relationship graph: nodes plus the
// edges that were open when it was built. Node ids are interned into a sorted
// arena so that graph nodes are plain int64 indices and every traversal is
// deterministic.
type Snapshot struct {
	ids         []string
	index       map[string]int64
	graph       *simple.WeightedDirectedGraph
	succ        [][]int64
	edgeCount   int
	fingerprint string
}

// NewSnapshot builds a Snapshot. Closed edges and self-loops are dropped;
// parallel edges between the same ordered pair keep the strongest. Edge
// endpoints missing from nodes are still added to the arena.
func NewSnapshot(nodes []models.ContextNode, edges []models.RelationshipEdge) *Snapshot {
	seen := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if n.ID != "" {
			seen[n.ID] = struct{}{}
		}
	}
	for _, e := range edges {
		if !e.Open() || e.Src == "" || e.Dst == "" {
			continue
		}
		seen[e.Src] = struct{}{}
		seen[e.Dst] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	s := &Snapshot{
		ids:   ids,
		index: make(map[string]int64, len(ids)),
		graph: simple.NewWeightedDirectedGraph(0, math.Inf(1)),
	}
	for i, id := range ids {
		s.index[id] = int64(i)
		s.graph.AddNode(simple.Node(i))
	}

	for _, e := range edges {
		if !e.Open() || e.Src == e.Dst {
			continue
		}
		from, okFrom := s.index[e.Src]
		to, okTo := s.index[e.Dst]
		if !okFrom || !okTo {
			continue
		}
		weight := models.ClampUnit(e.Strength)
		if existing := s.graph.WeightedEdge(from, to); existing != nil {
			if existing.Weight() >= weight {
				continue
			}
		} else {
			s.edgeCount++
		}
		s.graph.SetWeightedEdge(s.graph.NewWeightedEdge(simple.Node(from), simple.Node(to), weight))
	}

	s.succ = make([][]int64, len(ids))
	for i := range ids {
		targets := graph.NodesOf(s.graph.From(int64(i)))
		out := make([]int64, len(targets))
		for j, n := range targets {
			out[j] = n.ID()
		}
		sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
		s.succ[i] = out
	}
	s.fingerprint = s.computeFingerprint()
	return s
}

// Len returns the number of nodes.
func (s *Snapshot) Len() int { return len(s.ids) }

// EdgeCount returns the number of distinct directed edges.
func (s *Snapshot) EdgeCount() int { return s.edgeCount }

// Fingerprint is a stable hash of the node set and weighted edge set.
func (s *Snapshot) Fingerprint() string { return s.fingerprint }

// Weight returns the strength of the edge src->dst.
func (s *Snapshot) Weight(src, dst string) (float64, bool) {
	from, okFrom := s.index[src]
	to, okTo := s.index[dst]
	if !okFrom || !okTo || from == to {
		return 0, false
	}
	e := s.graph.WeightedEdge(from, to)
	if e == nil {
		return 0, false
	}
	return e.Weight(), true
}

func (s *Snapshot) id(i int64) string { return s.ids[i] }

func (s *Snapshot) names(path []int64) []string {
	out := make([]string, len(path))
	for i, idx := range path {
		out[i] = s.ids[idx]
	}
	return out
}

func (s *Snapshot) computeFingerprint() string {
	h := xxhash.New()
	for i, id := range s.ids {
		_, _ = h.WriteString(id)
		_, _ = h.WriteString("\x00")
		for _, to := range s.succ[i] {
			w := s.graph.WeightedEdge(int64(i), to).Weight()
			_, _ = h.WriteString(strconv.FormatInt(to, 10))
			_, _ = h.WriteString(":")
			_, _ = h.WriteString(strconv.FormatFloat(w, 'g', -1, 64))
			_, _ = h.WriteString(";")
		}
		_, _ = h.WriteString("\n")
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
