package patterns

import "github.com/miradorstack/mirador-context/internal/models"

// FindPentagonCycles enumerates every simple directed cycle of exactly five
// nodes. Each cycle is reported once, starting at its lexicographically
// smallest node id.
//
// Enumeration is a bounded depth-first search and its cost grows
// combinatorially with node degree; restrict large graphs to a component
// before calling.
func FindPentagonCycles(s *Snapshot) [][]string {
	return s.cyclesOfLength(5)
}

// AnalyzeTriangleClosures counts simple directed 3-cycles. Individual
// triangles are listed only when the snapshot has at most listLimit nodes.
func AnalyzeTriangleClosures(s *Snapshot, listLimit int) models.TriangleReport {
	triangles := s.cyclesOfLength(3)
	report := models.TriangleReport{
		Count:              len(triangles),
		StabilityIndicator: len(triangles),
	}
	if s.Len() <= listLimit {
		report.Triangles = triangles
	}
	return report
}

func (s *Snapshot) cyclesOfLength(k int) [][]string {
	if k < 2 || s.Len() < k {
		return nil
	}
	var cycles [][]string
	path := make([]int64, 0, k)
	onPath := make([]bool, s.Len())

	var walk func(start, v int64)
	walk = func(start, v int64) {
		for _, w := range s.succ[v] {
			if w == start {
				if len(path) == k {
					cycles = append(cycles, s.names(path))
				}
				continue
			}
			// only nodes above start, so each cycle is rooted at its minimum
			if w < start || onPath[w] || len(path) >= k {
				continue
			}
			path = append(path, w)
			onPath[w] = true
			walk(start, w)
			onPath[w] = false
			path = path[:len(path)-1]
		}
	}

	for start := int64(0); start < int64(s.Len()); start++ {
		path = append(path[:0], start)
		onPath[start] = true
		walk(start, start)
		onPath[start] = false
	}
	return cycles
}
