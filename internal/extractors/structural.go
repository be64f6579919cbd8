package extractors

// StructuralAnalyzer scores metadata overlap as shared key/value pairs over
// the union of keys.
type StructuralAnalyzer struct{}

// NewStructuralAnalyzer constructs a StructuralAnalyzer.
func NewStructuralAnalyzer() *StructuralAnalyzer {
	return &StructuralAnalyzer{}
}

// Overlap returns a score in [0,1]; empty metadata scores 0.
func (a *StructuralAnalyzer) Overlap(x, y map[string]string) float64 {
	if len(x) == 0 || len(y) == 0 {
		return 0
	}
	shared := 0
	keys := len(y)
	for k, v := range x {
		other, ok := y[k]
		if !ok {
			keys++
			continue
		}
		if other == v {
			shared++
		}
	}
	return float64(shared) / float64(keys)
}
