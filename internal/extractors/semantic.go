package extractors

import (
	"strings"
	"unicode"

	"github.com/miradorstack/mirador-context/internal/models"
)

// SemanticAnalyzer scores textual similarity as a blend of token and
// character-bigram Jaccard overlap. It is a lexical stand-in for embedding
// similarity.
type SemanticAnalyzer struct {
	tokenWeight float64
}

// NewSemanticAnalyzer weights token overlap at 0.7 and bigram overlap at 0.3.
func NewSemanticAnalyzer() *SemanticAnalyzer {
	return &SemanticAnalyzer{tokenWeight: 0.7}
}

// Similarity returns a score in [0,1]. Empty text scores 0.
func (a *SemanticAnalyzer) Similarity(x, y string) float64 {
	x = strings.ToLower(strings.TrimSpace(x))
	y = strings.ToLower(strings.TrimSpace(y))
	if x == "" || y == "" {
		return 0
	}
	if x == y {
		return 1
	}
	tokens := jaccard(tokenSet(x), tokenSet(y))
	grams := jaccard(bigramSet(x), bigramSet(y))
	return models.ClampUnit(a.tokenWeight*tokens + (1-a.tokenWeight)*grams)
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func bigramSet(s string) map[string]struct{} {
	runes := []rune(s)
	if len(runes) < 2 {
		return nil
	}
	set := make(map[string]struct{}, len(runes)-1)
	for i := 0; i < len(runes)-1; i++ {
		set[string(runes[i:i+2])] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for k := range a {
		if _, ok := b[k]; ok {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}
