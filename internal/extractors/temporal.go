package extractors

import (
	"sort"
	"time"

	"github.com/miradorstack/mirador-context/internal/models"
)

// TemporalAnalyzer scores lead/lag ordering between two event timelines: how
// consistently events on one timeline precede events on the other within a
// bounded lag.
type TemporalAnalyzer struct {
	maxLag time.Duration
}

// NewTemporalAnalyzer constructs a TemporalAnalyzer; non-positive lags default to 24h.
func NewTemporalAnalyzer(maxLag time.Duration) *TemporalAnalyzer {
	if maxLag <= 0 {
		maxLag = 24 * time.Hour
	}
	return &TemporalAnalyzer{maxLag: maxLag}
}

// LeadLag returns a score in [0,1]. The better of the two directions is used;
// any support is scored 0.4 + 0.6*fraction.
func (a *TemporalAnalyzer) LeadLag(x, y []time.Time) float64 {
	if len(x) == 0 || len(y) == 0 {
		return 0
	}
	xs := sortedTimes(x)
	ys := sortedTimes(y)

	fraction := a.precededFraction(xs, ys)
	if reverse := a.precededFraction(ys, xs); reverse > fraction {
		fraction = reverse
	}
	if fraction == 0 {
		return 0
	}
	return models.ClampUnit(0.4 + 0.6*fraction)
}

// precededFraction reports the share of follower events that have a leader
// event strictly before them and no more than maxLag earlier.
func (a *TemporalAnalyzer) precededFraction(leader, follower []time.Time) float64 {
	supporting := 0
	for _, ev := range follower {
		// index of the first leader event at or after ev
		idx := sort.Search(len(leader), func(i int) bool {
			return !leader[i].Before(ev)
		})
		if idx == 0 {
			continue
		}
		if ev.Sub(leader[idx-1]) <= a.maxLag {
			supporting++
		}
	}
	return float64(supporting) / float64(len(follower))
}

func sortedTimes(ts []time.Time) []time.Time {
	out := append([]time.Time(nil), ts...)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
