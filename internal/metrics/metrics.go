package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// DecisionPromote labels candidate pairs that became edges.
	DecisionPromote = "promote"
	// DecisionReject labels pairs without enough agreeing signals.
	DecisionReject = "reject"
	// DecisionHold labels pairs whose outcome was undetermined because ports failed.
	DecisionHold = "hold"
)

var (
	promotionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mirador_context",
			Name:      "promotions_total",
			Help:      "Relationship promotion decisions, partitioned by decision.",
		},
		[]string{"decision"},
	)

	signalFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mirador_context",
			Name:      "signal_failures_total",
			Help:      "Analyzer port failures degraded to a zero score, partitioned by signal family.",
		},
		[]string{"signal"},
	)

	patternAnalysisSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mirador_context",
			Name:      "pattern_analysis_seconds",
			Help:      "Comprehensive pattern analysis latency in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	patternFindings = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "mirador_context",
			Name:      "pattern_findings",
			Help:      "Findings in the latest pattern report, partitioned by kind.",
		},
		[]string{"kind"},
	)
)

// Register attaches mirador-context collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		promotionsTotal,
		signalFailuresTotal,
		patternAnalysisSeconds,
		patternFindings,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObservePromotion counts a promotion decision.
func ObservePromotion(decision string) {
	switch decision {
	case DecisionPromote, DecisionReject, DecisionHold:
	default:
		decision = DecisionReject
	}
	promotionsTotal.WithLabelValues(decision).Inc()
}

// ObserveSignalFailure counts a degraded analyzer call.
func ObserveSignalFailure(signal string) {
	signalFailuresTotal.WithLabelValues(signal).Inc()
}

// ObservePatternAnalysis records analysis latency and the size of each finding kind.
func ObservePatternAnalysis(duration time.Duration, pentagons, triangles, spirals int) {
	if duration < 0 {
		duration = 0
	}
	patternAnalysisSeconds.Observe(duration.Seconds())
	patternFindings.WithLabelValues("pentagon").Set(float64(pentagons))
	patternFindings.WithLabelValues("triangle").Set(float64(triangles))
	patternFindings.WithLabelValues("spiral").Set(float64(spirals))
}
