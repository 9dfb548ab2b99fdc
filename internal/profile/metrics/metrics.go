package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the profile module.
type Metrics struct {
	// Assessment outcomes by status and risk level
	Outcomes *prometheus.CounterVec

	// Confidence attached to assessments by input source
	Confidence *prometheus.HistogramVec

	// Text extraction latency and failures by backend
	ExtractionLatency  *prometheus.HistogramVec
	ExtractionFailures *prometheus.CounterVec

	// Overall analysis latency including extraction and persistence
	AnalyzeLatency prometheus.Histogram
}

// New creates a new Metrics instance registered with reg.
// Passing nil registers with the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "healthrisk_assessment_outcomes_total",
			Help: "Total assessments by status and risk level",
		}, []string{"status", "risk_level"}),

		Confidence: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "healthrisk_assessment_confidence",
			Help:    "Confidence of interpreted survey answers by input source",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		}, []string{"source"}),

		ExtractionLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "healthrisk_extraction_duration_seconds",
			Help:    "Duration of image text extraction by backend",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"backend"}),

		ExtractionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "healthrisk_extraction_failures_total",
			Help: "Image text extractions that failed and degraded to an empty profile",
		}, []string{"backend"}),

		AnalyzeLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "healthrisk_analyze_duration_seconds",
			Help:    "Duration of full survey analysis",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}),
	}
}

// IncrementOutcome records an assessment outcome.
func (m *Metrics) IncrementOutcome(status, riskLevel string) {
	if m != nil {
		m.Outcomes.WithLabelValues(status, riskLevel).Inc()
	}
}

// ObserveConfidence records the confidence of an assessment.
func (m *Metrics) ObserveConfidence(source string, confidence float64) {
	if m != nil {
		m.Confidence.WithLabelValues(source).Observe(confidence)
	}
}

// ObserveExtraction records an extraction attempt.
func (m *Metrics) ObserveExtraction(backend string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.ExtractionLatency.WithLabelValues(backend).Observe(d.Seconds())
	if err != nil {
		m.ExtractionFailures.WithLabelValues(backend).Inc()
	}
}

// ObserveAnalyzeLatency records the total analysis duration.
func (m *Metrics) ObserveAnalyzeLatency(d time.Duration) {
	if m != nil {
		m.AnalyzeLatency.Observe(d.Seconds())
	}
}
