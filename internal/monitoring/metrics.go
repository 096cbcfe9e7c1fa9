package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the resolver's prometheus collectors. A nil *Metrics is
// valid and records nothing, so the core can run without a registry.
type Metrics struct {
	Ticks           prometheus.Counter
	Published       *prometheus.CounterVec
	Feedback        *prometheus.CounterVec
	RoundResets     prometheus.Counter
	TargetSwitches  prometheus.Counter
	Confidence      prometheus.Histogram
	TrackedEntities prometheus.Gauge
	Accuracy        *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
// Passing nil registers with prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "facing",
			Subsystem: "resolver",
			Name:      "ticks_total",
			Help:      "Simulation ticks processed by the resolver.",
		}),
		Published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "facing",
			Subsystem: "resolver",
			Name:      "published_total",
			Help:      "Resolutions published to the override sink, by dominant method.",
		}, []string{"method"}),
		Feedback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "facing",
			Subsystem: "resolver",
			Name:      "feedback_total",
			Help:      "Hit/miss outcomes received from downstream consumers.",
		}, []string{"outcome"}),
		RoundResets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "facing",
			Subsystem: "resolver",
			Name:      "round_resets_total",
			Help:      "Round boundary resets applied.",
		}),
		TargetSwitches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "facing",
			Subsystem: "selector",
			Name:      "target_switches_total",
			Help:      "Times the selector changed its active target.",
		}),
		Confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "facing",
			Subsystem: "resolver",
			Name:      "confidence",
			Help:      "Confidence of published resolutions.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		TrackedEntities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "facing",
			Subsystem: "resolver",
			Name:      "tracked_entities",
			Help:      "Entities with live resolver state.",
		}),
		Accuracy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "facing",
			Subsystem: "resolver",
			Name:      "accuracy_ratio",
			Help:      "Hit ratio per entity since the last round reset.",
		}, []string{"entity"}),
	}
	reg.MustRegister(
		m.Ticks, m.Published, m.Feedback, m.RoundResets,
		m.TargetSwitches, m.Confidence, m.TrackedEntities, m.Accuracy,
	)
	return m
}

// ObserveTick counts one processed tick.
func (m *Metrics) ObserveTick() {
	if m == nil {
		return
	}
	m.Ticks.Inc()
}

// ObservePublished records one published resolution.
func (m *Metrics) ObservePublished(method string, confidence float64) {
	if m == nil {
		return
	}
	m.Published.WithLabelValues(method).Inc()
	m.Confidence.Observe(confidence)
}

// ObserveFeedback records a hit or miss and the entity's running accuracy.
func (m *Metrics) ObserveFeedback(entity string, hit bool, accuracy float64) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.Feedback.WithLabelValues(outcome).Inc()
	m.Accuracy.WithLabelValues(entity).Set(accuracy)
}

// ObserveRoundReset counts a reset and clears per-entity gauges.
func (m *Metrics) ObserveRoundReset() {
	if m == nil {
		return
	}
	m.RoundResets.Inc()
	m.Accuracy.Reset()
	m.TrackedEntities.Set(0)
}

// ObserveTargetSwitch counts a selector target change.
func (m *Metrics) ObserveTargetSwitch() {
	if m == nil {
		return
	}
	m.TargetSwitches.Inc()
}

// SetTracked records the number of entities with live state.
func (m *Metrics) SetTracked(n int) {
	if m == nil {
		return
	}
	m.TrackedEntities.Set(float64(n))
}
