// Package observability exposes Prometheus collectors reporting session
// engine activity.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for the session engine. A nil
// *Metrics is valid and records nothing, so subsystems never need to guard
// their instrumentation calls.
type Metrics struct {
	decisionFetches        *prometheus.CounterVec
	chatSends              *prometheus.CounterVec
	chatSuperseded         prometheus.Counter
	recommendationDuration *prometheus.HistogramVec
	achievementsFired      prometheus.Counter
}

// MustNewMetrics constructs a Metrics instance using the provided registerer.
// Callers needing unique metric names (tests) supply a fresh registry. Any
// registration error panics, mirroring promauto semantics.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		decisionFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "finsage",
				Subsystem: "decision",
				Name:      "fetches_total",
				Help:      "Decision-options fetches by outcome.",
			},
			[]string{"status"},
		),
		chatSends: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "finsage",
				Subsystem: "chat",
				Name:      "sends_total",
				Help:      "Chat sends by whether a fallback reply was served.",
			},
			[]string{"fallback"},
		),
		chatSuperseded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "finsage",
				Subsystem: "chat",
				Name:      "superseded_total",
				Help:      "Chat responses discarded because a newer send superseded them.",
			},
		),
		recommendationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "finsage",
				Subsystem: "recommendation",
				Name:      "duration_seconds",
				Help:      "Recommendation generation latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		achievementsFired: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "finsage",
				Subsystem: "achievements",
				Name:      "fired_total",
				Help:      "Achievement notifications emitted.",
			},
		),
	}

	reg.MustRegister(
		m.decisionFetches,
		m.chatSends,
		m.chatSuperseded,
		m.recommendationDuration,
		m.achievementsFired,
	)
	return m
}

// RecordDecisionFetch counts one decision-options fetch.
func (m *Metrics) RecordDecisionFetch(success bool) {
	if m == nil {
		return
	}
	m.decisionFetches.WithLabelValues(statusLabel(success)).Inc()
}

// RecordChatSend counts one applied chat response.
func (m *Metrics) RecordChatSend(fallback bool) {
	if m == nil {
		return
	}
	m.chatSends.WithLabelValues(strconv.FormatBool(fallback)).Inc()
}

// RecordChatSuperseded counts one discarded stale chat response.
func (m *Metrics) RecordChatSuperseded() {
	if m == nil {
		return
	}
	m.chatSuperseded.Inc()
}

// ObserveRecommendation records one generation attempt.
func (m *Metrics) ObserveRecommendation(d time.Duration, success bool) {
	if m == nil {
		return
	}
	m.recommendationDuration.WithLabelValues(statusLabel(success)).Observe(d.Seconds())
}

// RecordAchievement counts one emitted achievement notification.
func (m *Metrics) RecordAchievement() {
	if m == nil {
		return
	}
	m.achievementsFired.Inc()
}

func statusLabel(success bool) string {
	if success {
		return "ok"
	}
	return "error"
}
