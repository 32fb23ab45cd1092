package observability

import (
	"context"

	"github.com/aretw0/storyline/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storyline"

// Metrics holds the Prometheus collectors fed by lifecycle hooks.
type Metrics struct {
	transitions  *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
	checkpoints  *prometheus.CounterVec
	restores     *prometheus.CounterVec
	restoreDepth *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transitions_total",
				Help:      "Cursor transitions by the kind of node entered.",
			},
			[]string{"story", "kind"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "option_fallbacks_total",
				Help:      "Unknown options replaced by the first-declared option.",
			},
			[]string{"story", "choice"},
		),
		checkpoints: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkpoint_operations_total",
				Help:      "Checkpoint store operations by outcome.",
			},
			[]string{"story", "op", "outcome"},
		),
		restores: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "restores_total",
				Help:      "Session resumes by outcome.",
			},
			[]string{"story", "outcome"},
		),
		restoreDepth: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "restore_depth_scenes",
				Help:      "Length of the history replayed on resume.",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
			},
			[]string{"story"},
		),
	}

	for _, c := range []prometheus.Collector{m.transitions, m.fallbacks, m.checkpoints, m.restores, m.restoreDepth} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record events of storyID.
func (m *Metrics) Hooks(storyID string) domain.LifecycleHooks {
	transition := func(kind string) func(context.Context, *domain.NodeEvent) {
		c := m.transitions.WithLabelValues(storyID, kind)
		return func(context.Context, *domain.NodeEvent) { c.Inc() }
	}

	return domain.LifecycleHooks{
		OnSceneEnter:  transition("scene"),
		OnChoiceEnter: transition("choice"),
		OnEnd:         transition("end"),
		OnRetreat:     transition("retreat"),
		OnOptionFallback: func(_ context.Context, e *domain.FallbackEvent) {
			m.fallbacks.WithLabelValues(storyID, e.ChoiceID).Inc()
		},
		OnCheckpoint: func(_ context.Context, e *domain.CheckpointEvent) {
			m.checkpoints.WithLabelValues(storyID, string(e.Op), e.Outcome).Inc()
		},
		OnRestore: func(_ context.Context, e *domain.RestoreEvent) {
			m.restores.WithLabelValues(storyID, e.Outcome).Inc()
			if e.Depth > 0 {
				m.restoreDepth.WithLabelValues(storyID).Observe(float64(e.Depth))
			}
		},
	}
}
