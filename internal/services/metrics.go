package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Observer captures telemetry for screen actions.
type Observer interface {
	// RecordAction tracks one screen action, e.g. "chat.send", and the
	// outcome label it ended with.
	RecordAction(action, outcome string, duration time.Duration)
}

const (
	OutcomeOK        = "ok"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
	OutcomeLimit     = "limit"
	OutcomeDuplicate = "duplicate"
)

// PrometheusObserver exports screen action metrics.
type PrometheusObserver struct {
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
}

func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "futureself"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PrometheusObserver{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "screen_action_duration_seconds",
			Help:      "Latency of screen actions including remote calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "screen_actions_total",
			Help:      "Screen actions by outcome.",
		}, []string{"action", "outcome"}),
	}

	if err := register(reg, &o.duration); err != nil {
		return nil, err
	}
	if err := register(reg, &o.total); err != nil {
		return nil, err
	}
	return o, nil
}

// register reuses an already registered collector of the same shape so
// tests and restarts inside one process do not fail.
func register[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				*c = existing
				return nil
			}
		}
		return fmt.Errorf("register metric: %w", err)
	}
	return nil
}

func (o *PrometheusObserver) RecordAction(action, outcome string, duration time.Duration) {
	if o == nil {
		return
	}
	o.duration.WithLabelValues(action).Observe(duration.Seconds())
	o.total.WithLabelValues(action, outcome).Inc()
}

type nopObserver struct{}

func (nopObserver) RecordAction(string, string, time.Duration) {}

func observerOrNop(o Observer) Observer {
	if o == nil {
		return nopObserver{}
	}
	return o
}
