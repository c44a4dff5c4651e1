// Package metrics exports retry and fetch counters for Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rshade/storekit/internal/faults"
)

const namespace = "storekit"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder collects retry lifecycle metrics. It implements retry.Observer.
type Recorder struct {
	registry *prometheus.Registry

	attempts *prometheus.CounterVec
	retries  *prometheus.CounterVec
	outcomes *prometheus.CounterVec
	backoff  *prometheus.HistogramVec
	perCall  *prometheus.HistogramVec
}

// NewRecorder registers the collectors on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		// attempts counts every invocation of a remote operation
		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_attempts_total",
				Help:      "Total number of remote call attempts",
			},
			[]string{"operation"},
		),
		retries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_retries_total",
				Help:      "Total number of retries after a transient failure",
			},
			[]string{"operation", "code"},
		),
		outcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_calls_total",
				Help:      "Completed retry sequences by outcome and error class",
			},
			[]string{"operation", "outcome", "class"},
		),
		backoff: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "remote_backoff_seconds",
				Help:      "Backoff waits scheduled between attempts",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 8),
			},
			[]string{"operation"},
		),
		perCall: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "remote_attempts_per_call",
				Help:      "Attempts used by each completed retry sequence",
				Buckets:   prometheus.LinearBuckets(1, 1, 5),
			},
			[]string{"operation"},
		),
	}
}

// Registry exposes the underlying registry for scraping.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// OnAttempt counts an invocation.
func (r *Recorder) OnAttempt(name string, _ int) {
	r.attempts.WithLabelValues(name).Inc()
}

// OnRetry counts a retry and records its wait.
func (r *Recorder) OnRetry(name string, _ int, delay time.Duration, err error) {
	r.retries.WithLabelValues(name, errorCode(err)).Inc()
	r.backoff.WithLabelValues(name).Observe(delay.Seconds())
}

// OnDone records the sequence outcome.
func (r *Recorder) OnDone(name string, attempts int, err error) {
	outcome, class := OutcomeSuccess, "none"
	if err != nil {
		outcome = OutcomeFailure
		class = faults.Classify(err).String()
	}
	r.outcomes.WithLabelValues(name, outcome, class).Inc()
	r.perCall.WithLabelValues(name).Observe(float64(attempts))
}

// errorCode keeps label cardinality bounded: the symbolic code when one
// exists, the status code family otherwise.
func errorCode(err error) string {
	if err == nil {
		return "none"
	}
	n := faults.Normalize(err)
	switch {
	case n.Code != "":
		return n.Code
	case n.StatusCode >= 500:
		return "5xx"
	case n.StatusCode >= 400:
		return "4xx"
	default:
		return n.Shape.String()
	}
}
