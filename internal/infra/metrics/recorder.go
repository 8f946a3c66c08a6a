// Package metrics — prometheus collectors fed from completion events.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/matiasleandrokruk/simonsays/internal/domain/coach"
	"github.com/matiasleandrokruk/simonsays/internal/infra/eventbus"
)

const namespace = "simonsays"

// Recorder turns coach.CompletionFinished events into prometheus series.
type Recorder struct {
	completions *prometheus.CounterVec
	truncated   prometheus.Counter
	attempts    prometheus.Histogram
	logger      *zap.Logger
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewRecorder registers the completion collectors on reg. logger may be nil.
func NewRecorder(reg prometheus.Registerer, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := promauto.With(reg)
	return &Recorder{
		completions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completions_total",
			Help:      "Coach completions by persona and outcome (success or failure kind).",
		}, []string{"persona", "outcome"}),
		truncated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completions_truncated_total",
			Help:      "Completions cut off by the output token limit.",
		}),
		attempts: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_attempts",
			Help:      "Provider calls made per completion.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}),
		logger: logger,
	}
}

// Observe records one finished completion.
func (r *Recorder) Observe(e coach.CompletionFinished) {
	persona := string(e.Persona)
	if persona == "" {
		persona = string(coach.DefaultPersona)
	}
	r.completions.WithLabelValues(persona, e.Outcome()).Inc()
	if e.Truncated {
		r.truncated.Inc()
	}
	if e.Attempts > 0 {
		r.attempts.Observe(float64(e.Attempts))
	}
}

// Run consumes events until ctx is done or the channel is closed.
func (r *Recorder) Run(ctx context.Context, events <-chan eventbus.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			e, isCompletion := evt.Payload.(coach.CompletionFinished)
			if !isCompletion {
				r.logger.Warn("unexpected event payload",
					zap.String("topic", evt.Topic),
					zap.String("type", fmt.Sprintf("%T", evt.Payload)))
				continue
			}
			r.Observe(e)
			r.logger.Debug("completion recorded",
				zap.String("persona", string(e.Persona)),
				zap.String("outcome", e.Outcome()),
				zap.Int("attempts", e.Attempts))
		}
	}
}

// Handler serves reg in the prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
