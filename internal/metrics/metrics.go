package metrics

import (
	"fmt"

	"github.com/JPM1118/matthumb/internal/drain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "matthumb"

// Recorder exports drain progress as Prometheus metrics. It implements
// drain.Observer. A nil Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry
	items    *prometheus.CounterVec
	ticks    *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewRecorder registers the drain metrics on a private registry.
func NewRecorder() (*Recorder, error) {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Materials finished, by outcome.",
		}, []string{"outcome"}),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Drain ticks, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "item_duration_seconds",
			Help:      "Time from an item's first tick until the cursor left it.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}
	for _, c := range []prometheus.Collector{r.items, r.ticks, r.duration} {
		if err := r.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register drain metric: %w", err)
		}
	}
	return r, nil
}

// OnStep records one tick.
func (r *Recorder) OnStep(step drain.Step) {
	if r == nil || step.Outcome == drain.OutcomeNone {
		return
	}
	r.ticks.WithLabelValues(step.Outcome.String()).Inc()
	if step.Outcome.Advanced() {
		r.items.WithLabelValues(step.Outcome.String()).Inc()
		r.duration.Observe(step.Elapsed.Seconds())
	}
}

// WriteTextfile dumps the metrics in the node exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

var _ drain.Observer = (*Recorder)(nil)
