package measure

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sch_migrate"

// PrometheusMeasure keeps migration metrics in its own Prometheus registry.
type PrometheusMeasure struct {
	registry *prometheus.Registry
	textfile string

	Pipelines        *prometheus.CounterVec
	StagesReplaced   *prometheus.CounterVec
	PipelineDuration prometheus.Histogram
}

// NewPrometheusMeasure creates the metrics. Flush writes them to textfile in the text exposition
// format, or does nothing when textfile is empty.
func NewPrometheusMeasure(textfile string) *PrometheusMeasure {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &PrometheusMeasure{
		registry: registry,
		textfile: textfile,
		Pipelines: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipelines_total",
				Help:      "Total number of pipelines handled, by result",
			},
			[]string{"result"},
		),
		StagesReplaced: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stages_replaced_total",
				Help:      "Total number of stages replaced, by old and new label",
			},
			[]string{"from", "to"},
		),
		PipelineDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_duration_seconds",
				Help:      "Time spent migrating one pipeline",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}

// Registry returns the registry holding the metrics.
func (m *PrometheusMeasure) Registry() *prometheus.Registry {
	return m.registry
}

func (m *PrometheusMeasure) AddPipeline(result string, elapsed time.Duration) {
	m.Pipelines.WithLabelValues(result).Inc()
	m.PipelineDuration.Observe(elapsed.Seconds())
}

func (m *PrometheusMeasure) AddFailure() {
	m.Pipelines.WithLabelValues(FailedResult).Inc()
}

func (m *PrometheusMeasure) AddReplacement(from, to string) {
	m.StagesReplaced.WithLabelValues(from, to).Inc()
}

func (m *PrometheusMeasure) Flush() error {
	if m.textfile == "" {
		return nil
	}

	return errors.Wrapf(prometheus.WriteToTextfile(m.textfile, m.registry), "unable to write metrics to %s", m.textfile)
}

var _ Measure = (*PrometheusMeasure)(nil)
