package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/Swind/go-task-manager/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

const (
	labelManager = "manager"
	labelOutcome = "outcome"
	labelKind    = "kind"
	labelReason  = "reason"

	unknownLabel = "unknown"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	// DurationBuckets overrides prom.DefBuckets for task_duration_seconds.
	DurationBuckets []float64
}

// MetricsExporter implements core.Metrics on top of Prometheus collectors.
// A nil *MetricsExporter is a valid no-op sink.
type MetricsExporter struct {
	durations *prom.HistogramVec
	failures  *prom.CounterVec
	rejected  *prom.CounterVec
	abandoned *prom.CounterVec
	depth     *prom.GaugeVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter registers the task collectors on reg (the default
// registerer when nil). Collectors already registered under the same name are
// reused, so several exporters may share one registry.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = defaultNamespace
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	counter := func(name, help string, labels ...string) *prom.CounterVec {
		return prom.NewCounterVec(prom.CounterOpts{Namespace: namespace, Name: name, Help: help}, labels)
	}

	e := &MetricsExporter{
		durations: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Wall time of task bodies that completed or failed.",
			Buckets:   buckets,
		}, []string{labelManager, labelOutcome}),
		failures:  counter("task_failure_total", "Task bodies that returned an error or panicked.", labelManager, labelKind),
		rejected:  counter("task_rejected_total", "Submissions refused by a manager.", labelManager, labelReason),
		abandoned: counter("task_abandoned_total", "Tasks given up by a forced drain.", labelManager),
		depth: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Admitted tasks waiting for a worker.",
		}, []string{labelManager}),
	}

	var err error
	if e.durations, err = registerCollector(reg, e.durations); err != nil {
		return nil, err
	}
	if e.failures, err = registerCollector(reg, e.failures); err != nil {
		return nil, err
	}
	if e.rejected, err = registerCollector(reg, e.rejected); err != nil {
		return nil, err
	}
	if e.abandoned, err = registerCollector(reg, e.abandoned); err != nil {
		return nil, err
	}
	if e.depth, err = registerCollector(reg, e.depth); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *MetricsExporter) RecordTaskDuration(managerName string, outcome core.TaskOutcome, duration time.Duration) {
	if e == nil {
		return
	}
	e.durations.WithLabelValues(orUnknown(managerName), outcome.String()).Observe(duration.Seconds())
}

// RecordTaskFailure counts a failed task under kind "panic" or "error".
func (e *MetricsExporter) RecordTaskFailure(managerName string, panicked bool) {
	if e == nil {
		return
	}
	kind := "error"
	if panicked {
		kind = "panic"
	}
	e.failures.WithLabelValues(orUnknown(managerName), kind).Inc()
}

func (e *MetricsExporter) RecordQueueDepth(managerName string, depth int) {
	if e == nil {
		return
	}
	e.depth.WithLabelValues(orUnknown(managerName)).Set(float64(depth))
}

func (e *MetricsExporter) RecordTaskRejected(managerName string, reason string) {
	if e == nil {
		return
	}
	e.rejected.WithLabelValues(orUnknown(managerName), orUnknown(reason)).Inc()
}

func (e *MetricsExporter) RecordTaskAbandoned(managerName string, count int) {
	if e == nil || count <= 0 {
		return
	}
	e.abandoned.WithLabelValues(orUnknown(managerName)).Add(float64(count))
}

func orUnknown(v string) string {
	if v == "" {
		return unknownLabel
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
