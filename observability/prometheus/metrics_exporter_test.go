package prometheus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Swind/go-task-manager/core"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestMetricsExporter_RecordMethods(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("taskmanager", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}

	exporter.RecordTaskDuration("manager-a", core.TaskOutcomeFailed, 250*time.Millisecond)
	exporter.RecordTaskFailure("manager-a", true)
	exporter.RecordTaskFailure("manager-a", false)
	exporter.RecordQueueDepth("manager-a", 7)
	exporter.RecordTaskRejected("manager-a", "not_running")
	exporter.RecordTaskAbandoned("manager-a", 3)
	exporter.RecordTaskAbandoned("manager-a", 0)

	if got := testutil.ToFloat64(exporter.failures.WithLabelValues("manager-a", "panic")); got != 1 {
		t.Fatalf("panic failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.failures.WithLabelValues("manager-a", "error")); got != 1 {
		t.Fatalf("error failures = %v, want 1", got)
	}

	queueDepth := testutil.ToFloat64(exporter.depth.WithLabelValues("manager-a"))
	if queueDepth != 7 {
		t.Fatalf("queue depth = %v, want 7", queueDepth)
	}

	rejected := testutil.ToFloat64(exporter.rejected.WithLabelValues("manager-a", "not_running"))
	if rejected != 1 {
		t.Fatalf("rejected total = %v, want 1", rejected)
	}

	abandoned := testutil.ToFloat64(exporter.abandoned.WithLabelValues("manager-a"))
	if abandoned != 3 {
		t.Fatalf("abandoned total = %v, want 3", abandoned)
	}

	histCount, err := histogramSampleCount(exporter.durations.WithLabelValues("manager-a", "failed"))
	if err != nil {
		t.Fatalf("histogramSampleCount failed: %v", err)
	}
	if histCount != 1 {
		t.Fatalf("duration sample count = %d, want 1", histCount)
	}
}

func TestMetricsExporter_AlreadyRegisteredReuse(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := NewMetricsExporter("taskmanager", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("first NewMetricsExporter failed: %v", err)
	}
	second, err := NewMetricsExporter("taskmanager", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("second NewMetricsExporter failed: %v", err)
	}

	first.RecordTaskFailure("manager-a", true)
	second.RecordTaskFailure("manager-a", true)

	got := testutil.ToFloat64(first.failures.WithLabelValues("manager-a", "panic"))
	if got != 2 {
		t.Fatalf("shared failure counter = %v, want 2", got)
	}
}

func TestMetricsExporter_NilReceiver(t *testing.T) {
	var exporter *MetricsExporter

	exporter.RecordTaskDuration("m", core.TaskOutcomeCompleted, time.Second)
	exporter.RecordTaskFailure("m", false)
	exporter.RecordQueueDepth("m", 1)
	exporter.RecordTaskRejected("m", "queue_full")
	exporter.RecordTaskAbandoned("m", 1)
}

// TestMetricsExporter_WiredIntoManager verifies the manager feeds the exporter
// Given: A manager configured with the exporter as its Metrics
// When: One task succeeds and one fails, and a submission after stop is refused
// Then: Durations, failures and rejections are exported under the manager name
func TestMetricsExporter_WiredIntoManager(t *testing.T) {
	// Arrange
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}
	cfg := core.DefaultConfig(2)
	cfg.Name = "wired"
	cfg.Logger = core.NewNoOpLogger()
	cfg.Metrics = exporter
	m, err := core.NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Act
	m.Submit(func(ctx context.Context) error { return nil })
	m.Submit(func(ctx context.Context) error { return errors.New("boom") })
	if outcome, _ := m.AwaitCompletion(2 * time.Second); outcome != core.DrainedCompletely {
		t.Fatalf("AwaitCompletion = %v, want drained", outcome)
	}
	m.Stop()
	if _, err := m.Submit(func(ctx context.Context) error { return nil }); err == nil {
		t.Fatal("Submit after Stop succeeded")
	}

	// Assert
	if got := testutil.ToFloat64(exporter.failures.WithLabelValues("wired", "error")); got != 1 {
		t.Errorf("failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.rejected.WithLabelValues("wired", "not_running")); got != 1 {
		t.Errorf("rejections = %v, want 1", got)
	}
	for _, outcome := range []string{"completed", "failed"} {
		n, err := histogramSampleCount(exporter.durations.WithLabelValues("wired", outcome))
		if err != nil || n != 1 {
			t.Errorf("%s duration samples = %d, %v, want 1", outcome, n, err)
		}
	}
}

func histogramSampleCount(observer prom.Observer) (uint64, error) {
	collector, ok := observer.(prom.Collector)
	if !ok {
		return 0, nil
	}

	metricCh := make(chan prom.Metric, 1)
	collector.Collect(metricCh)
	close(metricCh)
	for metric := range metricCh {
		msg := &dto.Metric{}
		if err := metric.Write(msg); err != nil {
			return 0, err
		}
		if msg.Histogram != nil {
			return msg.Histogram.GetSampleCount(), nil
		}
	}
	return 0, nil
}
