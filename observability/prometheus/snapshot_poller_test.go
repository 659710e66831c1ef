package prometheus

import (
	"context"
	"testing"
	"time"

	"github.com/Swind/go-task-manager/core"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type statisticsStub struct {
	stats core.StatisticsSnapshot
}

func (s statisticsStub) Statistics() core.StatisticsSnapshot { return s.stats }

func TestSnapshotPoller_CollectsManagerStatistics(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	poller.AddManager("manager-a", statisticsStub{stats: core.StatisticsSnapshot{
		State:          core.StateDraining,
		ActiveCount:    5,
		RunningCount:   2,
		QueueSize:      3,
		PoolSize:       2,
		CompletedCount: 10,
		FailedCount:    1,
		AbandonedCount: 4,
		RejectedCount:  6,
		Uptime:         1500 * time.Millisecond,
	}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller.Start(ctx)
	defer poller.Stop()

	assertEventually(t, 2*time.Second, func() bool {
		active := testutil.ToFloat64(poller.active.WithLabelValues("manager-a"))
		queued := testutil.ToFloat64(poller.queued.WithLabelValues("manager-a"))
		return active == 5 && queued == 3
	})

	if got := testutil.ToFloat64(poller.abandoned.WithLabelValues("manager-a")); got != 4 {
		t.Fatalf("abandoned gauge = %v, want 4", got)
	}
	if got := testutil.ToFloat64(poller.uptime.WithLabelValues("manager-a")); got != 1.5 {
		t.Fatalf("uptime gauge = %v, want 1.5", got)
	}
	if got := testutil.ToFloat64(poller.state.WithLabelValues("manager-a", "draining")); got != 1 {
		t.Fatalf("draining state gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(poller.state.WithLabelValues("manager-a", "running")); got != 0 {
		t.Fatalf("running state gauge = %v, want 0", got)
	}
}

func TestSnapshotPoller_RealManager(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, time.Hour)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}
	cfg := core.DefaultConfig(3)
	cfg.Logger = core.NewNoOpLogger()
	m, err := core.NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	poller.AddManager(m.Name(), m)

	poller.CollectOnce()
	if got := testutil.ToFloat64(poller.state.WithLabelValues(m.Name(), "not_started")); got != 1 {
		t.Fatalf("not_started state gauge = %v, want 1", got)
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer m.Stop()
	poller.CollectOnce()

	if got := testutil.ToFloat64(poller.workers.WithLabelValues(m.Name())); got != 3 {
		t.Fatalf("workers gauge = %v, want 3", got)
	}
	if got := testutil.ToFloat64(poller.state.WithLabelValues(m.Name(), "running")); got != 1 {
		t.Fatalf("running state gauge = %v, want 1", got)
	}
}

func TestSnapshotPoller_RemoveManager(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, time.Hour)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}
	poller.AddManager("gone", statisticsStub{stats: core.StatisticsSnapshot{ActiveCount: 1}})
	poller.CollectOnce()

	poller.RemoveManager("gone")

	if got := testutil.CollectAndCount(poller.active); got != 0 {
		t.Fatalf("active series after remove = %d, want 0", got)
	}
}

func TestSnapshotPoller_StartStop_Idempotent(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller.Start(ctx)
	poller.Start(ctx)
	poller.Stop()
	poller.Stop()
}

func assertEventually(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}
