package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/Swind/go-task-manager/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

const defaultNamespace = "taskmanager"

// StatisticsProvider provides current manager statistics snapshots.
// *core.Manager implements it.
type StatisticsProvider interface {
	Statistics() core.StatisticsSnapshot
}

// SnapshotPoller periodically exports manager Statistics() snapshots into Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	managersMu sync.RWMutex
	managers   map[string]StatisticsProvider

	active    *prom.GaugeVec
	running   *prom.GaugeVec
	queued    *prom.GaugeVec
	workers   *prom.GaugeVec
	completed *prom.GaugeVec
	failed    *prom.GaugeVec
	abandoned *prom.GaugeVec
	rejected  *prom.GaugeVec
	uptime    *prom.GaugeVec
	state     *prom.GaugeVec

	stateMu sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	gauge := func(name, help string, labels ...string) *prom.GaugeVec {
		return prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: defaultNamespace,
			Name:      name,
			Help:      help,
		}, append([]string{labelManager}, labels...))
	}

	p := &SnapshotPoller{
		interval:  interval,
		managers:  make(map[string]StatisticsProvider),
		active:    gauge("manager_active", "Admitted tasks not yet finished."),
		running:   gauge("manager_running", "Task bodies currently executing."),
		queued:    gauge("manager_queued", "Tasks waiting for a worker."),
		workers:   gauge("manager_workers", "Worker pool size."),
		completed: gauge("manager_completed", "Completed task count snapshot."),
		failed:    gauge("manager_failed", "Failed task count snapshot."),
		abandoned: gauge("manager_abandoned", "Abandoned task count snapshot."),
		rejected:  gauge("manager_rejected", "Rejected submission count snapshot."),
		uptime:    gauge("manager_uptime_seconds", "Time since the manager started."),
		state:     gauge("manager_state", "Manager lifecycle state (1 for the current state).", "state"),
	}

	for _, g := range []**prom.GaugeVec{
		&p.active, &p.running, &p.queued, &p.workers, &p.completed,
		&p.failed, &p.abandoned, &p.rejected, &p.uptime, &p.state,
	} {
		registered, err := registerCollector(reg, *g)
		if err != nil {
			return nil, err
		}
		*g = registered
	}
	return p, nil
}

// AddManager adds or replaces a statistics provider by name.
func (p *SnapshotPoller) AddManager(name string, provider StatisticsProvider) {
	if p == nil || provider == nil {
		return
	}
	if name == "" {
		name = labelManager
	}
	p.managersMu.Lock()
	p.managers[name] = provider
	p.managersMu.Unlock()
}

// RemoveManager stops exporting the named provider and drops its series.
func (p *SnapshotPoller) RemoveManager(name string) {
	if p == nil {
		return
	}
	p.managersMu.Lock()
	delete(p.managers, name)
	p.managersMu.Unlock()

	labels := prom.Labels{labelManager: name}
	for _, g := range []*prom.GaugeVec{
		p.active, p.running, p.queued, p.workers, p.completed,
		p.failed, p.abandoned, p.rejected, p.uptime, p.state,
	} {
		g.DeletePartialMatch(labels)
	}
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.started {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.started = true
	done := p.done
	p.stateMu.Unlock()

	go p.loop(pollCtx, done)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.started {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.started = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()

	cancel()
	<-done
}

func (p *SnapshotPoller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.CollectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.CollectOnce()
		}
	}
}

// CollectOnce exports the current snapshot of every registered provider.
func (p *SnapshotPoller) CollectOnce() {
	p.managersMu.RLock()
	defer p.managersMu.RUnlock()

	for name, provider := range p.managers {
		stats := provider.Statistics()
		p.active.WithLabelValues(name).Set(float64(stats.ActiveCount))
		p.running.WithLabelValues(name).Set(float64(stats.RunningCount))
		p.queued.WithLabelValues(name).Set(float64(stats.QueueSize))
		p.workers.WithLabelValues(name).Set(float64(stats.PoolSize))
		p.completed.WithLabelValues(name).Set(float64(stats.CompletedCount))
		p.failed.WithLabelValues(name).Set(float64(stats.FailedCount))
		p.abandoned.WithLabelValues(name).Set(float64(stats.AbandonedCount))
		p.rejected.WithLabelValues(name).Set(float64(stats.RejectedCount))
		p.uptime.WithLabelValues(name).Set(stats.Uptime.Seconds())
		for _, s := range []core.State{core.StateNotStarted, core.StateRunning, core.StateDraining, core.StateStopped} {
			v := 0.0
			if s == stats.State {
				v = 1
			}
			p.state.WithLabelValues(name, s.String()).Set(v)
		}
	}
}
