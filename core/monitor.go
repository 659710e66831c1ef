package core

import (
	"context"
	"sync"
	"time"
)

// monitor calls tick every interval on a single goroutine until stopped.
type monitor struct {
	interval time.Duration
	tick     func()

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func newMonitor(interval time.Duration, tick func()) *monitor {
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}
	return &monitor{interval: interval, tick: tick}
}

// Start begins periodic ticking; repeated calls are no-ops.
func (m *monitor) Start(ctx context.Context) {
	m.stateMu.Lock()
	if m.running {
		m.stateMu.Unlock()
		return
	}
	tickCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running = true
	m.stateMu.Unlock()

	go m.loop(tickCtx, m.done)
}

// Stop stops ticking and waits for an in-progress tick; repeated calls are safe.
func (m *monitor) Stop() {
	m.stateMu.Lock()
	if !m.running {
		m.stateMu.Unlock()
		return
	}
	cancel := m.cancel
	done := m.done
	m.running = false
	m.cancel = nil
	m.done = nil
	m.stateMu.Unlock()

	cancel()
	<-done
}

func (m *monitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick()
		}
	}
}
