package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	// maxAllowedCapacity is the maximum allowed value for Capacity.
	// Values higher than this could lead to excessive goroutine creation and memory exhaustion.
	maxAllowedCapacity = 10000

	DefaultMonitorInterval = 5 * time.Second
	DefaultStopTimeout     = 30 * time.Second
	DefaultHistorySize     = 100
)

// BackpressurePolicy decides what Submit does when the queue is at MaxQueueSize.
type BackpressurePolicy int

const (
	// BackpressureUnbounded never limits the queue; submit never blocks.
	BackpressureUnbounded BackpressurePolicy = iota

	// BackpressureReject fails the submission with ErrQueueFull.
	BackpressureReject

	// BackpressureBlock waits until a queued task is picked up by a worker.
	BackpressureBlock
)

func (p BackpressurePolicy) String() string {
	switch p {
	case BackpressureUnbounded:
		return "unbounded"
	case BackpressureReject:
		return "reject"
	case BackpressureBlock:
		return "block"
	default:
		return "unknown"
	}
}

// ParseBackpressurePolicy parses the String form of a policy.
// The empty string selects BackpressureUnbounded.
func ParseBackpressurePolicy(s string) (BackpressurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unbounded":
		return BackpressureUnbounded, nil
	case "reject":
		return BackpressureReject, nil
	case "block":
		return BackpressureBlock, nil
	default:
		return BackpressureUnbounded, fmt.Errorf("%w: unknown backpressure policy %q", ErrInvalidConfiguration, s)
	}
}

// Config holds configuration options for a Manager.
// All handlers are optional; if not provided, default implementations will be used.
type Config struct {
	// Name labels logs, metrics and snapshots. Defaults to "task-manager".
	Name string

	// Capacity is the number of workers, i.e. the maximum number of task
	// bodies executing at once. Required.
	Capacity int

	// MonitorInterval is the period of the statistics monitor.
	MonitorInterval time.Duration

	// StopTimeout bounds the drain performed by Stop.
	StopTimeout time.Duration

	// MaxQueueSize limits waiting tasks for the Reject and Block policies.
	MaxQueueSize int
	Backpressure BackpressurePolicy

	// HistorySize is the number of execution records kept for RecentTasks.
	HistorySize int

	// Logger is used for lifecycle warnings. Defaults to NewDefaultLogger.
	Logger Logger

	// Observer receives snapshots and failures. Defaults to a LoggingObserver
	// on Logger.
	Observer Observer

	// Metrics is called to record task execution metrics. Defaults to NilMetrics.
	Metrics Metrics

	// Decorators wrap every admitted task, first entry outermost.
	Decorators []TaskDecorator
}

// DefaultConfig returns a config with default handlers and timings.
func DefaultConfig(capacity int) Config {
	return Config{
		Name:            "task-manager",
		Capacity:        capacity,
		MonitorInterval: DefaultMonitorInterval,
		StopTimeout:     DefaultStopTimeout,
		Backpressure:    BackpressureUnbounded,
		HistorySize:     DefaultHistorySize,
	}
}

// Validate reports the first invalid setting wrapped in ErrInvalidConfiguration.
func (c Config) Validate() error {
	if c.Capacity < 1 {
		return fmt.Errorf("%w: capacity must be at least 1, got %d", ErrInvalidConfiguration, c.Capacity)
	}
	if c.Capacity > maxAllowedCapacity {
		return fmt.Errorf("%w: capacity must not exceed %d, got %d", ErrInvalidConfiguration, maxAllowedCapacity, c.Capacity)
	}
	if c.MonitorInterval < 0 {
		return fmt.Errorf("%w: monitor interval must not be negative", ErrInvalidConfiguration)
	}
	if c.StopTimeout < 0 {
		return fmt.Errorf("%w: stop timeout must not be negative", ErrInvalidConfiguration)
	}
	switch c.Backpressure {
	case BackpressureUnbounded:
	case BackpressureReject, BackpressureBlock:
		if c.MaxQueueSize < 1 {
			return fmt.Errorf("%w: %s backpressure requires a positive max queue size", ErrInvalidConfiguration, c.Backpressure)
		}
	default:
		return fmt.Errorf("%w: unknown backpressure policy %d", ErrInvalidConfiguration, c.Backpressure)
	}
	return nil
}

// withDefaults fills zero values. It is applied after Validate.
func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = "task-manager"
	}
	if c.MonitorInterval == 0 {
		c.MonitorInterval = DefaultMonitorInterval
	}
	if c.StopTimeout == 0 {
		c.StopTimeout = DefaultStopTimeout
	}
	if c.HistorySize <= 0 {
		c.HistorySize = DefaultHistorySize
	}
	if c.Logger == nil {
		c.Logger = NewDefaultLogger()
	}
	if c.Observer == nil {
		c.Observer = NewLoggingObserver(c.Logger)
	}
	if c.Metrics == nil {
		c.Metrics = &NilMetrics{}
	}
	return c
}
