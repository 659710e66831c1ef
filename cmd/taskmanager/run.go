package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Swind/go-task-manager/config"
	"github.com/Swind/go-task-manager/core"
	obs "github.com/Swind/go-task-manager/observability/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

// runOptions describes a synthetic workload.
type runOptions struct {
	Tasks     int
	Work      time.Duration
	FailEvery int
	Timeout   time.Duration
	NoColor   bool
}

func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Submit a synthetic workload and report statistics",

		Flags: []cli.Flag{
			&cli.IntFlag{Name: "tasks", Aliases: []string{"n"}, Value: 20, Usage: "Number of tasks to submit"},
			&cli.IntFlag{Name: "capacity", Usage: "Maximum concurrently running tasks (overrides config)"},
			&cli.DurationFlag{Name: "work", Value: 50 * time.Millisecond, Usage: "Time each task sleeps"},
			&cli.IntFlag{Name: "fail-every", Usage: "Make every Nth task fail (0 disables)"},
			&cli.DurationFlag{Name: "timeout", Value: 5 * time.Second, Usage: "Wait at most this long for completion"},
			&cli.DurationFlag{Name: "monitor-interval", Usage: "Statistics interval (overrides config)"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "Serve Prometheus metrics on this address"},
			&cli.BoolFlag{Name: "no-color", Usage: "Disable colored output"},
		},

		Action: RunAction,
	}
}

func RunAction(c *cli.Context) error {
	// 1. Get flags
	settings, err := config.Load(c.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}
	if c.IsSet("capacity") {
		settings.Capacity = c.Int("capacity")
	}
	if c.IsSet("monitor-interval") {
		settings.MonitorInterval = c.Duration("monitor-interval")
	}
	if c.IsSet("metrics-addr") {
		settings.MetricsAddr = c.String("metrics-addr")
	}
	opts := runOptions{
		Tasks:     c.Int("tasks"),
		Work:      c.Duration("work"),
		FailEvery: c.Int("fail-every"),
		Timeout:   c.Duration("timeout"),
		NoColor:   c.Bool("no-color"),
	}

	// 2. Validate (format only)
	if opts.Tasks < 0 || opts.FailEvery < 0 {
		return cli.Exit("tasks and fail-every must not be negative", 1)
	}

	// 3. Run the workload
	outcome, err := runWorkload(c.Context, settings, opts, c.App.Writer, c.App.ErrWriter)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}
	if outcome == core.DrainTimedOutForced {
		return cli.Exit("drain timed out, outstanding tasks were abandoned", 1)
	}
	return nil
}

// runWorkload submits opts.Tasks synthetic tasks, waits up to opts.Timeout
// and writes the final report to out. Logs go to logOut.
func runWorkload(ctx context.Context, settings config.Settings, opts runOptions, out, logOut io.Writer) (core.DrainOutcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := settings.CoreConfigWithOutput(logOut)
	if err != nil {
		return core.DrainedCompletely, err
	}

	var poller *obs.SnapshotPoller
	if settings.MetricsAddr != "" {
		var stop func()
		poller, stop, err = serveMetrics(settings.MetricsAddr, &cfg)
		if err != nil {
			return core.DrainedCompletely, err
		}
		defer stop()
	}

	m, err := core.NewManager(cfg)
	if err != nil {
		return core.DrainedCompletely, err
	}
	poller.AddManager(m.Name(), m)
	if err := m.Start(ctx); err != nil {
		return core.DrainedCompletely, err
	}

	var submitErrs []error
	for i := 0; i < opts.Tasks; i++ {
		fail := opts.FailEvery > 0 && (i+1)%opts.FailEvery == 0
		if _, err := m.SubmitNamed(fmt.Sprintf("task-%d", i), syntheticTask(opts.Work, fail)); err != nil {
			submitErrs = append(submitErrs, err)
		}
	}

	outcome, err := m.AwaitCompletion(opts.Timeout)
	m.Stop()
	if err != nil {
		return outcome, err
	}

	if err := writeReport(out, m.Statistics(), outcome, m.RecentTasks(5), opts.NoColor); err != nil {
		return outcome, err
	}
	return outcome, errors.Join(submitErrs...)
}

var errSynthetic = errors.New("synthetic failure")

func syntheticTask(work time.Duration, fail bool) core.Task {
	return func(ctx context.Context) error {
		timer := time.NewTimer(work)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		if fail {
			return errSynthetic
		}
		return nil
	}
}

// serveMetrics installs a Prometheus exporter into cfg, starts a snapshot
// poller and serves /metrics on addr. The returned func shuts both down.
func serveMetrics(addr string, cfg *core.Config) (*obs.SnapshotPoller, func(), error) {
	reg := prom.NewRegistry()
	exporter, err := obs.NewMetricsExporter("taskmanager", reg, obs.ExporterOptions{})
	if err != nil {
		return nil, nil, err
	}
	poller, err := obs.NewSnapshotPoller(reg, time.Second)
	if err != nil {
		return nil, nil, err
	}
	cfg.Metrics = exporter

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cfg.Logger.Error("metrics server failed", core.F("addr", addr), core.F("error", err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	poller.Start(ctx)

	return poller, func() {
		poller.Stop()
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), time.Second)
		defer done()
		_ = server.Shutdown(shutdownCtx)
	}, nil
}
