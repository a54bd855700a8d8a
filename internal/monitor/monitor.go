package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/lagdiff/internal/kafka"
	"github.com/ppiankov/lagdiff/internal/lag"
	"github.com/ppiankov/lagdiff/internal/offsets"
	"github.com/ppiankov/lagdiff/internal/reporter"
)

// DefaultInterval is the pause between two cycles.
const DefaultInterval = 15 * time.Second

// fetchWorkers is one worker per cluster.
const fetchWorkers = 2

// Config holds what a Monitor needs besides its sources.
type Config struct {
	Interval time.Duration
	Once     bool
	Tool     string
	Version  string
	Cluster1 string // label used in reports, usually the bootstrap server
	Cluster2 string
}

// Monitor compares the committed offsets of two clusters on a fixed
// interval and renders a report per cycle.
type Monitor struct {
	cluster1 kafka.Source
	cluster2 kafka.Source
	reporter reporter.LagReporter
	config   Config
	runID    string
	cycle    int
	now      func() time.Time
}

// New creates a Monitor. cluster1 is the reference side of the comparison.
func New(cluster1, cluster2 kafka.Source, r reporter.LagReporter, cfg Config) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Monitor{
		cluster1: cluster1,
		cluster2: cluster2,
		reporter: r,
		config:   cfg,
		runID:    uuid.NewString(),
		now:      time.Now,
	}
}

// Run alternates between running a cycle and sleeping until ctx is done.
// A cancelled context is a normal stop and returns nil. With Once set, Run
// returns after the first cycle with that cycle's error.
func (m *Monitor) Run(ctx context.Context) error {
	slog.Info("starting offset comparison",
		"run_id", m.runID,
		"cluster1", m.cluster1.Name(),
		"cluster2", m.cluster2.Name(),
		"interval", m.config.Interval,
	)

	for {
		if ctx.Err() != nil {
			return nil
		}

		_, err := m.RunCycle(ctx)
		if m.config.Once {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err != nil && ctx.Err() == nil {
			slog.Error("cycle failed", "run_id", m.runID, "cycle", m.cycle, "error", err)
		}

		slog.Info("waiting for next run", "run_id", m.runID, "interval", m.config.Interval)
		if !sleep(ctx, m.config.Interval) {
			slog.Info("stopping offset comparison", "run_id", m.runID, "cycles", m.cycle)
			return nil
		}
	}
}

// RunCycle fetches both clusters, compares them and renders the report.
// When either fetch fails nothing is compared or rendered.
func (m *Monitor) RunCycle(ctx context.Context) (*lag.Report, error) {
	m.cycle++
	start := m.now()
	logger := slog.With("run_id", m.runID, "cycle", m.cycle)

	logger.Info("fetching consumer group information from both clusters")

	raw1, raw2, err := m.fetchBoth(ctx)
	if err != nil {
		return nil, err
	}

	table1, stats1 := offsets.ParseWithStats(raw1)
	table2, stats2 := offsets.ParseWithStats(raw2)
	logger.Debug("parsed offsets",
		"cluster1_rows", stats1.Rows,
		"cluster1_skipped", stats1.Skipped,
		"cluster1_placeholders", stats1.Placeholders,
		"cluster2_rows", stats2.Rows,
		"cluster2_skipped", stats2.Skipped,
		"cluster2_placeholders", stats2.Placeholders,
	)

	report := lag.Compare(table1, table2)

	result := &reporter.LagResult{
		Tool:      m.config.Tool,
		Version:   m.config.Version,
		Timestamp: start.UTC().Format(time.RFC3339),
		Cycle:     m.cycle,
		Cluster1:  m.config.Cluster1,
		Cluster2:  m.config.Cluster2,
		Report:    report,
	}
	if err := m.reporter.GenerateLag(ctx, result); err != nil {
		return report, fmt.Errorf("render report: %w", err)
	}

	logger.Info("cycle completed",
		"matching", report.Matching,
		"records", len(report.Records),
		"differing", report.Differing,
		"total_lag", report.TotalLag,
		"duration", m.now().Sub(start),
	)

	return report, nil
}

// fetchBoth runs both fetches concurrently and waits for both. Each worker
// writes only its own result slot. Both failures are reported.
func (m *Monitor) fetchBoth(ctx context.Context) (string, string, error) {
	sources := [fetchWorkers]kafka.Source{m.cluster1, m.cluster2}
	var outputs [fetchWorkers]string
	var errs [fetchWorkers]error

	var eg errgroup.Group
	eg.SetLimit(fetchWorkers)
	for i, source := range sources {
		i, source := i, source
		eg.Go(func() error {
			outputs[i], errs[i] = source.Fetch(ctx)
			return nil
		})
	}
	_ = eg.Wait()

	if err := errors.Join(errs[0], errs[1]); err != nil {
		return "", "", err
	}
	return outputs[0], outputs[1], nil
}

// sleep waits for d or until ctx is done. It reports whether the full
// interval elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
