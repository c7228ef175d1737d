package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/bundlesched/internal/ctxlog"
	"github.com/specialistvlad/bundlesched/internal/report"
	"github.com/specialistvlad/bundlesched/internal/schedstore"
	"github.com/specialistvlad/bundlesched/internal/scheduler"
	"golang.org/x/sync/errgroup"
)

// ErrIncompleteSchedule is returned when a bundle member was left without an
// operation index. The report is still written.
var ErrIncompleteSchedule = errors.New("schedule is incomplete")

// Run plans every bundle, schedules them in index order and writes the report.
func (a *App) Run(ctx context.Context) error {
	runID := uuid.NewString()
	logger := a.logger.With("run_id", runID)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("App.Run method started.", "dry_run", a.config.DryRun)

	store := schedstore.New()
	schedulers := make([]*scheduler.BundleScheduler, len(a.bundles))
	for i, b := range a.bundles {
		store.RegisterBundle(b.data)
		bs, err := scheduler.NewBundleScheduler(b.data, store, a.options)
		if err != nil {
			return err
		}
		schedulers[i] = bs
	}

	plans, err := a.planAll(ctx, schedulers)
	if err != nil {
		return err
	}
	logger.Info("All bundles planned.", "bundles", len(plans))

	rep := &report.Report{RunID: runID, DryRun: a.config.DryRun}
	for i, b := range a.bundles {
		complete, err := schedulers[i].Schedule(ctx, plans[i], a.config.DryRun)
		if err != nil {
			a.metrics.ObserveError()
			return fmt.Errorf("bundle %q: %w", b.name, err)
		}
		entry := report.NewBundle(b.name, b.data, store, complete)
		a.metrics.ObserveBundle(complete, scheduledCount(entry))
		rep.Bundles = append(rep.Bundles, entry)
		if !complete {
			logger.Warn("Bundle schedule is incomplete.", "bundle", b.name)
		}
	}

	format, err := report.ParseFormat(a.config.Output)
	if err != nil {
		return err
	}
	if err := report.Render(a.outW, format, rep); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if a.config.MetricsFile != "" {
		if err := a.metrics.WriteFile(a.config.MetricsFile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
		logger.Debug("Metrics written.", "path", a.config.MetricsFile)
	}

	if !rep.Complete() {
		return ErrIncompleteSchedule
	}
	logger.Info("Scheduling finished.", "bundles", len(rep.Bundles))
	return nil
}

// planAll plans every bundle concurrently. Planning only reads the graph and
// the store, so the bundles do not need to be serialized.
func (a *App) planAll(ctx context.Context, schedulers []*scheduler.BundleScheduler) ([]*scheduler.Plan, error) {
	plans := make([]*scheduler.Plan, len(schedulers))
	g, gCtx := errgroup.WithContext(ctx)
	for i, bs := range schedulers {
		i, bs := i, bs
		name := a.bundles[i].name
		g.Go(func() error {
			start := time.Now()
			plan, err := bs.Plan(gCtx)
			if err != nil {
				a.metrics.ObserveError()
				return fmt.Errorf("bundle %q: %w", name, err)
			}
			a.metrics.ObservePlan(len(plan.Threads), len(plan.SliceSets), time.Since(start))
			plans[i] = plan
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return plans, nil
}

func scheduledCount(b report.Bundle) int {
	n := 0
	for _, e := range b.Entries {
		if e.OperationIndex != schedstore.Unscheduled {
			n++
		}
	}
	return n
}
