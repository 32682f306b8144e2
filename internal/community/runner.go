package community

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"neighborgrid/internal/dispatch"
	"neighborgrid/internal/logger"
	"neighborgrid/internal/metrics"
	"neighborgrid/internal/model"
)

// HomeInput pairs a home with its input series.
type HomeInput struct {
	Home   model.Home
	Series model.Timeseries
}

// Result is a reconciled community run.
type Result struct {
	Homes []model.Home
	// Dispatch holds each home's stand-alone run before reconciliation.
	Dispatch    []*dispatch.Result
	Records     []model.HourRecord
	Allocations []PoolAllocation
}

type Runner struct {
	engine *dispatch.Engine
	policy dispatch.Policy
	log    logger.Logger
	rec    metrics.Recorder
}

// NewRunner builds a Runner. Nil policy selects self_first.
func NewRunner(engine *dispatch.Engine, policy dispatch.Policy, log logger.Logger, rec metrics.Recorder) *Runner {
	if engine == nil {
		engine = dispatch.New(log, rec)
	}
	if policy == nil {
		policy = dispatch.SelfFirst{}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if rec == nil {
		rec = metrics.NopRecorder{}
	}
	return &Runner{engine: engine, policy: policy, log: log, rec: rec}
}

// Run dispatches every home independently with the pool disabled, then
// reconciles pool transfers across the community hour by hour.
func (r *Runner) Run(ctx context.Context, inputs []HomeInput) (*Result, error) {
	if err := validateInputs(inputs); err != nil {
		return nil, err
	}

	results := make([]*dispatch.Result, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			batt, err := model.NewBattery(model.DefaultBatteryParams(in.Home.BatteryKWh), in.Home.InitialSOC)
			if err != nil {
				return fmt.Errorf("home %s battery: %w", in.Home.ID, err)
			}
			res, err := r.engine.Run(in.Home.ID, in.Series, batt, dispatch.Options{
				PoolDisabled: true,
				Policy:       r.policy,
			})
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	started := time.Now()
	var all []model.HourRecord
	for _, res := range results {
		all = append(all, res.Records...)
	}
	rc, err := Reconcile(all)
	if err != nil {
		return nil, err
	}

	ev := metrics.ReconcileEvent{
		Homes:    len(inputs),
		Hours:    len(rc.Allocations),
		Duration: time.Since(started),
	}
	for _, a := range rc.Allocations {
		ev.Transfers += len(a.Transfers)
		ev.MatchedKWh += a.MatchedKWh()
	}
	for _, rec := range rc.Records {
		ev.GridImportKWh += rec.GridImportKWh
	}
	r.rec.RecordReconcile(ev)
	r.log.Infof("reconciled %d homes over %d hours: %d transfers, %.1f kWh shared", ev.Homes, ev.Hours, ev.Transfers, ev.MatchedKWh)

	homes := make([]model.Home, len(inputs))
	for i, in := range inputs {
		homes[i] = in.Home
	}
	return &Result{
		Homes:       homes,
		Dispatch:    results,
		Records:     rc.Records,
		Allocations: rc.Allocations,
	}, nil
}

func validateInputs(inputs []HomeInput) error {
	if len(inputs) == 0 {
		return fmt.Errorf("no homes")
	}
	seen := make(map[string]struct{}, len(inputs))
	horizon := len(inputs[0].Series)
	for _, in := range inputs {
		if in.Home.ID == "" {
			return fmt.Errorf("home id is required")
		}
		if _, dup := seen[in.Home.ID]; dup {
			return fmt.Errorf("duplicate home id %q", in.Home.ID)
		}
		seen[in.Home.ID] = struct{}{}
		if len(in.Series) != horizon {
			return fmt.Errorf("home %s: %w (%d hours, expected %d)", in.Home.ID, dispatch.ErrHorizonMismatch, len(in.Series), horizon)
		}
	}
	return nil
}
