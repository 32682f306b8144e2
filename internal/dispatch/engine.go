package dispatch

import (
	"errors"
	"fmt"
	"math"
	"time"

	"neighborgrid/internal/logger"
	"neighborgrid/internal/metrics"
	"neighborgrid/internal/model"
)

// ErrHorizonMismatch is returned when per-hour inputs disagree on length.
var ErrHorizonMismatch = errors.New("horizon length mismatch")

// Options tune one home's run.
type Options struct {
	// PoolCapsKWh caps the pool draw per hour. Nil means unlimited, still
	// bounded by the home's own credits.
	PoolCapsKWh []float64
	// PoolDisabled forces to_pool/from_pool to zero; used ahead of the
	// community reconciler.
	PoolDisabled bool
	// Policy defaults to SelfFirst.
	Policy Policy
	// InitialCreditsKWh seeds the credit ledger.
	InitialCreditsKWh float64
}

type Engine struct {
	log logger.Logger
	rec metrics.Recorder
}

// New returns an Engine. Nil arguments fall back to no-op implementations.
func New(log logger.Logger, rec metrics.Recorder) *Engine {
	if log == nil {
		log = logger.NopLogger{}
	}
	if rec == nil {
		rec = metrics.NopRecorder{}
	}
	return &Engine{log: log, rec: rec}
}

// Run folds the policy over one home's hourly series, threading battery and
// credit state from hour to hour. Inputs are validated once up front.
func (e *Engine) Run(homeID string, series model.Timeseries, batt *model.Battery, opts Options) (*Result, error) {
	if batt == nil {
		return nil, fmt.Errorf("battery is nil")
	}
	if err := batt.Params.Validate(); err != nil {
		return nil, fmt.Errorf("home %s battery: %w", homeID, err)
	}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("home %s timeseries: %w", homeID, err)
	}
	if opts.PoolCapsKWh != nil && len(opts.PoolCapsKWh) != len(series) {
		return nil, fmt.Errorf("home %s pool caps: %w (%d caps, %d hours)", homeID, ErrHorizonMismatch, len(opts.PoolCapsKWh), len(series))
	}
	for i, c := range opts.PoolCapsKWh {
		if math.IsNaN(c) || c < 0 {
			return nil, fmt.Errorf("home %s pool cap at hour %d must be >= 0, got %v", homeID, i, c)
		}
	}
	policy := opts.Policy
	if policy == nil {
		policy = SelfFirst{}
	}

	started := time.Now()
	ledger := NewCreditLedger(opts.InitialCreditsKWh)
	records := make([]model.HourRecord, 0, len(series))

	for i, s := range series {
		poolCap := math.Inf(1)
		if opts.PoolCapsKWh != nil {
			poolCap = opts.PoolCapsKWh[i]
		}
		if opts.PoolDisabled {
			poolCap = 0
		}

		a := policy.Allocate(StepInput{
			Sample:      s,
			Battery:     batt,
			Ledger:      ledger,
			PoolCapKWh:  poolCap,
			PoolEnabled: !opts.PoolDisabled,
		})

		records = append(records, model.HourRecord{
			Hour:      s.Hour,
			Timestamp: s.Timestamp,
			HomeID:    homeID,

			PVProductionKWh:    s.PVProductionKWh,
			LoadConsumptionKWh: s.LoadConsumptionKWh,
			PoolCapKWh:         poolCap,

			BatteryFlowKWh: a.BatteryFlowKWh,
			Action:         model.ActionFromFlowKWh(a.BatteryFlowKWh),

			ToPoolKWh:     a.ToPoolKWh,
			FromPoolKWh:   a.FromPoolKWh,
			GridImportKWh: a.GridImportKWh,

			CreditsDeltaKWh:   a.ToPoolKWh - a.FromPoolKWh,
			CreditsBalanceKWh: ledger.Balance(),

			BatterySOC: batt.State.SOC,
		})
	}

	res := &Result{
		HomeID:          homeID,
		Policy:          policy.Name(),
		Records:         records,
		FinalSOC:        batt.State.SOC,
		FinalCreditsKWh: ledger.Balance(),
	}
	e.record(res, time.Since(started))
	return res, nil
}

func (e *Engine) record(res *Result, took time.Duration) {
	ev := metrics.DispatchEvent{
		HomeID:   res.HomeID,
		Policy:   res.Policy,
		Hours:    len(res.Records),
		Duration: took,
	}
	for _, r := range res.Records {
		ev.PVKWh += r.PVProductionKWh
		ev.LoadKWh += r.LoadConsumptionKWh
		ev.ToPoolKWh += r.ToPoolKWh
		ev.FromPoolKWh += r.FromPoolKWh
		ev.GridImportKWh += r.GridImportKWh
	}
	e.rec.RecordDispatch(ev)
	e.log.Debugw("home dispatched", map[string]any{
		"home_id":     res.HomeID,
		"hours":       ev.Hours,
		"final_soc":   res.FinalSOC,
		"credits_kwh": res.FinalCreditsKWh,
		"grid_kwh":    ev.GridImportKWh,
	})
}
