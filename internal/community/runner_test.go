package community

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neighborgrid/internal/data"
	"neighborgrid/internal/dispatch"
	"neighborgrid/internal/metrics"
	"neighborgrid/internal/model"
)

func defaultInputs(t *testing.T, hours int) []HomeInput {
	t.Helper()
	gen := data.NewGenerator(42)
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	var inputs []HomeInput
	for _, h := range data.DefaultCommunity() {
		ts, err := gen.HomeTimeseries(data.ParamsForHome(h, start, hours))
		require.NoError(t, err)
		inputs = append(inputs, HomeInput{Home: h, Series: ts})
	}
	return inputs
}

type reconcileCapture struct {
	metrics.NopRecorder
	events []metrics.ReconcileEvent
}

func (c *reconcileCapture) RecordReconcile(ev metrics.ReconcileEvent) { c.events = append(c.events, ev) }

func TestRunner_DefaultCommunity(t *testing.T) {
	capture := &reconcileCapture{}
	r := NewRunner(nil, nil, nil, capture)
	res, err := r.Run(context.Background(), defaultInputs(t, 48))
	require.NoError(t, err)

	require.Len(t, res.Homes, 10)
	require.Len(t, res.Dispatch, 10)
	require.Len(t, res.Records, 480)
	require.Len(t, res.Allocations, 48)

	running := map[string]float64{}
	shared := 0.0
	for _, rec := range res.Records {
		assert.GreaterOrEqual(t, rec.BatterySOC, model.SOCMin-1e-9)
		assert.LessOrEqual(t, rec.BatterySOC, model.SOCMax+1e-9)
		assert.False(t, rec.ToPoolKWh > 0 && rec.FromPoolKWh > 0)
		assert.GreaterOrEqual(t, rec.GridImportKWh, 0.0)

		running[rec.HomeID] += rec.CreditsDeltaKWh
		assert.InDelta(t, running[rec.HomeID], rec.CreditsBalanceKWh, 1e-9)
		shared += rec.FromPoolKWh
	}

	for _, a := range res.Allocations {
		to, from := 0.0, 0.0
		for _, rec := range res.Records {
			if rec.Hour == a.Hour {
				to += rec.ToPoolKWh
				from += rec.FromPoolKWh
			}
		}
		assert.InDelta(t, to, from, 1e-9)
	}

	require.Len(t, capture.events, 1)
	assert.Equal(t, 10, capture.events[0].Homes)
	assert.Equal(t, 48, capture.events[0].Hours)
	assert.InDelta(t, shared, capture.events[0].MatchedKWh, 1e-6)
}

func flat(hours int, pv, load float64) model.Timeseries {
	ts := make(model.Timeseries, hours)
	for i := range ts {
		ts[i] = model.HourSample{Hour: i, PVProductionKWh: pv, LoadConsumptionKWh: load}
	}
	return ts
}

func TestRunner_FullBatteryFeedsEmptyNeighbor(t *testing.T) {
	inputs := []HomeInput{
		{Home: model.Home{ID: "A", BatteryKWh: 10, InitialSOC: model.SOCMax}, Series: flat(3, 5, 1)},
		{Home: model.Home{ID: "B", BatteryKWh: 10, InitialSOC: model.SOCMin}, Series: flat(3, 0, 2)},
	}
	res, err := NewRunner(nil, nil, nil, nil).Run(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, res.Records, 6)

	for _, rec := range res.Records {
		switch rec.HomeID {
		case "A":
			assert.InDelta(t, 2.0, rec.ToPoolKWh, 1e-9)
			assert.InDelta(t, 2.0*float64(rec.Hour+1), rec.CreditsBalanceKWh, 1e-9)
		case "B":
			assert.InDelta(t, 2.0, rec.FromPoolKWh, 1e-9)
			assert.Zero(t, rec.GridImportKWh)
			assert.InDelta(t, -2.0*float64(rec.Hour+1), rec.CreditsBalanceKWh, 1e-9)
		}
	}
}

func TestRunner_StandaloneRunsHavePoolDisabled(t *testing.T) {
	res, err := NewRunner(nil, nil, nil, nil).Run(context.Background(), defaultInputs(t, 24))
	require.NoError(t, err)
	for _, d := range res.Dispatch {
		for _, rec := range d.Records {
			assert.Zero(t, rec.ToPoolKWh)
			assert.Zero(t, rec.FromPoolKWh)
		}
	}
}

func TestRunner_Validation(t *testing.T) {
	r := NewRunner(nil, nil, nil, nil)
	ctx := context.Background()

	_, err := r.Run(ctx, nil)
	assert.Error(t, err)

	inputs := defaultInputs(t, 24)
	inputs[3].Series = inputs[3].Series[:12]
	_, err = r.Run(ctx, inputs)
	assert.True(t, errors.Is(err, dispatch.ErrHorizonMismatch))

	inputs = defaultInputs(t, 24)
	inputs[1].Home.ID = inputs[0].Home.ID
	_, err = r.Run(ctx, inputs)
	assert.Error(t, err)

	inputs = defaultInputs(t, 24)
	inputs[0].Home.BatteryKWh = 0
	_, err = r.Run(ctx, inputs)
	assert.Error(t, err)
}

func TestRunner_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRunner(nil, nil, nil, nil).Run(ctx, defaultInputs(t, 24))
	assert.ErrorIs(t, err, context.Canceled)
}
