package community

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neighborgrid/internal/model"
)

func rec(hour int, id string, pv, load, flow float64) model.HourRecord {
	return model.HourRecord{
		Hour:               hour,
		HomeID:             id,
		PVProductionKWh:    pv,
		LoadConsumptionKWh: load,
		BatteryFlowKWh:     flow,
		GridImportKWh:      load - pv,
	}
}

func byHomeHour(records []model.HourRecord) map[string]map[int]model.HourRecord {
	out := map[string]map[int]model.HourRecord{}
	for _, r := range records {
		if out[r.HomeID] == nil {
			out[r.HomeID] = map[int]model.HourRecord{}
		}
		out[r.HomeID][r.Hour] = r
	}
	return out
}

func TestNetAvailable(t *testing.T) {
	assert.InDelta(t, 3.0, NetAvailable(rec(0, "A", 5, 2, 0)), 1e-12)
	assert.InDelta(t, 1.0, NetAvailable(rec(0, "A", 5, 2, 2)), 1e-12)
	assert.InDelta(t, -2.0, NetAvailable(rec(0, "B", 0, 2, 0)), 1e-12)
	assert.InDelta(t, -0.5, NetAvailable(rec(0, "B", 0, 2, -1.5)), 1e-12)
	assert.InDelta(t, 0, NetAvailable(rec(0, "C", 1, 1, 0)), 1e-12)
}

func TestReconcile_SurplusCoversNeighbor(t *testing.T) {
	rc, err := Reconcile([]model.HourRecord{
		rec(0, "B", 0, 2, 0),
		rec(0, "A", 5, 2, 0),
	})
	require.NoError(t, err)
	require.Len(t, rc.Records, 2)

	a, b := rc.Records[0], rc.Records[1]
	require.Equal(t, "A", a.HomeID)
	assert.InDelta(t, 2.0, a.ToPoolKWh, 1e-12)
	assert.Zero(t, a.FromPoolKWh)
	assert.Zero(t, a.GridImportKWh)
	assert.InDelta(t, 2.0, b.FromPoolKWh, 1e-12)
	assert.Zero(t, b.GridImportKWh)

	assert.InDelta(t, 2.0, a.CreditsBalanceKWh, 1e-12)
	assert.InDelta(t, -2.0, b.CreditsBalanceKWh, 1e-12)

	require.Len(t, rc.Allocations, 1)
	assert.Equal(t, []Transfer{{FromHomeID: "A", ToHomeID: "B", KWh: 2}}, rc.Allocations[0].Transfers)
}

func TestReconcile_ShortfallGoesToGrid(t *testing.T) {
	rc, err := Reconcile([]model.HourRecord{
		rec(0, "A", 2, 1, 0),
		rec(0, "B", 0, 2, 0),
		rec(0, "C", 0, 1.5, 0),
	})
	require.NoError(t, err)

	got := byHomeHour(rc.Records)
	// B is the larger deficit and is served first.
	assert.InDelta(t, 1.0, got["B"][0].FromPoolKWh, 1e-12)
	assert.InDelta(t, 1.0, got["B"][0].GridImportKWh, 1e-12)
	assert.Zero(t, got["C"][0].FromPoolKWh)
	assert.InDelta(t, 1.5, got["C"][0].GridImportKWh, 1e-12)
}

func TestReconcile_NoProducersMeansAllGrid(t *testing.T) {
	rc, err := Reconcile([]model.HourRecord{
		rec(0, "A", 0, 1, -0.4),
		rec(0, "B", 0, 2, 0),
	})
	require.NoError(t, err)

	got := byHomeHour(rc.Records)
	assert.InDelta(t, 0.6, got["A"][0].GridImportKWh, 1e-12)
	assert.InDelta(t, 2.0, got["B"][0].GridImportKWh, 1e-12)
	assert.Empty(t, rc.Allocations[0].Transfers)
	for _, r := range rc.Records {
		assert.Zero(t, r.ToPoolKWh)
		assert.Zero(t, r.FromPoolKWh)
		assert.Zero(t, r.CreditsBalanceKWh)
	}
}

func TestReconcile_SmallDeficitsStayUnmatched(t *testing.T) {
	rc, err := Reconcile([]model.HourRecord{
		rec(0, "A", 3, 1, 0),
		rec(0, "B", 1, 1.005, 0),
	})
	require.NoError(t, err)

	got := byHomeHour(rc.Records)
	assert.Zero(t, got["B"][0].FromPoolKWh)
	assert.Zero(t, got["B"][0].GridImportKWh, "below tolerance is not imported")
	assert.Zero(t, got["A"][0].ToPoolKWh, "unmatched surplus is dropped")
}

func TestReconcile_PoolConservationAndPrefixSums(t *testing.T) {
	var in []model.HourRecord
	for h := 0; h < 6; h++ {
		in = append(in,
			rec(h, "A", float64(h), 1, 0),
			rec(h, "B", 0, 1.5, 0),
			rec(h, "C", 2, 0.5, 0.5),
		)
	}
	rc, err := Reconcile(in)
	require.NoError(t, err)
	require.Len(t, rc.Allocations, 6)

	for _, a := range rc.Allocations {
		to, from := 0.0, 0.0
		for _, r := range rc.Records {
			if r.Hour == a.Hour {
				to += r.ToPoolKWh
				from += r.FromPoolKWh
				assert.False(t, r.ToPoolKWh > 0 && r.FromPoolKWh > 0)
			}
		}
		assert.InDelta(t, to, from, 1e-9, "hour %d", a.Hour)
		assert.InDelta(t, a.MatchedKWh(), from, 1e-9)
	}

	running := map[string]float64{}
	for i, r := range rc.Records {
		if i > 0 {
			prev := rc.Records[i-1]
			assert.True(t, prev.Hour < r.Hour || (prev.Hour == r.Hour && prev.HomeID < r.HomeID))
		}
		assert.InDelta(t, r.ToPoolKWh-r.FromPoolKWh, r.CreditsDeltaKWh, 1e-12)
		running[r.HomeID] += r.CreditsDeltaKWh
		assert.InDelta(t, running[r.HomeID], r.CreditsBalanceKWh, 1e-9)
	}
}

func TestReconcile_StableTieBreak(t *testing.T) {
	rc, err := Reconcile([]model.HourRecord{
		rec(0, "P2", 2, 1, 0),
		rec(0, "P1", 2, 1, 0),
		rec(0, "C1", 0, 1, 0),
	})
	require.NoError(t, err)

	// Equal producers keep home ID order after the pre-sort.
	require.Len(t, rc.Allocations[0].Transfers, 1)
	assert.Equal(t, "P1", rc.Allocations[0].Transfers[0].FromHomeID)
}

func TestReconcile_DoesNotMutateInput(t *testing.T) {
	in := []model.HourRecord{rec(0, "A", 5, 2, 0), rec(0, "B", 0, 2, 0)}
	_, err := Reconcile(in)
	require.NoError(t, err)
	assert.Zero(t, in[0].ToPoolKWh)
	assert.InDelta(t, 2.0, in[1].GridImportKWh, 1e-12)
}

func TestReconcile_Misaligned(t *testing.T) {
	_, err := Reconcile([]model.HourRecord{
		rec(0, "A", 1, 1, 0),
		rec(0, "B", 1, 1, 0),
		rec(1, "A", 1, 1, 0),
	})
	assert.True(t, errors.Is(err, ErrMisaligned))

	_, err = Reconcile([]model.HourRecord{
		rec(0, "A", 1, 1, 0),
		rec(0, "A", 1, 1, 0),
	})
	assert.True(t, errors.Is(err, ErrMisaligned))
}

func TestReconcile_Empty(t *testing.T) {
	rc, err := Reconcile(nil)
	require.NoError(t, err)
	assert.Empty(t, rc.Records)
	assert.Empty(t, rc.Allocations)
}
