package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var june = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func TestPVOutputKWh(t *testing.T) {
	for _, h := range []int{0, 3, 5, 19, 23} {
		assert.Zero(t, PVOutputKWh(8, h, 0), "hour %d", h)
	}
	assert.InDelta(t, 8.0, PVOutputKWh(8, 12, 0), 1e-12)
	assert.Greater(t, PVOutputKWh(8, 6, 0), 0.0)

	// East-facing arrays peak earlier.
	assert.Greater(t, PVOutputKWh(8, 10, -2), PVOutputKWh(8, 10, 2))
	assert.InDelta(t, PVOutputKWh(8, 10, -2), PVOutputKWh(8, 14, 2), 1e-12)

	assert.Greater(t, PVOutputKWh(15, 11, 0), PVOutputKWh(5, 11, 0))
	assert.Zero(t, PVOutputKWh(0, 12, 0))
}

func TestHomeTimeseries_TotalPVScalesWithArraySize(t *testing.T) {
	for _, offset := range []int{-2, 0, 2} {
		prev := -1.0
		for _, kw := range []float64{0, 2, 6, 8, 15} {
			ts, err := NewGenerator(42).HomeTimeseries(SeriesParams{
				Start: june, Hours: 72, SolarKW: kw, SolarOffsetHours: offset,
				LoadBaseKWh: 0.6, LoadPeakKWh: 1.2,
			})
			require.NoError(t, err)
			total := ts.TotalPVKWh()
			assert.GreaterOrEqual(t, total, prev, "offset %d solar %.0f kW", offset, kw)
			prev = total
		}
	}
}

func TestHomeTimeseries(t *testing.T) {
	g := NewGenerator(7)
	ts, err := g.HomeTimeseries(SeriesParams{Start: june, Hours: 48, SolarKW: 6})
	require.NoError(t, err)
	require.Len(t, ts, 48)
	require.NoError(t, ts.Validate())

	for i, s := range ts {
		assert.Equal(t, i, s.Hour)
		assert.Equal(t, june.Add(time.Duration(i)*time.Hour), s.Timestamp)
		assert.GreaterOrEqual(t, s.LoadConsumptionKWh, minLoadKWh)
		hod := s.Timestamp.Hour()
		if hod < 6 || hod > 18 {
			assert.Zero(t, s.PVProductionKWh)
		} else {
			assert.Greater(t, s.PVProductionKWh, 0.0)
		}
	}

	// Evening peak is heavier than the night trough.
	assert.Greater(t, ts[19].LoadConsumptionKWh, ts[3].LoadConsumptionKWh)
}

func TestHomeTimeseries_Deterministic(t *testing.T) {
	p := SeriesParams{Start: june, Hours: 24, SolarKW: 5, LoadBaseKWh: 0.8, LoadPeakKWh: 1.5, LoadShiftHours: 2}
	a, err := NewGenerator(42).HomeTimeseries(p)
	require.NoError(t, err)
	b, err := NewGenerator(42).HomeTimeseries(p)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := NewGenerator(43).HomeTimeseries(p)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestHomeTimeseries_Invalid(t *testing.T) {
	g := NewGenerator(1)
	_, err := g.HomeTimeseries(SeriesParams{Start: june, Hours: 0, SolarKW: 5})
	assert.Error(t, err)
	_, err = g.HomeTimeseries(SeriesParams{Start: june, Hours: 24, SolarKW: -1})
	assert.Error(t, err)
}

func TestPoolAvailability(t *testing.T) {
	caps := NewGenerator(3).PoolAvailability(72, 2)
	require.Len(t, caps, 72)
	for _, c := range caps {
		assert.GreaterOrEqual(t, c, 1.0)
		assert.LessOrEqual(t, c, 4.0)
	}

	for _, c := range NewGenerator(3).PoolAvailability(24, 0) {
		assert.GreaterOrEqual(t, c, 0.0)
	}
}

func TestDefaultCommunity(t *testing.T) {
	homes := DefaultCommunity()
	require.Len(t, homes, 10)
	byID := HomesByID(homes)
	require.Len(t, byID, 10)

	assert.Equal(t, "east", byID["H001"].Orientation())
	assert.Equal(t, "west", byID["H010"].Orientation())
	consumers := 0
	for _, h := range homes {
		assert.Equal(t, 0.5, h.InitialSOC)
		if h.IsNetConsumer {
			consumers++
		}
	}
	assert.Equal(t, 4, consumers)
}
