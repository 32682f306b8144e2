package simulate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neighborgrid/internal/data"
	"neighborgrid/internal/dispatch"
	"neighborgrid/internal/model"
)

var start = time.Date(2025, 10, 4, 0, 0, 0, 0, time.UTC)

func home() model.Home {
	return model.Home{ID: "H001", SolarKW: 6, BatteryKWh: 10, InitialSOC: 0.5}
}

func TestSingle(t *testing.T) {
	svc := NewService(nil, nil)
	res, err := svc.Single(SingleScenario{Home: home(), Start: start, Hours: 24, Seed: 1})
	require.NoError(t, err)
	require.Len(t, res.Records, 24)
	assert.Equal(t, "H001", res.HomeID)
	assert.Equal(t, start, res.Records[0].Timestamp)
}

func TestSingle_Deterministic(t *testing.T) {
	svc := NewService(nil, nil)
	sc := SingleScenario{Home: home(), Start: start, Hours: 48, Seed: 9, Pool: PoolSettings{BaseCapacityKWh: 2}}
	a, err := svc.Single(sc)
	require.NoError(t, err)
	b, err := svc.Single(sc)
	require.NoError(t, err)
	assert.Equal(t, a.Records, b.Records)
}

func TestSingle_FlatCap(t *testing.T) {
	capKWh := 0.25
	svc := NewService(nil, nil)
	res, err := svc.Single(SingleScenario{
		Home:              home(),
		Start:             start,
		Hours:             24,
		Pool:              PoolSettings{CapPerHourKWh: &capKWh},
		InitialCreditsKWh: 50,
	})
	require.NoError(t, err)
	for _, r := range res.Records {
		assert.Equal(t, capKWh, r.PoolCapKWh)
		assert.LessOrEqual(t, r.FromPoolKWh, capKWh+1e-12)
	}
}

func TestSingle_ExternalSeries(t *testing.T) {
	series := model.Timeseries{
		{Hour: 0, PVProductionKWh: 0, LoadConsumptionKWh: 1},
		{Hour: 1, PVProductionKWh: 3, LoadConsumptionKWh: 1},
	}
	res, err := NewService(nil, nil).Single(SingleScenario{Home: home(), Hours: 99, Series: series})
	require.NoError(t, err)
	assert.Len(t, res.Records, 2)
}

func TestSingle_Errors(t *testing.T) {
	svc := NewService(nil, nil)
	_, err := svc.Single(SingleScenario{Home: home(), Start: start, Hours: 24, Policy: "community_first"})
	assert.True(t, errors.Is(err, dispatch.ErrUnknownPolicy))

	bad := home()
	bad.BatteryKWh = 0
	_, err = svc.Single(SingleScenario{Home: bad, Start: start, Hours: 24})
	assert.Error(t, err)

	_, err = svc.Single(SingleScenario{Home: home(), Start: start, Hours: 0})
	assert.Error(t, err)
}

func TestCommunity_DefaultRoster(t *testing.T) {
	res, err := NewService(nil, nil).Community(context.Background(), CommunityScenario{Start: start, Hours: 24, Seed: 42})
	require.NoError(t, err)
	assert.Len(t, res.Homes, len(data.DefaultCommunity()))
	assert.Len(t, res.Records, 24*len(data.DefaultCommunity()))
}

func TestCommunity_MixedSeries(t *testing.T) {
	homes := []model.Home{
		{ID: "A", SolarKW: 0, BatteryKWh: 10, InitialSOC: model.SOCMax},
		{ID: "B", SolarKW: 5, BatteryKWh: 10, InitialSOC: 0.5},
	}
	external := model.Timeseries{
		{Hour: 0, PVProductionKWh: 5, LoadConsumptionKWh: 1},
		{Hour: 1, PVProductionKWh: 5, LoadConsumptionKWh: 1},
	}
	res, err := NewService(nil, nil).Community(context.Background(), CommunityScenario{
		Homes:  homes,
		Start:  start,
		Hours:  2,
		Series: map[string]model.Timeseries{"A": external},
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 4)
	for _, r := range res.Records {
		if r.HomeID == "A" {
			assert.Equal(t, 5.0, r.PVProductionKWh)
		}
	}

	_, err = NewService(nil, nil).Community(context.Background(), CommunityScenario{
		Homes:  homes,
		Start:  start,
		Hours:  3,
		Series: map[string]model.Timeseries{"A": external},
	})
	assert.True(t, errors.Is(err, dispatch.ErrHorizonMismatch))
}
