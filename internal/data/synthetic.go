package data

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"neighborgrid/internal/model"
)

const (
	DefaultLoadBaseKWh = 0.6
	DefaultLoadPeakKWh = 1.2
	minLoadKWh         = 0.1
)

// SeriesParams shapes one home's synthetic timeseries.
type SeriesParams struct {
	Start       time.Time
	Hours       int
	SolarKW     float64
	LoadBaseKWh float64
	LoadPeakKWh float64

	// SolarOffsetHours moves the PV peak away from noon (-2=east, +2=west).
	SolarOffsetHours int
	// LoadShiftHours moves the load pattern later (+2=late schedule).
	LoadShiftHours int
}

// ParamsForHome builds SeriesParams from a home's equipment.
func ParamsForHome(h model.Home, start time.Time, hours int) SeriesParams {
	return SeriesParams{
		Start:            start,
		Hours:            hours,
		SolarKW:          h.SolarKW,
		LoadBaseKWh:      h.LoadBaseKWh,
		LoadPeakKWh:      h.LoadPeakKWh,
		SolarOffsetHours: h.SolarOffsetHours,
		LoadShiftHours:   h.LoadShiftHours,
	}
}

// Generator produces synthetic hourly PV and load series.
// PV is deterministic; only load carries random jitter.
// A Generator is not safe for concurrent use.
type Generator struct {
	src rand.Source
}

// NewGenerator returns a Generator whose output is fully determined by seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
}

// HomeTimeseries generates p.Hours samples starting at p.Start.
func (g *Generator) HomeTimeseries(p SeriesParams) (model.Timeseries, error) {
	if p.Hours <= 0 {
		return nil, fmt.Errorf("hours must be > 0, got %d", p.Hours)
	}
	if p.SolarKW < 0 {
		return nil, fmt.Errorf("solar kW must be >= 0, got %v", p.SolarKW)
	}
	if p.LoadBaseKWh == 0 {
		p.LoadBaseKWh = DefaultLoadBaseKWh
	}
	if p.LoadPeakKWh == 0 {
		p.LoadPeakKWh = DefaultLoadPeakKWh
	}

	ts := make(model.Timeseries, 0, p.Hours)
	for h := 0; h < p.Hours; h++ {
		at := p.Start.Add(time.Duration(h) * time.Hour)
		hourOfDay := at.Hour()
		ts = append(ts, model.HourSample{
			Hour:               h,
			Timestamp:          at,
			PVProductionKWh:    PVOutputKWh(p.SolarKW, hourOfDay, p.SolarOffsetHours),
			LoadConsumptionKWh: g.load(p, hourOfDay),
		})
	}
	return ts, nil
}

// PVOutputKWh is a bell curve between 06:00 and 18:00 peaking at
// 12+offset, scaled by nameplate kW.
func PVOutputKWh(solarKW float64, hourOfDay, offset int) float64 {
	if hourOfDay < 6 || hourOfDay > 18 {
		return 0
	}
	t := float64(hourOfDay-6) / 12.0
	peak := float64(12+offset-6) / 12.0
	pv := solarKW * math.Exp(-((t-peak)*(t-peak))/0.08)
	return math.Max(0, pv)
}

func (g *Generator) load(p SeriesParams, hourOfDay int) float64 {
	shifted := ((hourOfDay-p.LoadShiftHours)%24 + 24) % 24
	var load float64
	switch {
	case (shifted >= 6 && shifted <= 9) || (shifted >= 17 && shifted <= 22):
		load = p.LoadPeakKWh + g.uniform(-0.1, 0.1)
	case shifted <= 5 || shifted == 23:
		load = p.LoadBaseKWh*0.5 + g.uniform(-0.05, 0.05)
	default:
		load = p.LoadBaseKWh + g.uniform(-0.1, 0.1)
	}
	return math.Max(minLoadKWh, load)
}

// PoolAvailability generates an hourly pool cap around baseKWh.
func (g *Generator) PoolAvailability(hours int, baseKWh float64) []float64 {
	caps := make([]float64, hours)
	for i := range caps {
		caps[i] = math.Max(0, baseKWh+g.uniform(-1.0, 2.0))
	}
	return caps
}

func (g *Generator) uniform(min, max float64) float64 {
	return distuv.Uniform{Min: min, Max: max, Src: g.src}.Rand()
}
