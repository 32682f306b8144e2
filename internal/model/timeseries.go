package model

import (
	"fmt"
	"math"
	"time"
)

// HourSample is one row of a home's input timeseries.
type HourSample struct {
	Hour      int       `json:"hour"`
	Timestamp time.Time `json:"timestamp_hour"`

	PVProductionKWh    float64 `json:"pv_production_kwh"`
	LoadConsumptionKWh float64 `json:"load_consumption_kwh"`
}

// Timeseries is an ordered, hour-aligned sequence of samples for one home.
type Timeseries []HourSample

// Validate checks the input contract: hours contiguous from 0, pv >= 0, load > 0.
func (ts Timeseries) Validate() error {
	if len(ts) == 0 {
		return fmt.Errorf("timeseries is empty")
	}
	for i, s := range ts {
		if s.Hour != i {
			return fmt.Errorf("sample %d: hour %d is not contiguous from 0", i, s.Hour)
		}
		if math.IsNaN(s.PVProductionKWh) || s.PVProductionKWh < 0 {
			return fmt.Errorf("hour %d: pv production must be >= 0, got %v", s.Hour, s.PVProductionKWh)
		}
		if math.IsNaN(s.LoadConsumptionKWh) || s.LoadConsumptionKWh <= 0 {
			return fmt.Errorf("hour %d: load consumption must be > 0, got %v", s.Hour, s.LoadConsumptionKWh)
		}
	}
	return nil
}

// TotalPVKWh sums pv production over the horizon.
func (ts Timeseries) TotalPVKWh() float64 {
	sum := 0.0
	for _, s := range ts {
		sum += s.PVProductionKWh
	}
	return sum
}
