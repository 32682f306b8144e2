package model

import (
	"errors"
	"math"
)

// Process-wide physical constants. They are fixed for a run.
const (
	SOCMin            = 0.20
	SOCMax            = 0.95
	BatteryEfficiency = 0.95
	FairRatePerKWh    = 0.18
)

// BatteryParams defines the physical parameters of a home battery.
// Units:
// - CapacityKWh: kWh
// - Efficiency: 0..1, applied once per direction (charge or discharge)
// - SOC: fraction 0..1
type BatteryParams struct {
	CapacityKWh float64
	Efficiency  float64
	MinSOC      float64
	MaxSOC      float64
}

// DefaultBatteryParams returns params for a battery of the given size using
// the process-wide SOC window and efficiency.
func DefaultBatteryParams(capacityKWh float64) BatteryParams {
	return BatteryParams{
		CapacityKWh: capacityKWh,
		Efficiency:  BatteryEfficiency,
		MinSOC:      SOCMin,
		MaxSOC:      SOCMax,
	}
}

// BatteryState captures mutable state.
type BatteryState struct {
	// SOC is the state of charge as a fraction [MinSOC, MaxSOC].
	SOC float64
}

// Battery bundles params + state for one home's run.
type Battery struct {
	Params BatteryParams
	State  BatteryState
}

// NewBattery validates params and the initial SOC, then clamps the SOC into
// [MinSOC, MaxSOC].
func NewBattery(params BatteryParams, initialSOC float64) (*Battery, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(initialSOC) || initialSOC < 0 || initialSOC > 1 {
		return nil, errors.New("initial SOC must be within [0, 1]")
	}
	b := &Battery{Params: params}
	b.State.SOC = b.clampSOC(initialSOC)
	return b, nil
}

func (p BatteryParams) Validate() error {
	if !(p.CapacityKWh > 0) {
		return errors.New("CapacityKWh must be > 0")
	}
	if p.Efficiency <= 0 || p.Efficiency > 1 {
		return errors.New("Efficiency must be in (0, 1]")
	}
	if p.MinSOC < 0 || p.MinSOC > 1 || p.MaxSOC < 0 || p.MaxSOC > 1 || p.MinSOC > p.MaxSOC {
		return errors.New("MinSOC/MaxSOC must satisfy 0<=MinSOC<=MaxSOC<=1")
	}
	return nil
}

// MaxChargeKWh is the input energy the battery can still absorb before
// hitting MaxSOC. Stored energy = input * efficiency.
func (b *Battery) MaxChargeKWh() float64 {
	storable := (b.Params.MaxSOC - b.State.SOC) * b.Params.CapacityKWh
	if storable <= 0 {
		return 0
	}
	return storable / b.Params.Efficiency
}

// MaxDischargeKWh is the energy the battery can still deliver before
// hitting MinSOC. Delivered energy = withdrawn * efficiency.
func (b *Battery) MaxDischargeKWh() float64 {
	withdrawable := (b.State.SOC - b.Params.MinSOC) * b.Params.CapacityKWh
	if withdrawable <= 0 {
		return 0
	}
	return withdrawable * b.Params.Efficiency
}

// Charge absorbs up to surplusKWh and returns the amount taken.
func (b *Battery) Charge(surplusKWh float64) float64 {
	if surplusKWh <= 0 {
		return 0
	}
	charge := math.Min(surplusKWh, b.MaxChargeKWh())
	b.State.SOC = b.clampSOC(b.State.SOC + charge*b.Params.Efficiency/b.Params.CapacityKWh)
	return charge
}

// Discharge delivers up to deficitKWh and returns the amount delivered.
func (b *Battery) Discharge(deficitKWh float64) float64 {
	if deficitKWh <= 0 {
		return 0
	}
	discharge := math.Min(deficitKWh, b.MaxDischargeKWh())
	b.State.SOC = b.clampSOC(b.State.SOC - discharge/(b.Params.CapacityKWh*b.Params.Efficiency))
	return discharge
}

func (b *Battery) clampSOC(x float64) float64 {
	if x < b.Params.MinSOC {
		return b.Params.MinSOC
	}
	if x > b.Params.MaxSOC {
		return b.Params.MaxSOC
	}
	return x
}
