package model

import (
	"math"
	"time"
)

// HourRecord is the per-home, per-hour allocation outcome.
// All energy quantities are kWh and are kept unrounded.
type HourRecord struct {
	Hour      int
	Timestamp time.Time
	HomeID    string

	PVProductionKWh    float64
	LoadConsumptionKWh float64

	// PoolCapKWh is the hourly pool draw cap in effect; +Inf means unlimited.
	PoolCapKWh float64

	// BatteryFlowKWh is positive when charging, negative when discharging.
	BatteryFlowKWh float64
	Action         Action

	ToPoolKWh     float64
	FromPoolKWh   float64
	GridImportKWh float64

	CreditsDeltaKWh   float64
	CreditsBalanceKWh float64

	BatterySOC float64
}

// ChargeKWh is the charging part of the battery flow.
func (r HourRecord) ChargeKWh() float64 { return math.Max(0, r.BatteryFlowKWh) }

// DischargeKWh is the discharging part of the battery flow.
func (r HourRecord) DischargeKWh() float64 { return math.Max(0, -r.BatteryFlowKWh) }

// EnergyImbalanceKWh returns sources minus sinks for the hour.
func (r HourRecord) EnergyImbalanceKWh() float64 {
	sources := r.PVProductionKWh + r.DischargeKWh() + r.FromPoolKWh + r.GridImportKWh
	sinks := r.LoadConsumptionKWh + r.ChargeKWh() + r.ToPoolKWh
	return sources - sinks
}
