package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SimulationResponse represents the response from a simulation run
type SimulationResponse struct {
	ID     string     `json:"id"`
	Mode   string     `json:"mode"` // "single" or "community"
	Policy string     `json:"policy"`
	Window TimeWindow `json:"window"`

	Summary   *HomeSummary      `json:"summary,omitempty"`
	Community *CommunitySummary `json:"community,omitempty"`
	Homes     []HomeSummary     `json:"homes,omitempty"`
	Records   []RecordRow       `json:"records,omitempty"`
}

// TimeWindow represents a time range
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// HomeSummary contains aggregated per-home results
type HomeSummary struct {
	HomeID             string    `json:"home_id"`
	Hours              int       `json:"hours"`
	TotalPVKWh         float64   `json:"total_pv_kwh"`
	TotalLoadKWh       float64   `json:"total_load_kwh"`
	TotalToPoolKWh     float64   `json:"total_to_pool_kwh"`
	TotalFromPoolKWh   float64   `json:"total_from_pool_kwh"`
	TotalGridImportKWh float64   `json:"total_grid_import_kwh"`
	FinalSOCPct        float64   `json:"final_soc_pct"`
	FinalCreditsKWh    float64   `json:"final_credits_kwh"`
	SelfSufficiencyPct float64   `json:"self_sufficiency_pct"`
	Economics          Economics `json:"economics"`
}

// CommunitySummary contains aggregated community results
type CommunitySummary struct {
	Homes              int       `json:"homes"`
	Hours              int       `json:"hours"`
	TotalPVKWh         float64   `json:"total_pv_kwh"`
	TotalLoadKWh       float64   `json:"total_load_kwh"`
	MicrogridSharedKWh float64   `json:"microgrid_shared_kwh"`
	SharedPctOfLoad    float64   `json:"shared_pct_of_load"`
	TotalGridImportKWh float64   `json:"total_grid_import_kwh"`
	GridPctOfLoad      float64   `json:"grid_pct_of_load"`
	SelfConsumptionKWh float64   `json:"self_consumption_kwh"`
	Transfers          int       `json:"transfers"`
	Economics          Economics `json:"economics"`
}

// Economics is fair-rate money, serialized as decimal strings
type Economics struct {
	RatePerKWh decimal.Decimal `json:"rate_per_kwh"`
	Earned     decimal.Decimal `json:"earned"`
	Paid       decimal.Decimal `json:"paid"`
	Net        decimal.Decimal `json:"net"`
}

// RecordRow represents one home-hour of a run
type RecordRow struct {
	Hour               int       `json:"hour"`
	Timestamp          time.Time `json:"timestamp_hour"`
	HomeID             string    `json:"home_id"`
	PVProductionKWh    float64   `json:"pv_production_kwh"`
	LoadConsumptionKWh float64   `json:"load_consumption_kwh"`
	PoolCapKWh         *float64  `json:"from_pool_cap_kwh"` // null = unlimited
	Action             string    `json:"battery_action"`    // "CHARGING", "DISCHARGING", "IDLE"
	BatterySOC         float64   `json:"battery_soc"`
	BatteryFlowKWh     float64   `json:"battery_flow_kwh"`
	ToPoolKWh          float64   `json:"to_pool_kwh"`
	FromPoolKWh        float64   `json:"from_pool_kwh"`
	GridImportKWh      float64   `json:"grid_import_kwh"`
	CreditsDeltaKWh    float64   `json:"credits_delta_kwh"`
	CreditsBalanceKWh  float64   `json:"credits_balance_kwh"`
}

// RecordsResponse is returned by GET /api/v1/runs/:id/records
type RecordsResponse struct {
	ID      string      `json:"id"`
	Mode    string      `json:"mode"`
	Total   int         `json:"total"`
	Records []RecordRow `json:"records"`
}

// RankResponse represents the response from ranking homes
type RankResponse struct {
	ID       string    `json:"id"`
	Rankings []Ranking `json:"rankings"`
}

// Ranking represents one ranked home
type Ranking struct {
	Rank               int     `json:"rank"`
	HomeID             string  `json:"home_id"`
	FinalCreditsKWh    float64 `json:"final_credits_kwh"`
	SelfSufficiencyPct float64 `json:"self_sufficiency_pct"`
	TotalToPoolKWh     float64 `json:"total_to_pool_kwh"`
	TotalFromPoolKWh   float64 `json:"total_from_pool_kwh"`
	TotalGridImportKWh float64 `json:"total_grid_import_kwh"`
}

// HomeInfo represents a home in the configured roster
type HomeInfo struct {
	ID             string  `json:"id"`
	SolarKW        float64 `json:"solar_kw"`
	BatteryKWh     float64 `json:"battery_kwh"`
	LoadBaseKWh    float64 `json:"load_base_kwh"`
	LoadPeakKWh    float64 `json:"load_peak_kwh"`
	Orientation    string  `json:"solar_orientation"`
	LoadShiftHours int     `json:"load_pattern_shift_hours"`
	InitialSOC     float64 `json:"initial_soc"`
	IsNetConsumer  bool    `json:"is_net_consumer"`
}

// PolicyInfo represents information about a dispatch policy
type PolicyInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Implemented bool   `json:"implemented"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
