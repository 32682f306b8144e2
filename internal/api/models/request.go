package models

// HomeSpec describes a home in a request. Omitted fields fall back to the
// configured home; pointers let an explicit zero (no solar, south facing)
// override it.
type HomeSpec struct {
	ID                string   `json:"id,omitempty"`
	SolarKW           *float64 `json:"solar_kw,omitempty" binding:"omitempty,gte=0"`
	BatteryKWh        *float64 `json:"battery_kwh,omitempty" binding:"omitempty,gt=0"`
	LoadBaseKWh       *float64 `json:"load_base_kwh,omitempty" binding:"omitempty,gte=0"`
	LoadPeakKWh       *float64 `json:"load_peak_kwh,omitempty" binding:"omitempty,gte=0"`
	SolarOffsetHours  *int     `json:"solar_offset_hours,omitempty"`
	LoadShiftHours    *int     `json:"load_shift_hours,omitempty"`
	InitialSOC        *float64 `json:"initial_soc,omitempty"`
	InitialCreditsKWh *float64 `json:"initial_credits_kwh,omitempty"`
	IsNetConsumer     *bool    `json:"is_net_consumer,omitempty"`
}

// PoolSpec selects the hourly pool cap for a single-home run.
type PoolSpec struct {
	Disabled        bool     `json:"disabled,omitempty"`
	CapPerHourKWh   *float64 `json:"cap_per_hour_kwh,omitempty" binding:"omitempty,gte=0"`
	BaseCapacityKWh float64  `json:"base_capacity_kwh,omitempty" binding:"gte=0"`
}

// SimulationOptions contains optional response parameters
type SimulationOptions struct {
	IncludeRecords bool `json:"include_records,omitempty"` // default: false
}

// SingleSimulationRequest is the body of POST /api/v1/simulate/single
type SingleSimulationRequest struct {
	Start   string            `json:"start,omitempty"` // YYYY-MM-DD
	Hours   int               `json:"hours,omitempty" binding:"omitempty,gte=1,lte=8784"`
	Seed    *uint64           `json:"seed,omitempty"`
	Policy  string            `json:"policy,omitempty"`
	Home    HomeSpec          `json:"home"`
	Pool    PoolSpec          `json:"pool"`
	Options SimulationOptions `json:"options,omitempty"`
}

// CommunitySimulationRequest is the body of POST /api/v1/simulate/community
type CommunitySimulationRequest struct {
	Start  string  `json:"start,omitempty"`
	Days   int     `json:"days,omitempty" binding:"omitempty,gte=1,lte=366"`
	Seed   *uint64 `json:"seed,omitempty"`
	Policy string  `json:"policy,omitempty"`
	// Homes replaces the configured roster when non-empty.
	Homes   []HomeSpec        `json:"homes,omitempty" binding:"dive"`
	Options SimulationOptions `json:"options,omitempty"`
}

// RecordsQuery filters GET /api/v1/runs/:id/records
type RecordsQuery struct {
	HomeID string `form:"home_id"`
	Limit  int    `form:"limit" binding:"omitempty,gte=1"`
}
