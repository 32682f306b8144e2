package model

// Action is a human-friendly battery mode for an hour.
// Keep these values stable; they are intended for CSV output.
type Action string

const (
	ActionCharging    Action = "CHARGING"
	ActionIdle        Action = "IDLE"
	ActionDischarging Action = "DISCHARGING"
)

// ActionFromFlowKWh maps a signed battery flow (positive = charging) to an Action.
func ActionFromFlowKWh(flowKWh float64) Action {
	switch {
	case flowKWh > 0:
		return ActionCharging
	case flowKWh < 0:
		return ActionDischarging
	default:
		return ActionIdle
	}
}
