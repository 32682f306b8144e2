package model

// Home describes one household's installed equipment and synthetic load shape.
// It is what the runners consume together with a timeseries.
type Home struct {
	ID          string
	SolarKW     float64
	BatteryKWh  float64
	LoadBaseKWh float64
	LoadPeakKWh float64

	// SolarOffsetHours shifts the PV peak: -2=east, 0=south, +2=west.
	SolarOffsetHours int
	// LoadShiftHours shifts the load pattern later in the day.
	LoadShiftHours int

	InitialSOC    float64
	IsNetConsumer bool
}

var orientations = []string{"east", "east-south", "south", "south-west", "west"}

// Orientation returns a label for SolarOffsetHours.
func (h Home) Orientation() string {
	i := h.SolarOffsetHours + 2
	if i < 0 || i >= len(orientations) {
		return "custom"
	}
	return orientations[i]
}
