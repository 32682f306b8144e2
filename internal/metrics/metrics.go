package metrics

import "time"

// DispatchEvent summarizes one home's dispatch run.
type DispatchEvent struct {
	HomeID   string
	Policy   string
	Hours    int
	Duration time.Duration

	PVKWh         float64
	LoadKWh       float64
	ToPoolKWh     float64
	FromPoolKWh   float64
	GridImportKWh float64
}

// ReconcileEvent summarizes one community reconciliation.
type ReconcileEvent struct {
	Homes    int
	Hours    int
	Duration time.Duration

	Transfers     int
	MatchedKWh    float64
	GridImportKWh float64
}

// Recorder records simulation activity for observability purposes.
type Recorder interface {
	RecordDispatch(ev DispatchEvent)
	RecordReconcile(ev ReconcileEvent)
}

// NopRecorder drops everything.
type NopRecorder struct{}

func (NopRecorder) RecordDispatch(DispatchEvent)   {}
func (NopRecorder) RecordReconcile(ReconcileEvent) {}
