package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// PromRecorder records simulation activity in Prometheus metrics.
type PromRecorder struct {
	runs      *prometheus.CounterVec
	energy    *prometheus.CounterVec
	transfers prometheus.Counter
	duration  *prometheus.HistogramVec
}

// NewPromRecorder registers metrics on the default Prometheus registerer.
func NewPromRecorder() (*PromRecorder, error) {
	return NewPromRecorderWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromRecorderWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered under the same name are reused.
func NewPromRecorderWithRegistry(reg prometheus.Registerer) (*PromRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "neighborgrid_runs_total",
		Help: "Completed simulation stages by stage",
	}, []string{"stage"})
	energy := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "neighborgrid_energy_kwh_total",
		Help: "Simulated energy by flow (kWh)",
	}, []string{"stage", "flow"})
	transfers := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "neighborgrid_pool_transfers_total",
		Help: "Producer to consumer transfers matched by the community reconciler",
	})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "neighborgrid_stage_duration_seconds",
		Help:    "Wall time spent per simulation stage",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	var err error
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	if energy, err = register(reg, energy); err != nil {
		return nil, err
	}
	if transfers, err = register(reg, transfers); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	return &PromRecorder{runs: runs, energy: energy, transfers: transfers, duration: duration}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (r *PromRecorder) RecordDispatch(ev DispatchEvent) {
	const stage = "dispatch"
	r.runs.WithLabelValues(stage).Inc()
	r.energy.WithLabelValues(stage, "pv").Add(ev.PVKWh)
	r.energy.WithLabelValues(stage, "load").Add(ev.LoadKWh)
	r.energy.WithLabelValues(stage, "to_pool").Add(ev.ToPoolKWh)
	r.energy.WithLabelValues(stage, "from_pool").Add(ev.FromPoolKWh)
	r.energy.WithLabelValues(stage, "grid_import").Add(ev.GridImportKWh)
	r.duration.WithLabelValues(stage).Observe(ev.Duration.Seconds())
}

func (r *PromRecorder) RecordReconcile(ev ReconcileEvent) {
	const stage = "reconcile"
	r.runs.WithLabelValues(stage).Inc()
	r.energy.WithLabelValues(stage, "pool_matched").Add(ev.MatchedKWh)
	r.energy.WithLabelValues(stage, "grid_import").Add(ev.GridImportKWh)
	r.transfers.Add(float64(ev.Transfers))
	r.duration.WithLabelValues(stage).Observe(ev.Duration.Seconds())
}
