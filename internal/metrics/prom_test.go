package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPromRecorderWithRegistry(reg)
	require.NoError(t, err)

	rec.RecordDispatch(DispatchEvent{HomeID: "H001", Hours: 24, PVKWh: 30, LoadKWh: 20, ToPoolKWh: 5, GridImportKWh: 2, Duration: time.Millisecond})
	rec.RecordReconcile(ReconcileEvent{Homes: 2, Hours: 24, Transfers: 3, MatchedKWh: 4.5, Duration: time.Millisecond})

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.runs.WithLabelValues("dispatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.runs.WithLabelValues("reconcile")))
	assert.Equal(t, 30.0, testutil.ToFloat64(rec.energy.WithLabelValues("dispatch", "pv")))
	assert.Equal(t, 4.5, testutil.ToFloat64(rec.energy.WithLabelValues("reconcile", "pool_matched")))
	assert.Equal(t, 3.0, testutil.ToFloat64(rec.transfers))
}

func TestPromRecorderReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromRecorderWithRegistry(reg)
	require.NoError(t, err)
	second, err := NewPromRecorderWithRegistry(reg)
	require.NoError(t, err)

	first.RecordReconcile(ReconcileEvent{Transfers: 2})
	second.RecordReconcile(ReconcileEvent{Transfers: 1})
	assert.Equal(t, 3.0, testutil.ToFloat64(second.transfers))
}
