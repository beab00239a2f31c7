package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegistry(reg)

	r.RecordScan(1.5, 80, 2)
	r.RecordSkip("no_data")
	r.RecordSkip("no_data")
	r.RecordDecision(1, "TRIGGERED", 95)
	r.RecordSinkError("kafka")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.scansTotal))
	assert.Equal(t, 80.0, testutil.ToFloat64(r.lastScanned))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.lastSkipped))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.skipsTotal.WithLabelValues("no_data")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.decisionsTotal.WithLabelValues("1", "TRIGGERED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.sinkErrors.WithLabelValues("kafka")))

	n, err := testutil.GatherAndCount(reg, "swingdesk_decision_score")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
