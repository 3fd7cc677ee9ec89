package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.Operation("start", true)
	r.Operation("start", true)
	r.Operation("start", false)
	r.Completion("reconcile")
	r.Alert("notification", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.operations.WithLabelValues("start", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.operations.WithLabelValues("start", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.completions.WithLabelValues("reconcile")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.alerts.WithLabelValues("notification", "error")))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.Operation("start", true)
		r.Completion("countdown")
		r.Alert("alarm", true)
	})
}
