package observability

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	return NewMetricsWith(prometheus.NewRegistry(), "test")
}

func TestRecordProjection(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordProjection("api", 2*time.Millisecond)
	m.RecordProjection("api", time.Millisecond)
	m.RecordProjection("preview", time.Millisecond)

	if got := testutil.ToFloat64(m.ProjectionsComputed.WithLabelValues("api")); got != 2 {
		t.Errorf("api projections = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(m.ComputeLatency); got != 1 {
		t.Errorf("latency series = %d, want 1", got)
	}
}

func TestPreviewSessions(t *testing.T) {
	m := newTestMetrics(t)

	m.PreviewOpened()
	m.PreviewOpened()
	m.PreviewClosed()

	if got := testutil.ToFloat64(m.PreviewSessions); got != 1 {
		t.Errorf("sessions = %v, want 1", got)
	}
}

func TestRecordDBQuery(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordDBQuery("postgres", "insert", 0.01, nil)
	m.RecordDBQuery("postgres", "insert", 0.02, errors.New("boom"))

	if got := testutil.ToFloat64(m.DBQueryErrors.WithLabelValues("postgres", "insert")); got != 1 {
		t.Errorf("errors = %v, want 1", got)
	}
}

func TestRecordRequest(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordRequest("/api/projections", http.StatusUnprocessableEntity)

	got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/projections", "Unprocessable Entity"))
	if got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}
}

func TestCounters(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordInvalidInput()
	m.RecordExport("xlsx")
	m.RecordSave("saved")
	m.RecordSave("existing")
	m.RecordPreviewMessage()

	if got := testutil.ToFloat64(m.InvalidInputs); got != 1 {
		t.Errorf("invalid = %v", got)
	}
	if got := testutil.ToFloat64(m.ExportsGenerated.WithLabelValues("xlsx")); got != 1 {
		t.Errorf("exports = %v", got)
	}
	if got := testutil.ToFloat64(m.ProFormasSaved.WithLabelValues("existing")); got != 1 {
		t.Errorf("existing saves = %v", got)
	}
	if got := testutil.ToFloat64(m.PreviewMessages); got != 1 {
		t.Errorf("preview messages = %v", got)
	}
}
