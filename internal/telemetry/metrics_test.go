package telemetry

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New()
	m.Observe("get_state", OutcomeOK, 20*time.Millisecond)
	m.Observe("get_state", OutcomeOK, 30*time.Millisecond)
	m.Observe("record_metrics", OutcomeRejected, time.Second)

	expected := `
# HELP kyv_chain_requests_total Chain calls by operation and outcome
# TYPE kyv_chain_requests_total counter
kyv_chain_requests_total{op="get_state",outcome="ok"} 2
kyv_chain_requests_total{op="record_metrics",outcome="rejected"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "kyv_chain_requests_total"))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestScheduledRun_GaugeOnlyOnSuccess(t *testing.T) {
	m := New()
	m.ScheduledRun(OutcomeOK, 1640995200)
	m.ScheduledRun(OutcomeError, 1641000000)

	assert.Equal(t, float64(1640995200), testutil.ToFloat64(m.lastRecordedAt))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.scheduledRuns.WithLabelValues(OutcomeError)))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ScheduledRun(OutcomeOK, 42)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "kyv_last_recorded_timestamp_seconds 42")
}
