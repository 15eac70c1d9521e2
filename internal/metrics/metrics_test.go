package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveCheck(ResultBlocked)
	m.ObserveCheck(ResultBlocked)
	m.ObserveCheck(ResultClean)
	m.ObserveRejected("invalid_host")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.checks.WithLabelValues(ResultBlocked)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checks.WithLabelValues(ResultClean)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected.WithLabelValues("invalid_host")))
}

func TestMetrics_ObserveUpdate(t *testing.T) {
	m := New()

	m.ObserveUpdate(nil, 42)
	m.ObserveUpdate(errors.New("boom"), 0)

	assert.Equal(t, 42.0, testutil.ToFloat64(m.registryEntries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.registryUpdates.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.registryUpdates.WithLabelValues("error")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveCheck(ResultAllowlisted)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rr.Code)
	assert.True(t, strings.Contains(string(body), `urlguard_checks_total{result="allowlisted"} 1`))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveCheck(ResultClean)
		m.ObserveRejected("x")
		m.ObserveUpdate(nil, 1)
	})
	assert.Nil(t, m.Registry())

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rr.Code)
}
