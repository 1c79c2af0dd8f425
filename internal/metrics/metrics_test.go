package metrics_test

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/beatpilot/internal/metrics"
	beathttp "github.com/aretw0/beatpilot/pkg/adapters/http"
	"github.com/aretw0/beatpilot/pkg/protocol"
	"github.com/aretw0/beatpilot/pkg/session"
	"github.com/aretw0/beatpilot/pkg/suggest"
)

var (
	_ suggest.Observer      = (*metrics.Metrics)(nil)
	_ session.Observer      = (*metrics.Metrics)(nil)
	_ protocol.Observer     = (*metrics.Metrics)(nil)
	_ beathttp.ConnObserver = (*metrics.Metrics)(nil)
)

func TestMetrics_Observers(t *testing.T) {
	m := metrics.New()

	m.ObserveMessage(protocol.KindAnalyzeVibe)
	m.ObserveMessage(protocol.KindAnalyzeVibe)
	m.ObserveError(protocol.ReasonMalformed)
	m.ObserveRepair("fallback")
	m.ObserveInference(150*time.Millisecond, nil)
	m.ObserveInference(time.Second, errors.New("quota"))
	m.SetActiveSessions(4)
	m.ObserveConnection(1)
	m.ObserveConnection(1)
	m.ObserveConnection(-1)

	gathered, err := m.Registry().Gather()
	require.NoError(t, err)
	byName := map[string]float64{}
	for _, mf := range gathered {
		for _, metric := range mf.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				byName[mf.GetName()] += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				byName[mf.GetName()] += metric.GetGauge().GetValue()
			case metric.GetHistogram() != nil:
				byName[mf.GetName()] += float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}

	assert.Equal(t, 2.0, byName["beatpilot_messages_total"])
	assert.Equal(t, 1.0, byName["beatpilot_errors_total"])
	assert.Equal(t, 1.0, byName["beatpilot_repair_stage_total"])
	assert.Equal(t, 2.0, byName["beatpilot_inference_duration_seconds"])
	assert.Equal(t, 1.0, byName["beatpilot_inference_failures_total"])
	assert.Equal(t, 4.0, byName["beatpilot_active_sessions"])
	assert.Equal(t, 1.0, byName["beatpilot_open_connections"])
}

func TestMetrics_Lint(t *testing.T) {
	m := metrics.New()
	m.ObserveMessage("get_summary")

	problems, err := testutil.GatherAndLint(m.Registry(), "beatpilot_messages_total")
	require.NoError(t, err)
	assert.Empty(t, problems)
}

func TestMetrics_Handler(t *testing.T) {
	m := metrics.New()
	m.ObserveError(protocol.ReasonPersistence)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `beatpilot_errors_total{reason="persistence"} 1`)
}
