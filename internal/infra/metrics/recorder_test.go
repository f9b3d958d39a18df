package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docketvoice/internal/application"
	"docketvoice/internal/domain"
	"docketvoice/internal/infra/metrics"
)

var _ application.Observer = (*metrics.Recorder)(nil)

func TestRecorder(t *testing.T) {
	r := metrics.NewRecorder()

	r.ObserveUtterance("audio", 300*time.Millisecond)
	r.ObserveUtterance("audio", 2*time.Second)
	r.ObserveUtterance("text", time.Millisecond)
	r.ObserveCommand(domain.CommandPause, "ok")
	r.ObserveCommand(domain.CommandPause, "ok")
	r.ObserveCommand(domain.CommandSkip, "navigate")

	families, err := r.Registry().Gather()
	require.NoError(t, err)

	byName := map[string]bool{}
	for _, f := range families {
		byName[f.GetName()] = true
	}
	assert.True(t, byName["docketvoice_utterances_total"])
	assert.True(t, byName["docketvoice_utterance_latency_seconds"])
	assert.True(t, byName["docketvoice_commands_total"])

	count, err := testutil.GatherAndCount(r.Registry(), "docketvoice_commands_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per command/outcome pair")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `docketvoice_commands_total{command="pause",outcome="ok"} 2`)
	assert.Contains(t, rec.Body.String(), `docketvoice_utterances_total{kind="audio"} 2`)
}
