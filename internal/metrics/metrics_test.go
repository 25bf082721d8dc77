package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveEvent("opened", "success")
		m.ObserveReply()
		m.ObserveCommentSent()
	})
}

func TestMetrics_Exposition(t *testing.T) {
	m := New()
	m.ObserveEvent("opened", "success")
	m.ObserveEvent("labeled", "skipped")
	m.ObserveReply()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `issuebot_events_total{action="opened",status="success"} 1`)
	assert.Contains(t, body, `issuebot_events_total{action="labeled",status="skipped"} 1`)
	assert.Contains(t, body, "issuebot_replies_triggered_total 1")
}
