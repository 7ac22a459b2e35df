package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smadhas/BIDFeeder/internal/logger"
	"github.com/smadhas/BIDFeeder/internal/recorder"
)

func newTestMetrics(t *testing.T) (*RecorderMetrics, *prometheus.Registry) {
	t.Helper()
	registry := prometheus.NewRegistry()
	m, err := NewRecorderMetrics(registry)
	require.NoError(t, err)
	return m, registry
}

func TestFrameCounters(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.FrameProcessed(false, time.Millisecond)
	m.FrameProcessed(true, 2*time.Millisecond)
	m.FrameProcessed(true, 3*time.Millisecond)
	m.FrameWritten()
	m.FrameWritten()

	assert.InDelta(t, 3, testutil.ToFloat64(m.framesProcessed), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.motionFrames), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.framesWritten), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.detectDuration))
}

func TestSessionLifecycle(t *testing.T) {
	m, _ := newTestMetrics(t)
	info := recorder.SessionInfo{Name: "20240501-080000"}

	tests := []struct {
		name      string
		event     func(recorder.SessionInfo)
		status    string
		wantCount float64
		active    float64
	}{
		{"started", m.SessionStarted, StatusStarted, 1, 1},
		{"completed", m.SessionCompleted, StatusCompleted, 1, 0},
		{"started again", m.SessionStarted, StatusStarted, 2, 1},
		{"aborted", m.SessionAborted, StatusAborted, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.event(info)
			assert.InDelta(t, tt.wantCount, testutil.ToFloat64(m.sessions.WithLabelValues(tt.status)), 0)
			assert.InDelta(t, tt.active, testutil.ToFloat64(m.sessionActive), 0)
		})
	}
}

func TestDoubleRegistrationFails(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := NewRecorderMetrics(registry)
	require.NoError(t, err)

	_, err = NewRecorderMetrics(registry)
	assert.Error(t, err)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m, registry := newTestMetrics(t)
	m.FrameProcessed(true, time.Millisecond)
	m.SessionStarted(recorder.SessionInfo{})

	srv := httptest.NewServer(NewServer("", registry, logger.Discard()).Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, "feederwatch_frames_processed_total 1")
	assert.Contains(t, text, "feederwatch_motion_frames_total 1")
	assert.Contains(t, text, `feederwatch_sessions_total{status="started"} 1`)
	assert.Contains(t, text, "feederwatch_session_active 1")
	assert.True(t, strings.Contains(text, "feederwatch_detect_duration_seconds_bucket"))
}

func TestRecorderMetricsLint(t *testing.T) {
	m, _ := newTestMetrics(t)
	m.SessionStarted(recorder.SessionInfo{})

	problems, err := testutil.CollectAndLint(m)
	require.NoError(t, err)
	assert.Empty(t, problems)
}
