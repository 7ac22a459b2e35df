// Package metrics exposes Prometheus metrics for the recording loop.
package metrics

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smadhas/BIDFeeder/internal/recorder"
)

const namespace = "feederwatch"

// Session status label values.
const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusAborted   = "aborted"
)

// RecorderMetrics counts frames and sessions. It implements both
// recorder.Metrics and recorder.Listener.
type RecorderMetrics struct {
	framesProcessed prometheus.Counter
	motionFrames    prometheus.Counter
	framesWritten   prometheus.Counter
	sessions        *prometheus.CounterVec
	sessionActive   prometheus.Gauge
	detectDuration  prometheus.Histogram
}

var (
	_ recorder.Metrics  = (*RecorderMetrics)(nil)
	_ recorder.Listener = (*RecorderMetrics)(nil)
)

// NewRecorderMetrics creates the metrics and registers them with registry.
func NewRecorderMetrics(registry *prometheus.Registry) (*RecorderMetrics, error) {
	m := &RecorderMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register recorder metrics: %w", err)
	}
	return m, nil
}

func (m *RecorderMetrics) initMetrics() {
	m.framesProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_processed_total",
		Help:      "Total number of frames run through motion detection",
	})

	m.motionFrames = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "motion_frames_total",
		Help:      "Total number of frames in which motion was detected",
	})

	m.framesWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_written_total",
		Help:      "Total number of frames written to recordings",
	})

	m.sessions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of recording sessions by status",
		},
		[]string{"status"}, // started, completed, aborted
	)

	m.sessionActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "session_active",
		Help:      "1 while a recording is open, 0 otherwise",
	})

	m.detectDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "detect_duration_seconds",
		Help:      "Time spent detecting motion in one frame",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	})
}

func (m *RecorderMetrics) FrameProcessed(motion bool, took time.Duration) {
	m.framesProcessed.Inc()
	if motion {
		m.motionFrames.Inc()
	}
	m.detectDuration.Observe(took.Seconds())
}

func (m *RecorderMetrics) FrameWritten() {
	m.framesWritten.Inc()
}

func (m *RecorderMetrics) SessionStarted(recorder.SessionInfo) {
	m.sessions.WithLabelValues(StatusStarted).Inc()
	m.sessionActive.Set(1)
}

func (m *RecorderMetrics) SessionCompleted(recorder.SessionInfo) {
	m.sessions.WithLabelValues(StatusCompleted).Inc()
	m.sessionActive.Set(0)
}

func (m *RecorderMetrics) SessionAborted(recorder.SessionInfo) {
	m.sessions.WithLabelValues(StatusAborted).Inc()
	m.sessionActive.Set(0)
}

// Describe implements the prometheus.Collector interface.
func (m *RecorderMetrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.framesProcessed.Desc()
	ch <- m.motionFrames.Desc()
	ch <- m.framesWritten.Desc()
	m.sessions.Describe(ch)
	ch <- m.sessionActive.Desc()
	ch <- m.detectDuration.Desc()
}

// Collect implements the prometheus.Collector interface.
func (m *RecorderMetrics) Collect(ch chan<- prometheus.Metric) {
	ch <- m.framesProcessed
	ch <- m.motionFrames
	ch <- m.framesWritten
	m.sessions.Collect(ch)
	ch <- m.sessionActive
	ch <- m.detectDuration
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(registry *prometheus.Registry, log *slog.Logger) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorLog:      slog.NewLogLogger(log.Handler(), slog.LevelError),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

// NewServer returns an HTTP server exposing registry at /metrics.
func NewServer(addr string, registry *prometheus.Registry, log *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(registry, log))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
