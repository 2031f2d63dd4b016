// Package metrics provides Prometheus metrics for the GRIT telemetry core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the telemetry core.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Frame pipeline
	framesProcessed prometheus.Counter
	facesDetected   prometheus.Counter
	framesDropped   prometheus.Gauge
	blinks          prometheus.Counter
	captureFPS      prometheus.Gauge

	// Calibration and signal
	baselineEstablished prometheus.Gauge
	auIntensity         *prometheus.GaugeVec
	eyeAspectRatio      prometheus.Gauge

	// Game context
	leverageIndex prometheus.Gauge

	// Session and transport
	sessionState     prometheus.Gauge
	connected        prometheus.Gauge
	packetsSent      prometheus.Counter
	telemetryLatency prometheus.Histogram
	scorePolls       prometheus.Counter
	currentGrit      prometheus.Gauge
	currentRisk      prometheus.Gauge

	// Error tracking
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "grit",
		subsystem:        "core",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.framesProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_processed_total",
		Help:      "Total number of landmark frames processed",
	})

	m.facesDetected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "faces_detected_total",
		Help:      "Total number of frames with a detected face",
	})

	m.framesDropped = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_dropped",
		Help:      "Frames overwritten in the capture slot before consumption",
	})

	m.blinks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "blinks_total",
		Help:      "Total number of debounced blink events",
	})

	m.captureFPS = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "capture_fps",
		Help:      "Estimated frames per second through the pipeline",
	})

	m.baselineEstablished = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "baseline_established",
		Help:      "1 once the calibration baseline has been frozen",
	})

	m.auIntensity = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "au_intensity",
			Help:      "Latest action-unit intensity by unit (0-5)",
		},
		[]string{"au"},
	)

	m.eyeAspectRatio = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "eye_aspect_ratio",
		Help:      "Latest mean eye aspect ratio",
	})

	m.leverageIndex = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leverage_index",
		Help:      "Current game-situation leverage index",
	})

	m.sessionState = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "session_state",
		Help:      "Session state machine position (0 idle, 1 starting, 2 active, 3 stopping)",
	})

	m.connected = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "gateway_connected",
		Help:      "1 while the gateway health check passes",
	})

	m.packetsSent = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "packets_sent_total",
		Help:      "Total number of feature packets transmitted",
	})

	m.telemetryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "telemetry_latency_milliseconds",
		Help:      "Round-trip latency of telemetry submissions in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.scorePolls = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "score_polls_total",
		Help:      "Total number of score poll round-trips",
	})

	m.currentGrit = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "grit_index",
		Help:      "Latest fused Grit Index (0-100)",
	})

	m.currentRisk = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "risk",
		Help:      "Latest fused risk estimate (0-1)",
	})

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_total",
			Help:      "Total errors by component and kind",
		},
		[]string{"component", "kind"},
	)
}

// Package-level convenience functions using the global manager.

// RecordFrameProcessed increments the processed frames counter.
func RecordFrameProcessed() {
	globalManager.framesProcessed.Inc()
}

// RecordFaceDetected increments the detected faces counter.
func RecordFaceDetected() {
	globalManager.facesDetected.Inc()
}

// UpdateFramesDropped sets the capture slot drop count.
func UpdateFramesDropped(drops uint64) {
	globalManager.framesDropped.Set(float64(drops))
}

// RecordBlink increments the blink counter.
func RecordBlink() {
	globalManager.blinks.Inc()
}

// UpdateCaptureFPS sets the estimated pipeline frame rate.
func UpdateCaptureFPS(fps float64) {
	globalManager.captureFPS.Set(fps)
}

// UpdateBaselineEstablished flips the baseline gauge.
func UpdateBaselineEstablished(established bool) {
	v := 0.0
	if established {
		v = 1.0
	}
	globalManager.baselineEstablished.Set(v)
}

// UpdateAUIntensity sets the latest intensity for one action unit.
func UpdateAUIntensity(au string, intensity float64) {
	globalManager.auIntensity.WithLabelValues(au).Set(intensity)
}

// UpdateEyeAspectRatio sets the latest mean EAR.
func UpdateEyeAspectRatio(ear float64) {
	globalManager.eyeAspectRatio.Set(ear)
}

// UpdateLeverageIndex sets the current leverage index.
func UpdateLeverageIndex(leverage float64) {
	globalManager.leverageIndex.Set(leverage)
}

// UpdateSessionState sets the session state gauge.
func UpdateSessionState(state int) {
	globalManager.sessionState.Set(float64(state))
}

// UpdateConnected flips the gateway connectivity gauge.
func UpdateConnected(connected bool) {
	v := 0.0
	if connected {
		v = 1.0
	}
	globalManager.connected.Set(v)
}

// RecordPacketsSent adds to the transmitted packet counter.
func RecordPacketsSent(count int) {
	globalManager.packetsSent.Add(float64(count))
}

// RecordTelemetryLatency records one telemetry round-trip in milliseconds.
func RecordTelemetryLatency(latencyMs float64) {
	globalManager.telemetryLatency.Observe(latencyMs)
}

// RecordScorePoll increments the poll counter.
func RecordScorePoll() {
	globalManager.scorePolls.Inc()
}

// UpdateGritIndex sets the latest fused Grit Index.
func UpdateGritIndex(grit float64) {
	globalManager.currentGrit.Set(grit)
}

// UpdateRisk sets the latest fused risk estimate.
func UpdateRisk(risk float64) {
	globalManager.currentRisk.Set(risk)
}

// RecordErrorByComponent increments the error counter for a component/kind.
func RecordErrorByComponent(component, kind string) {
	globalManager.errorsByComponent.WithLabelValues(component, kind).Inc()
}

// GetRegistry returns the custom registry for the /metrics endpoint.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
