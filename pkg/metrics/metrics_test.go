package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewManager(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewManager(
		WithNamespace("test"),
		WithSubsystem("unit"),
		WithHistogramBuckets([]float64{1, 10, 100}),
		WithPrometheusRegistry(reg),
	)
	if m == nil {
		t.Fatal("manager is nil")
	}

	// All metrics must be registered on the supplied registry.
	m.framesProcessed.Inc()
	m.telemetryLatency.Observe(12)
	m.auIntensity.WithLabelValues("au4").Set(1.5)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("no metric families registered")
	}
}

func TestGlobalHelpers(t *testing.T) {
	// Exercise the package-level helpers against the global manager; they
	// must not panic and the custom registry must gather cleanly.
	RecordFrameProcessed()
	RecordFaceDetected()
	UpdateFramesDropped(3)
	RecordBlink()
	UpdateCaptureFPS(29.7)
	UpdateBaselineEstablished(true)
	UpdateAUIntensity("au17_23_24", 2.5)
	UpdateEyeAspectRatio(0.3)
	UpdateLeverageIndex(8.55)
	UpdateSessionState(2)
	UpdateConnected(true)
	RecordPacketsSent(5)
	RecordTelemetryLatency(40)
	RecordScorePoll()
	UpdateGritIndex(72)
	UpdateRisk(0.2)
	RecordErrorByComponent("session", "telemetry")

	if _, err := GetRegistry().Gather(); err != nil {
		t.Fatalf("gather: %v", err)
	}
}
