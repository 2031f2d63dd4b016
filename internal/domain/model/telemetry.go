package model

import "time"

// SessionConfig holds the immutable parameters of one telemetry session.
// It is created once at session start and never mutated afterwards.
type SessionConfig struct {
	SessionID          string `json:"session_id"` // opaque, unique per active session
	PlayerID           string `json:"player_id"`
	Sport              string `json:"sport"`
	TargetFPS          int    `json:"target_fps"`
	EnableFace         bool   `json:"enable_face"`
	EnablePose         bool   `json:"enable_pose"`
	BaselineDurationMS int    `json:"baseline_duration_ms"`
}

// DeviceCapabilities describes the capture device, attached to packets so
// the gateway can weigh signal trust per hardware class.
type DeviceCapabilities struct {
	HasWebcam   bool   `json:"has_webcam"`
	CameraFPS   int    `json:"camera_fps"`
	UserAgent   string `json:"user_agent,omitempty"`
	GPUBackend  string `json:"gpu_backend,omitempty"`
	ScreenWidth int    `json:"screen_width,omitempty"`
}

// PoseFeatures is a placeholder for body-pose signal. The core never
// populates it; the field exists so the wire shape matches the gateway.
type PoseFeatures struct {
	ShoulderTension float64 `json:"shoulder_tension"`
	PostureSway     float64 `json:"posture_sway"`
}

// FeaturePacket is the unit of telemetry sent to the scoring gateway.
// By convention at least one of Face/Pose is present, but this is not
// enforced.
type FeaturePacket struct {
	SessionID string              `json:"session_id"`
	Timestamp time.Time           `json:"timestamp"`
	Face      *FaceFeatures       `json:"face,omitempty"`
	Pose      *PoseFeatures       `json:"pose,omitempty"`
	Device    *DeviceCapabilities `json:"device,omitempty"`
}

// GritComponents is the gateway's breakdown of the fused score. Each
// component is 0-100. The client treats the values as opaque.
type GritComponents struct {
	Confidence float64 `json:"confidence"`
	Composure  float64 `json:"composure"`
	Focus      float64 `json:"focus"`
	Resilience float64 `json:"resilience"`
}

// ScorePacket is the unit of telemetry received from the gateway.
type ScorePacket struct {
	SessionID       string          `json:"session_id"`
	Timestamp       time.Time       `json:"timestamp"`
	Grit            float64         `json:"grit"` // 0-100
	Risk            float64         `json:"risk"` // 0-1
	Components      GritComponents  `json:"components"`
	Explanations    []string        `json:"explanations,omitempty"`
	PressureContext PressureContext `json:"pressure_context"`
	StressLevel     string          `json:"stress_level"`
}

// CueSeverity grades a coaching cue.
type CueSeverity string

// Cue severities.
const (
	CueInfo     CueSeverity = "info"
	CueWarning  CueSeverity = "warning"
	CueCritical CueSeverity = "critical"
)

// CoachingCue is an ephemeral, display-only advisory message.
type CoachingCue struct {
	Type       string      `json:"type"`
	Severity   CueSeverity `json:"severity"`
	Message    string      `json:"message"`
	ActionItem string      `json:"action_item,omitempty"`
	Priority   int         `json:"priority"`
	Timestamp  time.Time   `json:"timestamp"`
}

// SystemStats is client-side observability state. Counters are monotonic
// for the lifetime of a session; FPS and LatencyMS are recomputed rolling
// values.
type SystemStats struct {
	FPS              float64       `json:"fps"`
	LatencyMS        float64       `json:"latency_ms"`
	PacketsProcessed int64         `json:"packets_processed"`
	ErrorCount       int64         `json:"error_count"`
	Uptime           time.Duration `json:"uptime"`
}
