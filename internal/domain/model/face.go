// Package model contains domain models passed between layers.
package model

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Frame is one unit of landmark-provider output: a fixed ordered set of
// normalized 3-D facial landmark coordinates plus the capture timestamp.
// Coordinates are in the provider's normalized space (x, y in [0,1], z
// roughly centered on the face plane).
type Frame struct {
	Landmarks []r3.Vec
	Timestamp time.Time
}

// QualityMetrics describes how much a single frame's signal can be trusted.
// All values are in [0,1]. Lower MotionBlur/OcclusionRatio is better.
type QualityMetrics struct {
	DetectionConfidence float64 `json:"detection_confidence"`
	TrackingStability   float64 `json:"tracking_stability"`
	MotionBlur          float64 `json:"motion_blur"`
	Illumination        float64 `json:"illumination"`
	OcclusionRatio      float64 `json:"occlusion_ratio"`
}

// AUIntensities holds the five calibrated action-unit stress heuristics.
// Each intensity is a deviation from the session baseline, clamped to [0,5].
type AUIntensities struct {
	AU4        float64 `json:"au4"`        // brow lowering
	AU5_7      float64 `json:"au5_7"`      // lid tightening
	AU9_10     float64 `json:"au9_10"`     // upper-lip raise
	AU14       float64 `json:"au14"`       // dimpler / mouth asymmetry
	AU17_23_24 float64 `json:"au17_23_24"` // jaw tension
}

// FaceFeatures is one frame's facial signal.
type FaceFeatures struct {
	Timestamp time.Time      `json:"timestamp"`
	Blink     int            `json:"blink"` // 0 or 1
	EyeAR     float64        `json:"eye_ar"`
	Gaze      [3]float64     `json:"gaze"`       // unit-normalized
	HeadEuler [3]float64     `json:"head_euler"` // pitch, yaw, roll in degrees
	AU        AUIntensities  `json:"au_intensities"`
	Quality   QualityMetrics `json:"quality"`
}
