package face

import (
	"github.com/okian/grit/internal/domain/model"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// Quality estimation parameters. Tracking stability plateaus once the
// extractor has seen stabilityPlateauFrames frames.
const (
	stabilityPlateauFrames = 30

	confidenceGain   = 40.0 // penalty per unit of mean inter-frame displacement
	motionBlurGain   = 25.0
	illuminationGain = 6.0
	depthNominal     = 0.04 // expected z-spread of a well-lit frontal mesh
)

// quality computes the per-frame trust metrics. They are returned to the
// caller but never used internally to gate or discard frames; consumers
// apply their own thresholds.
func (e *Extractor) quality(lm []r3.Vec) model.QualityMetrics {
	disp := e.displacement(lm)

	q := model.QualityMetrics{
		DetectionConfidence: clamp01(1 - confidenceGain*disp),
		TrackingStability:   clamp01(float64(e.frameCount) / stabilityPlateauFrames),
		MotionBlur:          clamp01(motionBlurGain * disp),
		Illumination:        illumination(lm),
		OcclusionRatio:      occlusionRatio(lm),
	}
	return q
}

// displacement is the mean per-landmark movement since the previous frame.
// The first frame has nothing to compare against and reads as perfectly
// still.
func (e *Extractor) displacement(lm []r3.Vec) float64 {
	if len(e.prev) != len(lm) {
		return 0
	}
	deltas := make([]float64, len(lm))
	for i := range lm {
		deltas[i] = r3.Norm(lm[i].Sub(e.prev[i]))
	}
	return stat.Mean(deltas, nil)
}

// illumination is a best-effort proxy: a poorly lit or washed-out face
// flattens the mesh, collapsing its depth spread away from nominal.
func illumination(lm []r3.Vec) float64 {
	zs := make([]float64, len(lm))
	for i := range lm {
		zs[i] = lm[i].Z
	}
	spread := stat.StdDev(zs, nil)
	deficit := spread - depthNominal
	if deficit < 0 {
		deficit = -deficit
	}
	return clamp01(1 - illuminationGain*deficit)
}

// occlusionRatio is the fraction of landmarks that fall outside the
// normalized image bounds.
func occlusionRatio(lm []r3.Vec) float64 {
	outside := 0
	for _, p := range lm {
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			outside++
		}
	}
	return float64(outside) / float64(len(lm))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
