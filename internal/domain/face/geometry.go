package face

import (
	"math"

	"github.com/okian/grit/internal/domain/model"
	"gonum.org/v1/gonum/spatial/r3"
)

// landmarkCount is the size of the provider's fixed landmark set
// (468-point face mesh topology).
const landmarkCount = 468

// Landmark indices into the face mesh. The six eye points are ordered
// p1..p6 as used by the EAR formula: p1/p4 are the horizontal corners,
// p2/p3 the upper lid, p5/p6 the lower lid.
var (
	leftEye  = [6]int{33, 160, 158, 133, 153, 144}
	rightEye = [6]int{263, 387, 385, 362, 380, 373}

	jawline = []int{172, 136, 150, 149, 176, 148, 152, 377, 400, 378, 379, 365, 397}
)

// Individual landmark indices.
const (
	noseTip    = 1
	noseBase   = 2
	upperLip   = 13
	lowerLip   = 14
	mouthLeft  = 61
	mouthRight = 291
	chin       = 152
	cheekLeft  = 234
	cheekRight = 454

	browLeft      = 105
	browRight     = 334
	eyeTopLeft    = 159
	eyeTopRight   = 386
	eyeOuterLeft  = 33
	eyeOuterRight = 263
)

// blink threshold and debounce.
const (
	blinkEARThreshold = 0.25
)

// measures holds the raw per-frame geometry the AU heuristics and the
// baseline are built from, in normalized coordinate units.
type measures struct {
	ear       float64 // mean eye aspect ratio
	browEye   float64 // vertical brow-to-upper-lid distance, mean of both sides
	noseLip   float64 // nose-base-to-upper-lip distance
	mouthAsym float64 // |left - right| mouth-corner vertical offset from mouth center
	jawPerim  float64 // summed consecutive jaw segment lengths
}

func measure(lm []r3.Vec) measures {
	return measures{
		ear:       (eyeAspectRatio(lm, leftEye) + eyeAspectRatio(lm, rightEye)) / 2,
		browEye:   (math.Abs(lm[browLeft].Y-lm[eyeTopLeft].Y) + math.Abs(lm[browRight].Y-lm[eyeTopRight].Y)) / 2,
		noseLip:   math.Abs(lm[upperLip].Y - lm[noseBase].Y),
		mouthAsym: mouthAsymmetry(lm),
		jawPerim:  jawPerimeter(lm),
	}
}

// eyeAspectRatio computes (|p2-p6| + |p3-p5|) / (2*|p1-p4|) for one eye.
func eyeAspectRatio(lm []r3.Vec, eye [6]int) float64 {
	vertical := dist(lm[eye[1]], lm[eye[5]]) + dist(lm[eye[2]], lm[eye[4]])
	horizontal := dist(lm[eye[0]], lm[eye[3]])
	if horizontal == 0 {
		return 0
	}
	return vertical / (2 * horizontal)
}

func mouthAsymmetry(lm []r3.Vec) float64 {
	center := (lm[upperLip].Y + lm[lowerLip].Y) / 2
	left := lm[mouthLeft].Y - center
	right := lm[mouthRight].Y - center
	return math.Abs(left - right)
}

func jawPerimeter(lm []r3.Vec) float64 {
	var perim float64
	for i := 1; i < len(jawline); i++ {
		perim += dist(lm[jawline[i-1]], lm[jawline[i]])
	}
	return perim
}

// gaze approximates gaze direction as the unit-normalized mean of the two
// eye centroids. This is a landmark approximation, not true optical gaze.
func gaze(lm []r3.Vec) [3]float64 {
	center := centroid(lm, leftEye).Add(centroid(lm, rightEye)).Scale(0.5)
	if r3.Norm(center) == 0 {
		return [3]float64{}
	}
	u := r3.Unit(center)
	return [3]float64{u.X, u.Y, u.Z}
}

func centroid(lm []r3.Vec, idx [6]int) r3.Vec {
	var sum r3.Vec
	for _, i := range idx {
		sum = sum.Add(lm[i])
	}
	return sum.Scale(1 / float64(len(idx)))
}

// headEuler estimates head pose as pitch, yaw, roll in degrees.
// Pitch comes from the chin-to-nose-tip vertical axis, yaw from the
// cheek-to-cheek horizontal axis, roll from the eye-corner line.
func headEuler(lm []r3.Vec) [3]float64 {
	down := lm[chin].Sub(lm[noseTip])
	across := lm[cheekRight].Sub(lm[cheekLeft])
	eyes := lm[eyeOuterRight].Sub(lm[eyeOuterLeft])

	pitch := degrees(math.Atan2(down.Z, down.Y))
	yaw := degrees(math.Atan2(across.Z, across.X))
	roll := degrees(math.Atan2(eyes.Y, eyes.X))
	return [3]float64{pitch, yaw, roll}
}

// AU sensitivity gains. Lid tightening reacts faster than brow lowering
// per the calibration of the original heuristics.
const (
	au4Gain    = 8.0
	au5_7Gain  = 12.0
	au9_10Gain = 10.0
	au14Gain   = 1.5
	au17Gain   = 20.0

	auMax = 5.0
)

// intensities converts raw measures into baseline-relative AU intensities,
// each clamped to [0, auMax].
//
// au4, au5_7 and au9_10 rise as the live measure falls below baseline
// (compression signals); au14 and au17_23_24 respond to deviation in
// either direction.
func intensities(m measures, base baselineValues) model.AUIntensities {
	return model.AUIntensities{
		AU4:        clampAU(au4Gain * drop(m.browEye, base.browEye)),
		AU5_7:      clampAU(au5_7Gain * drop(m.ear, base.ear)),
		AU9_10:     clampAU(au9_10Gain * drop(m.noseLip, base.noseLip)),
		AU14:       clampAU(au14Gain * deviation(m.mouthAsym, base.mouthAsym)),
		AU17_23_24: clampAU(au17Gain * deviation(m.jawPerim, base.jawPerim)),
	}
}

// drop is the relative amount the live value has fallen below baseline,
// zero when at or above it.
func drop(live, base float64) float64 {
	if base <= 0 || live >= base {
		return 0
	}
	return (base - live) / base
}

// deviation is the relative distance from baseline in either direction.
func deviation(live, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return math.Abs(live-base) / base
}

func clampAU(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > auMax {
		return auMax
	}
	return v
}

func dist(a, b r3.Vec) float64 {
	return r3.Norm(a.Sub(b))
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
