// Package feedsim generates synthetic landmark frames for tests and local
// runs. It emits a deterministic neutral face mesh and can ramp individual
// stress signals (brow lowering, jaw tension, eye closure) so downstream
// heuristics have something to react to without a camera.
package feedsim

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/okian/grit/internal/domain/model"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh construction constants. The neutral geometry is tuned so the raw
// measures land on the extractor's documented neutral defaults: brow-eye
// distance 0.05, EAR 0.3, nose-lip distance 0.02, mouth asymmetry 0.01,
// jaw perimeter 0.3.
const (
	landmarkCount = 468

	defaultSeed = 42

	jawSegments   = 12
	jawSegmentLen = 0.025
	jawStartX     = 0.36
	jawStartY     = 0.55

	closedLidGap = 0.001
	openLidGap   = 0.0105

	browLowerRange  = 0.03 // full brow ramp moves the brow this far down
	jawTensionRange = 0.15 // full tension scales segment length by this
)

// Generator produces landmark frames. It implements the face extractor's
// Provider contract, so it can stand in for a real inference backend.
type Generator struct {
	rng     *rand.Rand
	jitter  float64
	loadErr error

	eyesClosed bool
	browLower  float64 // [0,1]
	jawTension float64 // [0,1]
}

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithSeed fixes the jitter RNG seed.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic simulation source
	}
}

// WithJitter adds per-landmark Gaussian noise of the given magnitude, in
// normalized coordinate units. Zero means a perfectly still face.
func WithJitter(amount float64) Option {
	return func(g *Generator) {
		if amount >= 0 {
			g.jitter = amount
		}
	}
}

// WithLoadError makes Load fail, simulating unsupported hardware.
func WithLoadError(err error) Option {
	return func(g *Generator) {
		g.loadErr = err
	}
}

// New constructs a Generator with a neutral, still face.
func New(opts ...Option) *Generator {
	g := &Generator{
		rng: rand.New(rand.NewSource(defaultSeed)), //nolint:gosec // deterministic simulation source
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Load implements the landmark provider contract.
func (g *Generator) Load(_ context.Context) error {
	return g.loadErr
}

// SetEyesClosed collapses or reopens the eyelid gap; closed eyes drive EAR
// well below the blink threshold.
func (g *Generator) SetEyesClosed(closed bool) { g.eyesClosed = closed }

// SetBrowLower ramps brow lowering in [0,1].
func (g *Generator) SetBrowLower(amount float64) { g.browLower = clamp01(amount) }

// SetJawTension ramps jaw tension in [0,1].
func (g *Generator) SetJawTension(amount float64) { g.jawTension = clamp01(amount) }

// Frame emits one landmark frame for the given capture timestamp.
func (g *Generator) Frame(ts time.Time) model.Frame {
	lm := g.mesh()
	if g.jitter > 0 {
		for i := range lm {
			lm[i].X += g.rng.NormFloat64() * g.jitter
			lm[i].Y += g.rng.NormFloat64() * g.jitter
			lm[i].Z += g.rng.NormFloat64() * g.jitter
		}
	}
	return model.Frame{Landmarks: lm, Timestamp: ts}
}

// Empty emits a frame with no detected face.
func (g *Generator) Empty(ts time.Time) model.Frame {
	return model.Frame{Timestamp: ts}
}

func (g *Generator) mesh() []r3.Vec {
	lm := make([]r3.Vec, landmarkCount)

	// Filler points: a deterministic scatter across the face region so
	// whole-mesh statistics (depth spread, occlusion) are well defined.
	for i := range lm {
		fi := float64(i)
		lm[i] = r3.Vec{
			X: 0.3 + 0.4*frac(fi*0.6180339887),
			Y: 0.25 + 0.5*frac(fi*0.3819660113),
			Z: 0.04 * math.Sin(fi),
		}
	}

	lidGap := openLidGap
	if g.eyesClosed {
		lidGap = closedLidGap
	}
	browY := 0.36 + g.browLower*browLowerRange

	// Left eye, ordered p1..p6.
	lm[33] = r3.Vec{X: 0.35, Y: 0.42}
	lm[160] = r3.Vec{X: 0.37, Y: 0.42 - lidGap}
	lm[158] = r3.Vec{X: 0.40, Y: 0.42 - lidGap}
	lm[133] = r3.Vec{X: 0.42, Y: 0.42}
	lm[153] = r3.Vec{X: 0.40, Y: 0.42 + lidGap}
	lm[144] = r3.Vec{X: 0.37, Y: 0.42 + lidGap}

	// Right eye.
	lm[263] = r3.Vec{X: 0.65, Y: 0.42}
	lm[387] = r3.Vec{X: 0.63, Y: 0.42 - lidGap}
	lm[385] = r3.Vec{X: 0.60, Y: 0.42 - lidGap}
	lm[362] = r3.Vec{X: 0.58, Y: 0.42}
	lm[380] = r3.Vec{X: 0.60, Y: 0.42 + lidGap}
	lm[373] = r3.Vec{X: 0.63, Y: 0.42 + lidGap}

	// Brows and upper lids.
	lm[105] = r3.Vec{X: 0.37, Y: browY}
	lm[334] = r3.Vec{X: 0.63, Y: browY}
	lm[159] = r3.Vec{X: 0.38, Y: 0.41}
	lm[386] = r3.Vec{X: 0.62, Y: 0.41}

	// Nose, mouth, chin, cheeks.
	lm[1] = r3.Vec{X: 0.5, Y: 0.50, Z: 0.03}
	lm[2] = r3.Vec{X: 0.5, Y: 0.53, Z: 0.02}
	lm[13] = r3.Vec{X: 0.5, Y: 0.55}
	lm[14] = r3.Vec{X: 0.5, Y: 0.57}
	lm[61] = r3.Vec{X: 0.44, Y: 0.565}
	lm[291] = r3.Vec{X: 0.56, Y: 0.555}
	lm[234] = r3.Vec{X: 0.30, Y: 0.50}
	lm[454] = r3.Vec{X: 0.70, Y: 0.50}

	// The chin (152) is laid as part of the jawline chain.
	g.layJawline(lm)
	return lm
}

// layJawline places the 13 jaw points as a polyline of equal-length
// segments sweeping under the chin, so the neutral perimeter is exactly
// jawSegments * jawSegmentLen.
func (g *Generator) layJawline(lm []r3.Vec) {
	jaw := []int{172, 136, 150, 149, 176, 148, 152, 377, 400, 378, 379, 365, 397}
	step := jawSegmentLen * (1 + g.jawTension*jawTensionRange)

	p := r3.Vec{X: jawStartX, Y: jawStartY}
	lm[jaw[0]] = p
	for i := 1; i < len(jaw); i++ {
		// Direction sweeps from down-right to up-right across the arc.
		phi := -1.0 + 2.0*float64(i-1)/float64(jawSegments-1)
		dir := r3.Vec{X: math.Sin(phi)*0.5 + 0.7, Y: math.Cos(phi)}
		p = p.Add(r3.Unit(dir).Scale(step))
		lm[jaw[i]] = p
	}
}

// Stream pushes frames at the given rate until ctx is cancelled.
func (g *Generator) Stream(ctx context.Context, fps int, sink func(model.Frame)) {
	if fps <= 0 {
		fps = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			sink(g.Frame(now))
		}
	}
}

func frac(v float64) float64 {
	return v - math.Floor(v)
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
