// Package face converts per-frame facial landmark geometry into calibrated
// stress indicators.
//
// The extractor is strictly sequential, single-writer state: one frame is
// fully processed before the next is accepted, and the calibration baseline
// and blink history are mutated only by ProcessFrame. It is not safe for
// concurrent ProcessFrame calls; callers that need parallelism must front
// it with a single owning goroutine (see the capture package).
package face

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/grit/internal/domain/model"
	"gonum.org/v1/gonum/spatial/r3"
)

// Provider abstracts the landmark inference dependency. The core consumes
// its output contract only; model loading and inference live behind Load.
type Provider interface {
	// Load performs one-time setup of the inference dependency. It may
	// fail on unsupported hardware.
	Load(ctx context.Context) error
}

// Extractor turns landmark frames into FaceFeatures, maintaining the
// per-session calibration baseline and blink history.
type Extractor struct {
	provider Provider

	initMu      sync.Mutex
	initialized bool

	baseline *baseline
	blinks   *blinkTracker

	frameCount int
	prev       []r3.Vec // previous frame's landmarks, for stability estimates
}

// New constructs an Extractor around the given landmark provider.
func New(provider Provider, opts ...Option) *Extractor {
	e := &Extractor{
		provider: provider,
		baseline: newBaseline(defaultBaselineSamples),
		blinks:   newBlinkTracker(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize loads the landmark inference dependency. It is idempotent:
// after the first successful call, subsequent calls are no-ops. It must be
// called before ProcessFrame.
func (e *Extractor) Initialize(ctx context.Context) error {
	e.initMu.Lock()
	defer e.initMu.Unlock()

	if e.initialized {
		return nil
	}
	if err := e.provider.Load(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrInitialization, err)
	}
	e.initialized = true
	return nil
}

// ProcessFrame computes one frame's FaceFeatures.
//
// The second return value is false when no face is present in the frame;
// that is an absence, not an error. The only error conditions are calling
// before Initialize and a context already cancelled.
func (e *Extractor) ProcessFrame(ctx context.Context, frame model.Frame) (model.FaceFeatures, bool, error) {
	e.initMu.Lock()
	ready := e.initialized
	e.initMu.Unlock()
	if !ready {
		return model.FaceFeatures{}, false, ErrNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return model.FaceFeatures{}, false, err
	}

	// Partial detections are treated the same as no detection: the AU
	// heuristics need the full topology.
	if len(frame.Landmarks) < landmarkCount {
		return model.FaceFeatures{}, false, nil
	}
	lm := frame.Landmarks

	e.frameCount++

	m := measure(lm)
	base := e.baseline.observe(m)

	ear := m.ear
	blinked := e.blinks.observe(ear, frame.Timestamp)

	features := model.FaceFeatures{
		Timestamp: frame.Timestamp,
		EyeAR:     ear,
		Gaze:      gaze(lm),
		HeadEuler: headEuler(lm),
		AU:        intensities(m, base),
		Quality:   e.quality(lm),
	}
	if blinked {
		features.Blink = 1
	}

	e.prev = lm
	return features, true, nil
}

// BaselineEstablished reports whether the calibration baseline has been
// frozen. Until then, AU intensities are computed against neutral defaults.
func (e *Extractor) BaselineEstablished() bool {
	return e.baseline.established
}

// BlinkRate returns blinks per minute over the rolling 60-second history.
func (e *Extractor) BlinkRate() float64 {
	return e.blinks.rate()
}

// FrameCount returns how many frames with a detected face have been
// processed this session.
func (e *Extractor) FrameCount() int {
	return e.frameCount
}
