// Package gamecontext derives a continuous pressure signal from discrete
// baseball game state.
//
// The engine is a pure translation layer: it cannot fail, it performs no
// I/O, and every update recomputes the derived context synchronously.
// Invalid numeric input is clamped; a malformed bases string is rejected
// with ErrInvalidBases while the previous value is retained.
package gamecontext

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/okian/grit/internal/domain/model"
)

// Situation bounds and leverage weights.
const (
	minInning    = 1
	maxInning    = 15
	maxOuts      = 2
	maxScoreDiff = 50

	lateInning           = 9
	inningStep           = 0.1
	inningCap            = 1.8
	lateInningMultiplier = 2.0

	twoOutMultiplier = 1.5
	oneOutMultiplier = 1.2

	runnerWeight = 0.3

	closeGameMultiplier    = 1.5 // |diff| <= 1
	tightGameMultiplier    = 1.2 // |diff| <= 3
	moderateGameMultiplier = 0.8 // |diff| <= 5
	blowoutMultiplier      = 0.5

	criticalThreshold = 2.5
	highThreshold     = 1.8
	mediumThreshold   = 1.2
)

var basesPattern = regexp.MustCompile(`^[01]{3}$`)

// Patch is a partial update to the game situation. Nil fields are left
// unchanged by Update.
type Patch struct {
	Inning    *int
	Outs      *int
	Bases     *string
	ScoreDiff *int
}

// Engine holds the current game situation and its derived context.
// Safe for concurrent use; coach input arrives at arbitrary times.
type Engine struct {
	mu        sync.RWMutex
	situation model.GameSituation
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithSituation seeds the engine with an initial situation. The situation
// is clamped the same way Update clamps patches.
func WithSituation(s model.GameSituation) Option {
	return func(e *Engine) {
		e.situation = clampSituation(s)
	}
}

// New constructs an Engine starting from the default situation: top of the
// first, nobody out, bases empty, tie game.
func New(opts ...Option) *Engine {
	e := &Engine{situation: defaultSituation()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func defaultSituation() model.GameSituation {
	return model.GameSituation{Inning: 1, Outs: 0, Bases: "000", ScoreDiff: 0}
}

// Update merges patch into the current situation, clamping numeric fields
// to their valid ranges, and returns the recomputed context.
//
// A bases value that is not exactly three binary digits is not applied: the
// previous value is kept, the rest of the patch still takes effect, and the
// returned error wraps ErrInvalidBases so callers can tell "accepted" from
// "ignored".
func (e *Engine) Update(patch Patch) (model.GameContext, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var err error
	if patch.Inning != nil {
		e.situation.Inning = clampInt(*patch.Inning, minInning, maxInning)
	}
	if patch.Outs != nil {
		e.situation.Outs = clampInt(*patch.Outs, 0, maxOuts)
	}
	if patch.ScoreDiff != nil {
		e.situation.ScoreDiff = clampInt(*patch.ScoreDiff, -maxScoreDiff, maxScoreDiff)
	}
	if patch.Bases != nil {
		if basesPattern.MatchString(*patch.Bases) {
			e.situation.Bases = *patch.Bases
		} else {
			err = fmt.Errorf("%w: %q", ErrInvalidBases, *patch.Bases)
		}
	}

	return Derive(e.situation), err
}

// Reset restores the default situation and returns its context.
func (e *Engine) Reset() model.GameContext {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.situation = defaultSituation()
	return Derive(e.situation)
}

// Context returns the context derived from the current situation.
func (e *Engine) Context() model.GameContext {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return Derive(e.situation)
}

// Derive computes the full context for a situation. It is deterministic
// and side-effect free.
func Derive(s model.GameSituation) model.GameContext {
	leverage := Leverage(s)
	return model.GameContext{
		GameSituation:   s,
		LeverageIndex:   leverage,
		PressureContext: Classify(leverage),
		BasesState:      basesState(s.Bases),
		Description:     describe(s),
	}
}

// Leverage computes the leverage index: the product of an inning, outs,
// runners, and score-differential multiplier, rounded to 2 decimals.
func Leverage(s model.GameSituation) float64 {
	inning := 1.0 + float64(s.Inning-1)*inningStep
	if inning > inningCap {
		inning = inningCap
	}
	if s.Inning >= lateInning {
		inning = lateInningMultiplier
	}

	outs := 1.0
	switch s.Outs {
	case 1:
		outs = oneOutMultiplier
	case maxOuts:
		outs = twoOutMultiplier
	}

	runners := 1.0 + runnerWeight*float64(strings.Count(s.Bases, "1"))

	var diff float64
	switch abs := absInt(s.ScoreDiff); {
	case abs <= 1:
		diff = closeGameMultiplier
	case abs <= 3:
		diff = tightGameMultiplier
	case abs <= 5:
		diff = moderateGameMultiplier
	default:
		diff = blowoutMultiplier
	}

	return math.Round(inning*outs*runners*diff*100) / 100
}

// Classify buckets a leverage index into a pressure context. Thresholds
// are evaluated high to low so buckets are mutually exclusive.
func Classify(leverage float64) model.PressureContext {
	switch {
	case leverage >= criticalThreshold:
		return model.PressureCritical
	case leverage >= highThreshold:
		return model.PressureHigh
	case leverage >= mediumThreshold:
		return model.PressureMedium
	default:
		return model.PressureLow
	}
}

func basesState(bases string) string {
	switch strings.Count(bases, "1") {
	case 0:
		return "bases empty"
	case 3:
		return "bases loaded"
	default:
		return "runners on"
	}
}

func describe(s model.GameSituation) string {
	lead := "tied"
	switch {
	case s.ScoreDiff > 0:
		lead = fmt.Sprintf("up %d", s.ScoreDiff)
	case s.ScoreDiff < 0:
		lead = fmt.Sprintf("down %d", -s.ScoreDiff)
	}
	return fmt.Sprintf("inning %d, %d out, %s, %s", s.Inning, s.Outs, basesState(s.Bases), lead)
}

func clampSituation(s model.GameSituation) model.GameSituation {
	s.Inning = clampInt(s.Inning, minInning, maxInning)
	s.Outs = clampInt(s.Outs, 0, maxOuts)
	s.ScoreDiff = clampInt(s.ScoreDiff, -maxScoreDiff, maxScoreDiff)
	if !basesPattern.MatchString(s.Bases) {
		s.Bases = "000"
	}
	return s
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
