package face

// Default per-session calibration parameters. 150 samples is roughly five
// seconds of footage at 30 fps.
const (
	defaultBaselineSamples = 150
)

// Neutral defaults used until the baseline is established, in normalized
// coordinate units.
const (
	neutralBrowEye   = 0.05
	neutralEAR       = 0.3
	neutralNoseLip   = 0.02
	neutralMouthAsym = 0.01
	neutralJawPerim  = 0.3
)

// baselineValues is the frozen (or neutral default) reference the AU
// heuristics compute deviations against.
type baselineValues struct {
	browEye   float64
	ear       float64
	noseLip   float64
	mouthAsym float64
	jawPerim  float64
}

func neutralBaseline() baselineValues {
	return baselineValues{
		browEye:   neutralBrowEye,
		ear:       neutralEAR,
		noseLip:   neutralNoseLip,
		mouthAsym: neutralMouthAsym,
		jawPerim:  neutralJawPerim,
	}
}

// baseline accumulates per-frame measures and freezes their mean exactly
// once after the configured sample count. Re-establishing mid-session is
// not supported; a new session gets a new baseline.
type baseline struct {
	samples     int
	target      int
	sums        baselineValues
	frozen      baselineValues
	established bool
}

func newBaseline(target int) *baseline {
	return &baseline{target: target}
}

// observe folds one frame's measures into the accumulator and returns the
// reference values the current frame should be scored against: neutral
// defaults while calibrating, the frozen mean afterwards.
func (b *baseline) observe(m measures) baselineValues {
	if b.established {
		return b.frozen
	}

	b.sums.browEye += m.browEye
	b.sums.ear += m.ear
	b.sums.noseLip += m.noseLip
	b.sums.mouthAsym += m.mouthAsym
	b.sums.jawPerim += m.jawPerim
	b.samples++

	if b.samples >= b.target {
		n := float64(b.samples)
		b.frozen = baselineValues{
			browEye:   b.sums.browEye / n,
			ear:       b.sums.ear / n,
			noseLip:   b.sums.noseLip / n,
			mouthAsym: b.sums.mouthAsym / n,
			jawPerim:  b.sums.jawPerim / n,
		}
		b.established = true
		return b.frozen
	}

	return neutralBaseline()
}
