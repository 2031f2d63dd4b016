package face

// Option applies a configuration option to the Extractor.
type Option func(*Extractor)

// WithBaselineSamples overrides how many frames the calibration baseline
// accumulates before it is frozen.
func WithBaselineSamples(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.baseline = newBaseline(n)
		}
	}
}
