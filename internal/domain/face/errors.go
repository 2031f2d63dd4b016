package face

import "errors"

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	// ErrInitialization wraps a landmark provider that failed to load,
	// e.g. on unsupported hardware. Fatal to session start.
	ErrInitialization = errors.New("landmark provider initialization failed")

	// ErrNotInitialized is returned by ProcessFrame before Initialize
	// has succeeded.
	ErrNotInitialized = errors.New("extractor not initialized")
)
