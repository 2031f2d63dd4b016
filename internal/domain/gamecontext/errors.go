package gamecontext

import "errors"

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	// ErrInvalidBases signals a bases string that is not exactly three
	// binary digits. The previous bases value is retained.
	ErrInvalidBases = errors.New("invalid bases string")
)
