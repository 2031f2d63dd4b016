package gateway

import "errors"

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	// ErrGateway covers transport faults, non-2xx statuses, and
	// gateway-side rejections. The session layer maps it into its own
	// taxonomy per operation.
	ErrGateway = errors.New("gateway request failed")
)
