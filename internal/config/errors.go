package config

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrInvalidConfig marks a config that fails validation after loading.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrLoadConfig wraps file or env provider failures.
	ErrLoadConfig = errors.New("load config failed")
)
