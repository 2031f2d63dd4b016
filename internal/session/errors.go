package session

import "errors"

// Sentinel error kinds for this package. These allow errors.Is from callers.
//
// ErrSessionCreation is fatal to session start; everything else in the
// non-fatal group increments the error counter and leaves the session
// state machine untouched.
var (
	// ErrSessionActive guards single-session ownership: one manager,
	// at most one live session.
	ErrSessionActive = errors.New("session already active")

	// ErrNoSession is returned by operations that require an active session.
	ErrNoSession = errors.New("no active session")

	// ErrSessionCreation wraps a gateway session rejection or an invalid
	// config. No timers start.
	ErrSessionCreation = errors.New("session creation failed")

	// ErrTelemetryTransport wraps a failed telemetry submission.
	ErrTelemetryTransport = errors.New("telemetry transport failed")

	// ErrEventLogging wraps a failed event log call.
	ErrEventLogging = errors.New("event logging failed")

	// ErrCoachingCue wraps a failed coaching cue dispatch.
	ErrCoachingCue = errors.New("coaching cue dispatch failed")

	// ErrHealthCheck wraps a failed gateway health probe.
	ErrHealthCheck = errors.New("health check failed")
)
