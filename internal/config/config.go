// Package config defines process configuration and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load() layers an optional YAML file and GRIT_-prefixed env vars on top.
// - External errors are wrapped via this package's error helpers.
package config

// Config contains process configuration for the telemetry daemon.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MetricsAddr configures the Prometheus /metrics listen address.
	MetricsAddr string `koanf:"metrics_addr"`

	// GatewayURL points at the scoring gateway. When empty, the daemon
	// runs against an in-process mock gateway.
	GatewayURL string `koanf:"gateway_url"`

	// GatewayTimeoutMS bounds each gateway request.
	GatewayTimeoutMS int `koanf:"gateway_timeout_ms"`

	// PlayerID and Sport identify the subject for the session config.
	PlayerID string `koanf:"player_id"`
	Sport    string `koanf:"sport"`

	// TargetFPS is the capture rate the landmark feed runs at.
	TargetFPS int `koanf:"target_fps"`

	// BatchSize is how many feature packets accumulate before a
	// telemetry send.
	BatchSize int `koanf:"batch_size"`

	// BaselineSamples sets how many frames the calibration baseline
	// accumulates before freezing.
	BaselineSamples int `koanf:"baseline_samples"`

	// PollIntervalMS and HealthIntervalMS drive the session manager's
	// two independent timers.
	PollIntervalMS   int `koanf:"poll_interval_ms"`
	HealthIntervalMS int `koanf:"health_interval_ms"`

	// FeedJitter adds synthetic landmark noise to the simulated feed,
	// in normalized coordinate units.
	FeedJitter float64 `koanf:"feed_jitter"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		MetricsAddr:      ":9091",
		GatewayURL:       "",
		GatewayTimeoutMS: 5000,
		PlayerID:         "demo-player",
		Sport:            "baseball",
		TargetFPS:        30,
		BatchSize:        10,
		BaselineSamples:  150,
		PollIntervalMS:   1000,
		HealthIntervalMS: 30000,
		FeedJitter:       0.001,
	}
}
