// Package config defines service configuration and its loading order.
package config

// Config contains process configuration for the vigil server.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// LayerTimeoutMS bounds how long the scoring fan-out waits for layers.
	LayerTimeoutMS int `koanf:"layer_timeout_ms"`

	// Decision thresholds. Composite below AllowBelow allows; at or above
	// DenyAt denies; between them challenges.
	AllowBelow float64 `koanf:"allow_below"`
	DenyAt     float64 `koanf:"deny_at"`

	// ContributingFloor is the minimum layer score listed as a reason code.
	ContributingFloor float64 `koanf:"contributing_floor"`

	// GeoCeilingKMH is the travel speed treated as physically impossible.
	GeoCeilingKMH float64 `koanf:"geo_ceiling_kmh"`

	// SIMCloneWindowMS bounds the concurrent-session window for clone detection.
	SIMCloneWindowMS int `koanf:"sim_clone_window_ms"`

	// Profile bounds.
	GeoTrailLen        int `koanf:"geo_trail_len"`
	MaxDevices         int `koanf:"max_devices"`
	MaxSIMHistory      int `koanf:"max_sim_history"`
	BaselineMinSamples int `koanf:"baseline_min_samples"`

	// Alert dispatch.
	AlertQueueSize    int `koanf:"alert_queue_size"`
	AlertMaxAttempts  int `koanf:"alert_max_attempts"`
	AlertBaseDelayMS  int `koanf:"alert_base_delay_ms"`
	AlertSendTimeoutS int `koanf:"alert_send_timeout_s"`

	// PhishingBlocklist seeds the static threat feed with known bad hosts.
	PhishingBlocklist []string `koanf:"phishing_blocklist"`

	// ClickHouseDSN enables decision persistence when set.
	ClickHouseDSN string `koanf:"clickhouse_dsn"`

	// PostgresDSN enables durable tenants and profiles when set; empty
	// falls back to in-memory stores.
	PostgresDSN string `koanf:"postgres_dsn"`

	// AuthCacheTTLSeconds bounds how long an API key verification is reused.
	AuthCacheTTLSeconds int `koanf:"auth_cache_ttl_seconds"`
}

// New creates a Config with shipped defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":8080",
		LayerTimeoutMS:      80,
		AllowBelow:          0.30,
		DenyAt:              0.60,
		ContributingFloor:   0.50,
		GeoCeilingKMH:       900,
		SIMCloneWindowMS:    30_000,
		GeoTrailLen:         32,
		MaxDevices:          8,
		MaxSIMHistory:       16,
		BaselineMinSamples:  5,
		AlertQueueSize:      1024,
		AlertMaxAttempts:    4,
		AlertBaseDelayMS:    200,
		AlertSendTimeoutS:   5,
		AuthCacheTTLSeconds: 60,
	}
}
