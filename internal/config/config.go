// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath locates the SQLite database file.
	DBPath string `koanf:"db_path"`

	// FeedURL points at the contest feed NDJSON stream. Empty disables
	// feed ingestion (balloons then appear only through claims).
	FeedURL string `koanf:"feed_url"`

	// JWTSecret signs volunteer tokens. Required.
	JWTSecret string `koanf:"jwt_secret"`

	// TokenTTLDays bounds volunteer token lifetime.
	TokenTTLDays int `koanf:"token_ttl_days"`

	// DisableRegistration closes anonymous self-registration.
	DisableRegistration bool `koanf:"disable_registration"`

	// EventQueueSize bounds the merged in-memory event queue.
	EventQueueSize int `koanf:"queue_size"`

	// SubscriberBuffer bounds each subscriber's outbound queue; a
	// subscriber that falls this far behind is disconnected.
	SubscriberBuffer int `koanf:"subscriber_buffer"`

	// FeedRetrySeconds sets the delay between feed reconnect attempts.
	FeedRetrySeconds int `koanf:"feed_retry_seconds"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":9080",
		DBPath:           "helium.db",
		FeedURL:          "",
		TokenTTLDays:     365,
		EventQueueSize:   10_000,
		SubscriberBuffer: 256,
		FeedRetrySeconds: 5,
	}
}
