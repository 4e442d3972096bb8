package feed

import (
	"net/http"
	"time"

	"github.com/okian/helium/pkg/logger"
)

// Option applies a configuration option to the HTTPSource.
type Option func(*HTTPSource)

// WithRetryInterval sets the delay between reconnect attempts.
func WithRetryInterval(interval time.Duration) Option {
	return func(s *HTTPSource) {
		if interval > 0 {
			s.retryInterval = interval
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *HTTPSource) {
		if client != nil {
			s.client = client
		}
	}
}

// WithLogger sets a custom logger for the source.
func WithLogger(l logger.Logger) Option {
	return func(s *HTTPSource) {
		if l != nil {
			s.logger = l.Named("feed")
		}
	}
}
