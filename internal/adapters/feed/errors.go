package feed

import "errors"

// Sentinel kinds for feed errors.
var (
	ErrFeedUnavailable = errors.New("feed unavailable")
	ErrFeedClosed      = errors.New("feed stream ended")
)
