package auth

import "errors"

// Sentinel kinds for auth errors.
var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrBadCredentials = errors.New("bad credentials")
	ErrAccessDenied   = errors.New("access denied")
)
