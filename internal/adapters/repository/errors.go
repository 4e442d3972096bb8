package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound   = errors.New("not found")
	ErrLoginTaken = errors.New("login taken")
)
