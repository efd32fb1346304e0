package services

import "errors"

// Dashboard errors
var (
	// ErrNotLoaded is wrapped by every query made before the first
	// successful feed load.
	ErrNotLoaded = errors.New("feed not loaded")
)
