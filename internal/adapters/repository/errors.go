package repository

import "errors"

// Sentinel kinds for prediction store errors.
var (
	ErrNoPredictions = errors.New("no saved predictions")
	ErrOpenStore     = errors.New("open prediction store")
)
