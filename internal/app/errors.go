package service

import "errors"

var (
	// ErrInvalidRequest is returned for malformed matchup or batch requests.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNoResult is returned when saving the last projection before any was made.
	ErrNoResult = errors.New("no projection to save")
	// ErrNotStarted is returned by store operations before Start.
	ErrNotStarted = errors.New("service not started")
	// ErrRefresh is returned when a refresh produced no teams.
	ErrRefresh = errors.New("dataset refresh failed")
)
