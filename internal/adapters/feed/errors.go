package feed

import "errors"

var (
	// ErrFeedFetch is returned when a feed cannot be retrieved.
	ErrFeedFetch = errors.New("feed fetch failed")
	// ErrFeedParse is returned when a feed body is not a usable table.
	ErrFeedParse = errors.New("feed parse failed")
)
