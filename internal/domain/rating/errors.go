package rating

import "errors"

// Sentinel errors for rating extraction and datasets.
var (
	ErrEmptyDataset   = errors.New("rating dataset is empty")
	ErrTeamNotFound   = errors.New("team not found")
	ErrUnknownStat    = errors.New("unknown stat")
	ErrHeaderNotFound = errors.New("header row not found")
)
