package projection

import (
	"errors"
	"fmt"

	"github.com/okian/courtline/internal/domain/rating"
)

// Sentinel errors for matchup projection.
var (
	ErrTeamNotFound     = rating.ErrTeamNotFound
	ErrInsufficientData = errors.New("insufficient data")
	ErrSameTeam         = errors.New("a team cannot play itself")
)

// DataError names the team and model field that could not be filled.
type DataError struct {
	Team  string
	Field Field
}

func (e *DataError) Error() string {
	return fmt.Sprintf("%v: %s has no usable %s", ErrInsufficientData, e.Team, e.Field)
}

func (e *DataError) Unwrap() error { return ErrInsufficientData }
