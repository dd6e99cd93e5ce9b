package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okian/courtline/internal/domain/rating"
)

// Sentinel errors for name resolution.
var (
	ErrTeamNotFound      = rating.ErrTeamNotFound
	ErrAmbiguousTeamName = errors.New("ambiguous team name")
)

// Error carries the query and, for ambiguous matches, the candidates.
type Error struct {
	Query      string
	Candidates []string
	Kind       error
}

func (e *Error) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("%v: %q", e.Kind, e.Query)
	}
	return fmt.Sprintf("%v: %q matches %s", e.Kind, e.Query, strings.Join(e.Candidates, ", "))
}

func (e *Error) Unwrap() error { return e.Kind }
