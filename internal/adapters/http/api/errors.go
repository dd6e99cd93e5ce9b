package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/courtline/internal/adapters/repository"
	service "github.com/okian/courtline/internal/app"
	"github.com/okian/courtline/internal/domain/projection"
	"github.com/okian/courtline/internal/domain/rating"
	"github.com/okian/courtline/internal/domain/resolve"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrRateLimited = errors.New("rate limited")
)

// OpError is a failed API operation. Kind selects the status code; Err is
// the underlying cause and may be nil.
type OpError struct {
	Op   string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	case e.Kind == nil || errors.Is(e.Err, e.Kind):
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *OpError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind reports op failing with kind and no further cause.
func NewKind(op string, kind error) error {
	return &OpError{Op: op, Kind: kind}
}

// Wrap attaches op to err; the status is derived from err.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Err: err}
}

// WrapKind attaches op and an explicit kind to err.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Kind: kind, Err: err}
}

// statusFor maps an error to its HTTP status and response code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidRequest), errors.Is(err, projection.ErrSameTeam):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, resolve.ErrAmbiguousTeamName):
		return http.StatusConflict, "ambiguous_team"
	case errors.Is(err, rating.ErrTeamNotFound):
		return http.StatusNotFound, "team_not_found"
	case errors.Is(err, repository.ErrNoPredictions), errors.Is(err, service.ErrNoResult):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, projection.ErrInsufficientData):
		return http.StatusUnprocessableEntity, "insufficient_data"
	case errors.Is(err, service.ErrRefresh):
		return http.StatusServiceUnavailable, "refresh_failed"
	case errors.Is(err, rating.ErrEmptyDataset), errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "dataset_not_loaded"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
