// Package repository persists saved predictions.
package repository

import (
	"context"

	"github.com/okian/courtline/internal/domain/model"
)

// Store keeps saved predictions in insertion order.
type Store interface {
	// Append saves p and fills in its sequence number.
	Append(ctx context.Context, p *model.Prediction) error

	// List returns every saved prediction, oldest first.
	List(ctx context.Context) ([]model.Prediction, error)

	// RemoveLast deletes and returns the newest prediction.
	// Returns ErrNoPredictions when the store is empty.
	RemoveLast(ctx context.Context) (model.Prediction, error)

	// Clear deletes everything and returns how many rows were removed.
	Clear(ctx context.Context) (int64, error)

	// Count returns the number of saved predictions.
	Count(ctx context.Context) (int64, error)

	Close() error
}
