// Package repository keeps the history of generated boards.
package repository

import (
	"context"

	"github.com/okian/bingo/internal/domain/model"
)

// Store provides read/write access to generated boards.
type Store interface {
	// Save stores a board under its ID. The board must have an ID and cells.
	Save(ctx context.Context, board model.Board) error

	// Get returns the board with id.
	// Returns ErrNotFound if the board is unknown or was evicted.
	Get(ctx context.Context, id string) (model.Board, error)

	// List returns up to limit boards, newest first.
	List(ctx context.Context, limit int) ([]model.Board, error)

	// Count returns the number of boards retained.
	Count(ctx context.Context) int
}
