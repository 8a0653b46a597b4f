package repository

import "errors"

// Sentinel kinds for board history errors.
var (
	ErrNotFound     = errors.New("board not found")
	ErrInvalidBoard = errors.New("invalid board")
	ErrInvalidLimit = errors.New("invalid history limit")
)
