package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/okian/bingo/internal/domain/model"
	"github.com/okian/bingo/pkg/metrics"
)

// InMemoryStore is a bounded Store. Boards live in a ring ordered by save
// time; once full, each save evicts the oldest board.
type InMemoryStore struct {
	mu       sync.RWMutex
	capacity int
	ring     []string // board IDs, ring[head] is the oldest once full
	head     int
	byID     map[string]model.Board
}

// NewInMemoryStore creates a store with configuration options.
func NewInMemoryStore(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{
		capacity: defaultCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ring = make([]string, 0, s.capacity)
	s.byID = make(map[string]model.Board, s.capacity)

	metrics.UpdateHistoryCapacity(s.capacity)
	metrics.UpdateHistorySize(0)
	return s
}

// Capacity returns the maximum number of boards retained.
func (s *InMemoryStore) Capacity() int {
	return s.capacity
}

// Save stores a copy of board. Saving an existing ID replaces the board but
// keeps its position in the history.
func (s *InMemoryStore) Save(_ context.Context, board model.Board) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositorySaveLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if board.ID == "" {
		metrics.RecordErrorByComponent("repository", "invalid_board")
		return fmt.Errorf("%w: missing id", ErrInvalidBoard)
	}
	if len(board.Cells) == 0 {
		metrics.RecordErrorByComponent("repository", "invalid_board")
		return fmt.Errorf("%w: board %s has no cells", ErrInvalidBoard, board.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[board.ID]; exists {
		s.byID[board.ID] = cloneBoard(board)
		return nil
	}

	if len(s.ring) < s.capacity {
		s.ring = append(s.ring, board.ID)
	} else {
		evicted := s.ring[s.head]
		delete(s.byID, evicted)
		s.ring[s.head] = board.ID
		s.head = (s.head + 1) % s.capacity
		metrics.RecordHistoryEviction()
	}
	s.byID[board.ID] = cloneBoard(board)
	metrics.UpdateHistorySize(len(s.byID))
	return nil
}

// Get returns a copy of the board with id.
func (s *InMemoryStore) Get(_ context.Context, id string) (model.Board, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Board{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cloneBoard(b), nil
}

// List returns up to limit boards, newest first.
func (s *InMemoryStore) List(_ context.Context, limit int) ([]model.Board, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if limit <= 0 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := min(limit, len(s.ring))
	out := make([]model.Board, 0, n)
	// The newest entry sits just before head once the ring has wrapped.
	for i := 0; i < n; i++ {
		pos := (s.head - 1 - i + 2*len(s.ring)) % len(s.ring)
		out = append(out, cloneBoard(s.byID[s.ring[pos]]))
	}
	return out, nil
}

// Count returns the number of boards retained.
func (s *InMemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func cloneBoard(b model.Board) model.Board {
	b.Cells = slices.Clone(b.Cells)
	for i := range b.Cells {
		b.Cells[i].Goal.Tags = slices.Clone(b.Cells[i].Goal.Tags)
	}
	b.SingleUseTags = slices.Clone(b.SingleUseTags)
	b.Exhausted = slices.Clone(b.Exhausted)
	return b
}
