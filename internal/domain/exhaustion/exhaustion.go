// Package exhaustion tracks goals that can no longer be drawn in a session.
package exhaustion

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/okian/bingo/internal/domain/model"
)

// Tracker records exhausted goal names for one session.
type Tracker interface {
	// SeenAndRecord atomically checks if name was exhausted and records it if not.
	// Returns true if name was already exhausted.
	SeenAndRecord(ctx context.Context, name string) bool

	// Unrecord makes name drawable again.
	Unrecord(ctx context.Context, name string)

	// Contains reports whether name is exhausted.
	Contains(ctx context.Context, name string) bool

	// Snapshot returns a copy of the exhausted set, safe to hand to the generator.
	Snapshot(ctx context.Context) model.GoalSet

	// Names returns exhausted names in the order they were recorded.
	Names(ctx context.Context) []string

	// Reset forgets every exhausted goal.
	Reset(ctx context.Context)

	Size() int64
}

// inMemoryTracker keeps a name -> sequence map. The sequence preserves
// insertion order for Names without a second index.
type inMemoryTracker struct {
	mu   sync.RWMutex
	seen map[string]uint64
	next uint64
	size atomic.Int64
}

// NewInMemoryTracker creates a tracker with configuration options.
func NewInMemoryTracker(opts ...Option) Tracker {
	cfg := config{capacity: 64}
	for _, opt := range opts {
		opt(&cfg)
	}
	t := &inMemoryTracker{
		seen: make(map[string]uint64, cfg.capacity),
	}
	for _, name := range cfg.initial {
		t.SeenAndRecord(context.Background(), name)
	}
	return t
}

func (t *inMemoryTracker) SeenAndRecord(_ context.Context, name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.seen[name]; exists {
		return true
	}
	t.next++
	t.seen[name] = t.next
	t.size.Add(1)
	return false
}

func (t *inMemoryTracker) Unrecord(_ context.Context, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.seen[name]; exists {
		delete(t.seen, name)
		t.size.Add(-1)
	}
}

func (t *inMemoryTracker) Contains(_ context.Context, name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.seen[name]
	return ok
}

func (t *inMemoryTracker) Snapshot(_ context.Context) model.GoalSet {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(model.GoalSet, len(t.seen))
	for name := range t.seen {
		out.Add(name)
	}
	return out
}

func (t *inMemoryTracker) Names(_ context.Context) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]string, 0, len(t.seen))
	for name := range t.seen {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return t.seen[out[i]] < t.seen[out[j]] })
	return out
}

func (t *inMemoryTracker) Reset(_ context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	clear(t.seen)
	t.size.Store(0)
}

func (t *inMemoryTracker) Size() int64 {
	return t.size.Load()
}

// Record adds every name in delta and returns how many were new.
func Record(ctx context.Context, t Tracker, delta model.GoalSet) int {
	added := 0
	for _, name := range delta.Names() {
		if !t.SeenAndRecord(ctx, name) {
			added++
		}
	}
	return added
}
