// Package generator selects goals for a bingo board.
//
// Selection draws each difficulty bucket uniformly at random without
// replacement while enforcing tag exclusivity, then places the picks on a
// grid. The generator is pure: it reads the pool, tag metadata and exhausted
// set but never modifies them, and every call owns its random source, so
// concurrent calls need no coordination.
package generator

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"sort"

	"github.com/okian/bingo/internal/domain/model"
)

// Default generator configuration constants.
const (
	defaultMaxRetries = 1000
	maxJSONSafeSeed   = 1<<53 - 1
)

// Request describes one board.
type Request struct {
	Size int
	Mix  model.Mix

	// Exhausted goals are never drawn. Nil means none.
	Exhausted model.GoalSet

	// Order optionally places selection i (easy picks first, then normal,
	// then hard) at cell Order[i]. It must be a permutation of [0, Size).
	// Nil means a random placement.
	Order []int

	// Columns is the grid width. Zero picks the square root for square
	// sizes and a single row otherwise.
	Columns int

	// Seed makes generation reproducible. Zero draws a fresh seed.
	Seed int64
}

// Result is a generated board plus the exhaustion it causes.
type Result struct {
	Board model.Board

	// SingleUseTags are the single-use tags drawn, sorted.
	SingleUseTags []string
	// Exhausted holds every pool goal, not already exhausted, that carries
	// one of SingleUseTags. Callers merge it into their exhausted set.
	Exhausted model.GoalSet

	// Attempts is the number of draws made.
	Attempts int
	// Rejections counts candidates rejected per exclusive tag.
	Rejections map[string]int
}

// Generator builds boards from a goal pool.
type Generator struct {
	thresholds model.Thresholds
	tags       map[string]model.TagMeta
	maxRetries int
	seedSource func() (int64, error)
}

// New creates a generator with configuration options.
func New(opts ...Option) *Generator {
	g := &Generator{
		tags:       make(map[string]model.TagMeta),
		maxRetries: defaultMaxRetries,
		seedSource: newSeed,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Thresholds returns the configured difficulty boundaries.
func (g *Generator) Thresholds() model.Thresholds {
	return g.thresholds
}

// Generate selects req.Size goals from pool and arranges them into a board.
// It returns an *InvalidConfigError for malformed requests and an
// *InsufficientPoolError when a bucket cannot be filled. No partial board is
// ever returned.
func (g *Generator) Generate(ctx context.Context, pool []model.Goal, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("generate: %w", err)
	}
	cols, err := g.validate(pool, req)
	if err != nil {
		return Result{}, err
	}

	seed := req.Seed
	if seed == 0 {
		if seed, err = g.seedSource(); err != nil {
			return Result{}, fmt.Errorf("generate: %w", err)
		}
	}
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible boards need a seeded PRNG

	buckets := g.partition(pool, req.Exhausted)
	sel := newSelection(pool, g)
	budget := req.Size * g.maxRetries

	for _, b := range model.Buckets {
		want := req.Mix.Count(b)
		// candidates is this call's own copy; drawing swap-removes from it.
		candidates := slices.Clone(buckets[b])
		got := 0
		for got < want {
			if len(candidates) == 0 || sel.attempts >= budget {
				return Result{}, &InsufficientPoolError{
					Bucket:    b,
					Requested: want,
					Shortfall: want - got,
					Attempts:  sel.attempts,
				}
			}
			j := rng.Intn(len(candidates))
			idx := candidates[j]
			candidates[j] = candidates[len(candidates)-1]
			candidates = candidates[:len(candidates)-1]
			sel.attempts++

			if sel.taken[idx] {
				continue
			}
			if tag := sel.conflict(idx); tag != "" {
				sel.rejections[tag]++
				continue
			}
			sel.take(idx, b)
			got++
		}
	}

	order := req.Order
	if len(order) == 0 {
		order = rng.Perm(req.Size)
	}
	cells := make([]model.Cell, req.Size)
	for i, p := range sel.picks {
		at := order[i]
		goal := pool[p.index]
		goal.Tags = slices.Clone(goal.Tags)
		cells[at] = model.Cell{
			Index:  at,
			Row:    at / cols,
			Col:    at % cols,
			Goal:   goal,
			Bucket: p.bucket,
		}
	}

	tags, delta := g.exhaustion(pool, sel, req.Exhausted)
	return Result{
		Board: model.Board{
			Seed:          seed,
			Columns:       cols,
			Cells:         cells,
			SingleUseTags: tags,
			Exhausted:     delta.Names(),
		},
		SingleUseTags: tags,
		Exhausted:     delta,
		Attempts:      sel.attempts,
		Rejections:    sel.rejections,
	}, nil
}

// validate checks the request and returns the grid width.
func (g *Generator) validate(pool []model.Goal, req Request) (int, error) {
	if req.Size <= 0 {
		return 0, invalidf("size", "must be positive, got %d", req.Size)
	}
	for _, b := range model.Buckets {
		if n := req.Mix.Count(b); n < 0 {
			return 0, invalidf("mix."+b.String(), "must not be negative, got %d", n)
		}
	}
	if total := req.Mix.Total(); total != req.Size {
		return 0, invalidf("mix", "counts sum to %d, size is %d", total, req.Size)
	}
	if !g.thresholds.Monotonic() {
		t := g.thresholds
		return 0, invalidf("thresholds", "not monotonic (easymax=%d normmin=%d normmax=%d hardmin=%d)",
			t.EasyMax, t.NormMin, t.NormMax, t.HardMin)
	}
	if len(req.Order) > 0 {
		if len(req.Order) != req.Size {
			return 0, invalidf("order", "has %d entries, size is %d", len(req.Order), req.Size)
		}
		seen := make([]bool, req.Size)
		for _, at := range req.Order {
			if at < 0 || at >= req.Size || seen[at] {
				return 0, invalidf("order", "is not a permutation of [0,%d)", req.Size)
			}
			seen[at] = true
		}
	}
	names := make(map[string]struct{}, len(pool))
	for _, goal := range pool {
		if _, dup := names[goal.Name]; dup {
			return 0, invalidf("pool", "duplicate goal %q", goal.Name)
		}
		names[goal.Name] = struct{}{}
	}
	return columnsFor(req.Size, req.Columns)
}

func columnsFor(size, requested int) (int, error) {
	switch {
	case requested < 0:
		return 0, invalidf("columns", "must not be negative, got %d", requested)
	case requested > 0:
		if size%requested != 0 {
			return 0, invalidf("columns", "%d does not divide size %d", requested, size)
		}
		return requested, nil
	}
	root := int(math.Sqrt(float64(size)))
	for root*root > size {
		root--
	}
	for (root+1)*(root+1) <= size {
		root++
	}
	if root*root == size {
		return root, nil
	}
	return size, nil
}

// partition returns pool indexes per bucket, skipping exhausted goals.
func (g *Generator) partition(pool []model.Goal, exhausted model.GoalSet) [len(model.Buckets)][]int {
	var out [len(model.Buckets)][]int
	for i, goal := range pool {
		if exhausted.Has(goal.Name) {
			continue
		}
		for _, b := range g.thresholds.BucketsFor(goal.Difficulty) {
			out[b] = append(out[b], i)
		}
	}
	return out
}

// exhaustion collects the single-use tags drawn and the goals they exhaust.
func (g *Generator) exhaustion(pool []model.Goal, sel *selection, exhausted model.GoalSet) ([]string, model.GoalSet) {
	drawn := make(map[string]struct{})
	for _, p := range sel.picks {
		for _, tag := range pool[p.index].Tags {
			if g.tag(tag).SingleUse {
				drawn[tag] = struct{}{}
			}
		}
	}
	delta := make(model.GoalSet)
	if len(drawn) == 0 {
		return nil, delta
	}
	tags := make([]string, 0, len(drawn))
	for tag := range drawn {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	for _, goal := range pool {
		if exhausted.Has(goal.Name) {
			continue
		}
		for _, tag := range goal.Tags {
			if _, ok := drawn[tag]; ok {
				delta.Add(goal.Name)
				break
			}
		}
	}
	return tags, delta
}

func (g *Generator) tag(name string) model.TagMeta {
	if m, ok := g.tags[name]; ok {
		return m
	}
	return model.DefaultTagMeta
}

type pick struct {
	index  int
	bucket model.Bucket
}

// selection is the running state of one Generate call. It indexes into the
// pool instead of copying goals.
type selection struct {
	gen        *Generator
	pool       []model.Goal
	taken      []bool
	tagCount   map[string]int
	picks      []pick
	attempts   int
	rejections map[string]int
}

func newSelection(pool []model.Goal, g *Generator) *selection {
	return &selection{
		gen:        g,
		pool:       pool,
		taken:      make([]bool, len(pool)),
		tagCount:   make(map[string]int),
		rejections: make(map[string]int),
	}
}

// conflict returns the first exclusive tag of pool[idx] that already has a
// representative on the board, or "".
func (s *selection) conflict(idx int) string {
	for _, tag := range s.pool[idx].Tags {
		if !s.gen.tag(tag).AllowMultiple && s.tagCount[tag] > 0 {
			return tag
		}
	}
	return ""
}

func (s *selection) take(idx int, b model.Bucket) {
	s.taken[idx] = true
	s.picks = append(s.picks, pick{index: idx, bucket: b})
	for _, tag := range slices.Compact(slices.Sorted(slices.Values(s.pool[idx].Tags))) {
		s.tagCount[tag]++
	}
}

// newSeed draws a seed from crypto/rand. Seeds stay below 2^53 so they
// survive a round trip through JSON numbers.
func newSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	seed := int64(binary.LittleEndian.Uint64(b[:]) & maxJSONSafeSeed)
	if seed == 0 {
		seed = 1
	}
	return seed, nil
}
