package boardcheck

import (
	"fmt"
	"slices"
	"sort"

	"github.com/okian/bingo/internal/domain/model"
)

// Violation is one broken board invariant.
type Violation struct {
	BoardID string `json:"board_id"`
	Rule    string `json:"rule"`
	Detail  string `json:"detail"`
}

func (v Violation) String() string {
	return fmt.Sprintf("board %s: %s: %s", v.BoardID, v.Rule, v.Detail)
}

// Verifier checks boards against the catalog they were drawn from.
type Verifier struct {
	catalog *model.Catalog
	byName  map[string]model.Goal
}

// NewVerifier indexes c for lookups.
func NewVerifier(c *model.Catalog) *Verifier {
	byName := make(map[string]model.Goal, len(c.Goals))
	for _, g := range c.Goals {
		byName[g.Name] = g
	}
	return &Verifier{catalog: c, byName: byName}
}

// Verify returns every invariant b breaks given the requested mix and the
// goals that were exhausted before it was drawn.
func (v *Verifier) Verify(b model.Board, want model.Mix, exhausted model.GoalSet) []Violation {
	var out []Violation
	fail := func(rule, format string, args ...any) {
		out = append(out, Violation{BoardID: b.ID, Rule: rule, Detail: fmt.Sprintf(format, args...)})
	}

	if b.Size() != want.Total() {
		fail("size", "got %d cells, want %d", b.Size(), want.Total())
	}
	if b.Columns <= 0 || b.Size()%b.Columns != 0 {
		fail("layout", "%d columns do not divide %d cells", b.Columns, b.Size())
	}

	seen := make(map[string]bool, b.Size())
	counts := make(map[model.Bucket]int, len(model.Buckets))
	exclusive := make(map[string]int)
	drawnSingleUse := make(map[string]bool)

	for i, cell := range b.Cells {
		name := cell.Goal.Name
		if cell.Index != i {
			fail("layout", "cell %d has index %d", i, cell.Index)
		}
		if b.Columns > 0 && (cell.Row != i/b.Columns || cell.Col != i%b.Columns) {
			fail("layout", "cell %d at row %d col %d", i, cell.Row, cell.Col)
		}
		if seen[name] {
			fail("duplicate", "goal %q appears twice", name)
		}
		seen[name] = true

		g, ok := v.byName[name]
		if !ok {
			fail("unknown_goal", "goal %q is not in the catalog", name)
			continue
		}
		if !v.catalog.Thresholds.Contains(cell.Bucket, g.Difficulty) {
			fail("bucket", "goal %q difficulty %d is not %s", name, g.Difficulty, cell.Bucket)
		}
		counts[cell.Bucket]++

		if exhausted.Has(name) {
			fail("exhausted", "goal %q was exhausted by an earlier board", name)
		}
		for _, tag := range g.Tags {
			meta := v.catalog.Tag(tag)
			if !meta.AllowMultiple {
				exclusive[tag]++
			}
			if meta.SingleUse {
				drawnSingleUse[tag] = true
			}
		}
	}

	for _, bucket := range model.Buckets {
		if counts[bucket] != want.Count(bucket) {
			fail("mix", "%s bucket has %d goals, want %d", bucket, counts[bucket], want.Count(bucket))
		}
	}
	for tag, n := range exclusive {
		if n > 1 {
			fail("exclusive", "tag %q appears %d times", tag, n)
		}
	}

	wantTags := make([]string, 0, len(drawnSingleUse))
	for tag := range drawnSingleUse {
		wantTags = append(wantTags, tag)
	}
	sort.Strings(wantTags)
	if !slices.Equal(wantTags, b.SingleUseTags) {
		fail("single_use_tags", "got %v, want %v", b.SingleUseTags, wantTags)
	}

	var wantDelta []string
	for _, g := range v.catalog.Goals {
		if exhausted.Has(g.Name) {
			continue
		}
		for _, tag := range g.Tags {
			if drawnSingleUse[tag] {
				wantDelta = append(wantDelta, g.Name)
				break
			}
		}
	}
	sort.Strings(wantDelta)
	if !slices.Equal(wantDelta, b.Exhausted) {
		fail("exhaustion_delta", "got %d goals, want %d", len(b.Exhausted), len(wantDelta))
	}

	return out
}

