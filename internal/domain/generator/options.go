package generator

import "github.com/okian/bingo/internal/domain/model"

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithThresholds sets the difficulty boundaries used to bucket goals.
func WithThresholds(t model.Thresholds) Option {
	return func(g *Generator) {
		g.thresholds = t
	}
}

// WithTags sets the tag metadata. The map is copied.
func WithTags(tags map[string]model.TagMeta) Option {
	return func(g *Generator) {
		g.tags = make(map[string]model.TagMeta, len(tags))
		for name, meta := range tags {
			g.tags[name] = meta
		}
	}
}

// WithCatalog takes thresholds and tag metadata from c.
func WithCatalog(c *model.Catalog) Option {
	return func(g *Generator) {
		if c == nil {
			return
		}
		WithThresholds(c.Thresholds)(g)
		WithTags(c.Tags)(g)
	}
}

// WithMaxRetries sets the per-cell draw cap. The total number of draws for one
// board is bounded by size * maxRetries.
func WithMaxRetries(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxRetries = n
		}
	}
}

// WithSeedSource replaces the source used when a request carries no seed.
func WithSeedSource(fn func() (int64, error)) Option {
	return func(g *Generator) {
		if fn != nil {
			g.seedSource = fn
		}
	}
}
