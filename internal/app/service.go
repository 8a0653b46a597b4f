// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/okian/bingo/internal/adapters/catalog"
	"github.com/okian/bingo/internal/adapters/repository"
	"github.com/okian/bingo/internal/domain/generator"
	"github.com/okian/bingo/internal/domain/model"
	"github.com/okian/bingo/pkg/logger"
	"github.com/okian/bingo/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultMaxRetries  = 1000
	defaultMaxSessions = 1000
	defaultHistorySize = 1000
)

// Service implements the API dependencies for the board generator.
type Service struct {
	mu sync.RWMutex

	// Core components
	catalog   *model.Catalog
	generator *generator.Generator
	boards    repository.Store
	sessions  map[string]*session

	// Configuration
	catalogPath string
	defaultMix  model.Mix
	maxRetries  int
	maxSessions int
	historySize int
	seedSource  func() (int64, error)

	// Counters
	generated atomic.Int64
	failed    atomic.Int64
	exhausted atomic.Int64

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCatalog uses c instead of loading one at start.
func WithCatalog(c *model.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithCatalogPath loads the catalog from path at start. Empty means the
// embedded catalog.
func WithCatalogPath(path string) Option {
	return func(s *Service) {
		s.catalogPath = path
	}
}

// WithDefaultMix sets the mix used when a request names none.
func WithDefaultMix(m model.Mix) Option {
	return func(s *Service) {
		if m.Total() > 0 && m.Easy >= 0 && m.Normal >= 0 && m.Hard >= 0 {
			s.defaultMix = m
		}
	}
}

// WithMaxRetries sets the per-cell draw cap passed to the generator.
func WithMaxRetries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// WithMaxSessions caps the number of open sessions.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithHistorySize sets how many generated boards are retained.
func WithHistorySize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historySize = n
		}
	}
}

// WithSeedSource overrides where random seeds come from.
func WithSeedSource(fn func() (int64, error)) Option {
	return func(s *Service) {
		s.seedSource = fn
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		defaultMix:  model.Mix{Easy: 8, Normal: 9, Hard: 8},
		maxRetries:  defaultMaxRetries,
		maxSessions: defaultMaxSessions,
		historySize: defaultHistorySize,
		sessions:    make(map[string]*session),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the catalog and builds the generator and board history.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting bingo service...")

	if s.catalog == nil {
		c, err := catalog.Load(ctx, s.catalogPath)
		if err != nil {
			return fmt.Errorf("start: %w", err)
		}
		s.catalog = c
	} else if err := catalog.Validate(s.catalog); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	if missing := catalog.UndeclaredTags(s.catalog); len(missing) > 0 {
		s.logger.Warn(ctx, "goal tags without metadata default to allowmultiple",
			logger.Strings("tags", missing),
		)
	}

	opts := []generator.Option{
		generator.WithCatalog(s.catalog),
		generator.WithMaxRetries(s.maxRetries),
	}
	if s.seedSource != nil {
		opts = append(opts, generator.WithSeedSource(s.seedSource))
	}
	s.generator = generator.New(opts...)
	s.boards = repository.NewInMemoryStore(repository.WithCapacity(s.historySize))

	summary := catalog.Summary(s.catalog)
	for _, b := range model.Buckets {
		metrics.UpdateCatalogGoals(b.String(), summary[b])
	}
	metrics.UpdateActiveSessions(len(s.sessions))

	s.started = true
	s.logger.Info(ctx, "bingo service started",
		logger.Int("goals", len(s.catalog.Goals)),
		logger.Int("tags", len(s.catalog.Tags)),
		logger.Int("easy", summary[model.Easy]),
		logger.Int("normal", summary[model.Normal]),
		logger.Int("hard", summary[model.Hard]),
		logger.Int("historySize", s.historySize),
		logger.Int("maxSessions", s.maxSessions),
	)

	return nil
}

// Stop releases sessions and marks the service stopped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping bingo service...")

	clear(s.sessions)
	metrics.UpdateActiveSessions(0)

	s.started = false
	s.logger.Info(context.Background(), "bingo service stopped")
}

// Catalog returns the loaded catalog.
func (s *Service) Catalog(_ context.Context) (*model.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return nil, ErrNotStarted
	}
	return s.catalog, nil
}

// Board returns a generated board from history.
func (s *Service) Board(ctx context.Context, id string) (model.Board, error) {
	store, err := s.store()
	if err != nil {
		return model.Board{}, err
	}
	return store.Get(ctx, id)
}

// Boards returns up to limit recent boards, newest first.
func (s *Service) Boards(ctx context.Context, limit int) ([]model.Board, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}
	return store.List(ctx, limit)
}

func (s *Service) store() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return nil, ErrNotStarted
	}
	return s.boards, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"boardsGenerated": s.generated.Load(),
		"generateErrors":  s.failed.Load(),
		"goalsExhausted":  s.exhausted.Load(),
		"activeSessions":  len(s.sessions),
		"maxSessions":     s.maxSessions,
		"historySize":     s.historySize,
		"defaultMix":      s.defaultMix,
	}

	if s.started {
		stored := s.boards.Count(context.Background())
		stats["catalogGoals"] = len(s.catalog.Goals)
		stats["boardsStored"] = stored
		metrics.UpdateHistorySize(stored)
		metrics.UpdateActiveSessions(len(s.sessions))
	}

	return stats
}
