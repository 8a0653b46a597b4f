package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/okian/bingo/internal/adapters/repository"
	"github.com/okian/bingo/internal/domain/exhaustion"
	"github.com/okian/bingo/internal/domain/generator"
	"github.com/okian/bingo/internal/domain/model"
	"github.com/okian/bingo/pkg/logger"
	"github.com/okian/bingo/pkg/metrics"
)

// Generation modes used as metric labels.
const (
	modeStateless = "stateless"
	modeSession   = "session"
)

// GenerateRequest describes a board to generate. Zero Size and Mix fall back
// to the service's default mix.
type GenerateRequest struct {
	Size    int
	Mix     model.Mix
	Seed    int64
	Columns int
	Order   []int

	// Exhausted names goals that must not be drawn, on top of any session
	// exhaustion.
	Exhausted []string
}

// Generate builds a board without session state. The caller owns the
// exhausted set; the returned board lists the goals it exhausts.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (model.Board, error) {
	res, err := s.generate(ctx, modeStateless, "", req, model.NewGoalSet(req.Exhausted...))
	if err != nil {
		return model.Board{}, err
	}
	return res.Board, nil
}

// GenerateInSession builds a board that avoids every goal exhausted earlier in
// the session, then records the goals this board exhausts. Calls for the same
// session are serialized so two boards never draw from the same snapshot.
func (s *Service) GenerateInSession(ctx context.Context, id string, req GenerateRequest) (model.Board, error) {
	sess, err := s.session(id)
	if err != nil {
		return model.Board{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	exhausted := sess.tracker.Snapshot(ctx)
	for _, name := range req.Exhausted {
		exhausted.Add(name)
	}

	res, err := s.generate(ctx, modeSession, id, req, exhausted)
	if err != nil {
		return model.Board{}, err
	}

	added := exhaustion.Record(ctx, sess.tracker, res.Exhausted)
	sess.boards = append(sess.boards, res.Board.ID)
	s.exhausted.Add(int64(added))
	metrics.RecordExhaustedGoals(added)

	s.logger.Debug(ctx, "session exhaustion updated",
		logger.String("session_id", id),
		logger.Int("added", added),
		logger.Int64("total", sess.tracker.Size()),
	)
	return res.Board, nil
}

func (s *Service) generate(ctx context.Context, mode, sessionID string, req GenerateRequest, exhausted model.GoalSet) (generator.Result, error) {
	gen, store, cat, err := s.components()
	if err != nil {
		return generator.Result{}, err
	}

	size, mix := s.resolveMix(req)
	start := time.Now()
	res, err := gen.Generate(ctx, cat.Goals, generator.Request{
		Size:      size,
		Mix:       mix,
		Exhausted: exhausted,
		Order:     req.Order,
		Columns:   req.Columns,
		Seed:      req.Seed,
	})
	latency := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		kind := ErrorKind(err)
		s.failed.Add(1)
		metrics.RecordGenerationError(kind)
		metrics.RecordErrorByComponent("generator", kind)
		metrics.RecordErrorLatency("generator", kind, latency)
		s.logger.Warn(ctx, "board generation failed",
			logger.String("mode", mode),
			logger.String("kind", kind),
			logger.Int("size", size),
			logger.Any("mix", mix),
			logger.Int("exhausted", len(exhausted)),
			logger.Error(err),
		)
		return generator.Result{}, err
	}

	res.Board.ID = uuid.NewString()
	res.Board.SessionID = sessionID
	res.Board.CreatedAt = time.Now().UTC()
	if err := store.Save(ctx, res.Board); err != nil {
		return generator.Result{}, fmt.Errorf("save board: %w", err)
	}

	s.generated.Add(1)
	metrics.RecordBoardGenerated(mode)
	metrics.RecordGenerationLatency(latency)
	metrics.RecordDrawAttempts(res.Attempts)
	metrics.RecordTagRejections(res.Rejections)

	s.logger.Info(ctx, "board generated",
		logger.String("board_id", res.Board.ID),
		logger.String("mode", mode),
		logger.Int64("seed", res.Board.Seed),
		logger.Int("size", size),
		logger.Int("attempts", res.Attempts),
		logger.Strings("single_use_tags", res.SingleUseTags),
		logger.Int("exhausts", len(res.Exhausted)),
	)
	return res, nil
}

func (s *Service) components() (*generator.Generator, repository.Store, *model.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return nil, nil, nil, ErrNotStarted
	}
	return s.generator, s.boards, s.catalog, nil
}

// resolveMix fills in size and mix from the defaults. An explicit mix wins;
// a size alone scales the default mix to that size.
func (s *Service) resolveMix(req GenerateRequest) (int, model.Mix) {
	if !req.Mix.IsZero() {
		if req.Size == 0 {
			return req.Mix.Total(), req.Mix
		}
		return req.Size, req.Mix
	}
	if req.Size == 0 || req.Size == s.defaultMix.Total() {
		return s.defaultMix.Total(), s.defaultMix
	}
	return req.Size, ScaleMix(s.defaultMix, req.Size)
}

// ScaleMix spreads size across buckets in the proportions of base using the
// largest remainder method. Ties go to the earlier bucket.
func ScaleMix(base model.Mix, size int) model.Mix {
	total := base.Total()
	if size <= 0 || total <= 0 {
		return model.Mix{}
	}
	counts := make([]int, len(model.Buckets))
	type rem struct {
		bucket model.Bucket
		frac   int
	}
	rems := make([]rem, 0, len(model.Buckets))
	assigned := 0
	for _, b := range model.Buckets {
		scaled := base.Count(b) * size
		counts[b] = scaled / total
		assigned += counts[b]
		rems = append(rems, rem{bucket: b, frac: scaled % total})
	}
	sort.SliceStable(rems, func(i, j int) bool { return rems[i].frac > rems[j].frac })
	for i := 0; assigned < size; i++ {
		counts[rems[i%len(rems)].bucket]++
		assigned++
	}
	return model.Mix{Easy: counts[model.Easy], Normal: counts[model.Normal], Hard: counts[model.Hard]}
}

// Error kinds reported in metrics and API responses.
const (
	KindInvalidConfig    = "invalid_config"
	KindInsufficientPool = "insufficient_pool"
	KindNotStarted       = "not_started"
	KindSessionNotFound  = "session_not_found"
	KindTooManySessions  = "too_many_sessions"
	KindCanceled         = "canceled"
	KindInternal         = "internal"
)

// ErrorKind classifies err for metrics and API responses.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, generator.ErrInvalidConfig):
		return KindInvalidConfig
	case errors.Is(err, generator.ErrInsufficientPool):
		return KindInsufficientPool
	case errors.Is(err, ErrNotStarted):
		return KindNotStarted
	case errors.Is(err, ErrSessionNotFound):
		return KindSessionNotFound
	case errors.Is(err, ErrTooManySessions):
		return KindTooManySessions
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindInternal
	}
}
