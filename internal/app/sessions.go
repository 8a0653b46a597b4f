package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/bingo/internal/domain/exhaustion"
	"github.com/okian/bingo/pkg/logger"
	"github.com/okian/bingo/pkg/metrics"
)

// session carries exhaustion across boards. mu serializes generation so the
// snapshot a board draws from already reflects every earlier board.
type session struct {
	id        string
	createdAt time.Time

	mu      sync.Mutex
	tracker exhaustion.Tracker
	boards  []string
}

// SessionInfo describes a session.
type SessionInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Exhausted []string  `json:"exhausted"`
	Boards    []string  `json:"boards"`
}

// CreateSession opens a session with no exhausted goals.
func (s *Service) CreateSession(ctx context.Context) (SessionInfo, error) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return SessionInfo{}, ErrNotStarted
	}
	if len(s.sessions) >= s.maxSessions {
		s.mu.Unlock()
		metrics.RecordErrorByComponent("service", KindTooManySessions)
		return SessionInfo{}, fmt.Errorf("%w: limit %d", ErrTooManySessions, s.maxSessions)
	}
	sess := &session{
		id:        uuid.NewString(),
		createdAt: time.Now().UTC(),
		tracker:   exhaustion.NewInMemoryTracker(exhaustion.WithCapacity(len(s.catalog.Goals))),
	}
	s.sessions[sess.id] = sess
	active := len(s.sessions)
	s.mu.Unlock()

	metrics.UpdateActiveSessions(active)
	s.logger.Info(ctx, "session created",
		logger.String("session_id", sess.id),
		logger.Int("active", active),
	)
	return SessionInfo{ID: sess.id, CreatedAt: sess.createdAt, Exhausted: []string{}, Boards: []string{}}, nil
}

// Session returns the state of session id.
func (s *Service) Session(ctx context.Context, id string) (SessionInfo, error) {
	sess, err := s.session(id)
	if err != nil {
		return SessionInfo{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	return SessionInfo{
		ID:        sess.id,
		CreatedAt: sess.createdAt,
		Exhausted: sess.tracker.Names(ctx),
		Boards:    append([]string{}, sess.boards...),
	}, nil
}

// DeleteSession closes session id. Boards it generated stay in history.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	if _, ok := s.sessions[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(s.sessions, id)
	active := len(s.sessions)
	s.mu.Unlock()

	metrics.UpdateActiveSessions(active)
	s.logger.Info(ctx, "session deleted",
		logger.String("session_id", id),
		logger.Int("active", active),
	)
	return nil
}

// ResetSession makes every goal drawable again in session id.
func (s *Service) ResetSession(ctx context.Context, id string) (SessionInfo, error) {
	sess, err := s.session(id)
	if err != nil {
		return SessionInfo{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	cleared := sess.tracker.Size()
	sess.tracker.Reset(ctx)
	s.logger.Info(ctx, "session reset",
		logger.String("session_id", id),
		logger.Int64("cleared", cleared),
	)
	return SessionInfo{
		ID:        sess.id,
		CreatedAt: sess.createdAt,
		Exhausted: []string{},
		Boards:    append([]string{}, sess.boards...),
	}, nil
}

func (s *Service) session(id string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return nil, ErrNotStarted
	}
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}
