package api

import (
	"context"
	"sync"
	"time"

	"document-workflow/internal/common/logger"
	"document-workflow/internal/common/metrics"
	"document-workflow/internal/wizard"

	"github.com/google/uuid"
)

// SessionFactory builds an empty wizard session for an id.
type SessionFactory func(id string) *wizard.Session

// SessionStore owns the open wizard sessions. Terminal and idle sessions are
// closed and dropped by Sweep.
type SessionStore struct {
	mu          sync.RWMutex
	sessions    map[string]*wizard.Session
	factory     SessionFactory
	idleTimeout time.Duration
	logger      logger.Logger
}

func NewSessionStore(factory SessionFactory, idleTimeout time.Duration, log logger.Logger) *SessionStore {
	return &SessionStore{
		sessions:    make(map[string]*wizard.Session),
		factory:     factory,
		idleTimeout: idleTimeout,
		logger:      log.WithFields(map[string]interface{}{"component": "session-store"}),
	}
}

// Create opens a session and, when initialTaxID is set, resolves it.
func (s *SessionStore) Create(ctx context.Context, initialTaxID string) (*wizard.Session, error) {
	session := s.factory(uuid.NewString())

	s.mu.Lock()
	s.sessions[session.ID()] = session
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	if err := session.Open(ctx, initialTaxID); err != nil {
		s.Remove(ctx, session.ID())
		return nil, err
	}
	s.logger.Info("wizard session opened", map[string]interface{}{"sessionId": session.ID()})
	return session, nil
}

func (s *SessionStore) Get(id string) (*wizard.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}

// Remove closes and drops a session.
func (s *SessionStore) Remove(ctx context.Context, id string) {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	if ok {
		session.Close(ctx)
	}
}

// Len is the number of open sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep closes sessions that are terminal or idle past the timeout and
// returns how many were dropped.
func (s *SessionStore) Sweep(ctx context.Context, now time.Time) int {
	s.mu.Lock()
	var expired []*wizard.Session
	for id, session := range s.sessions {
		info := session.Info()
		if wizard.State(info.State).Terminal() || (s.idleTimeout > 0 && info.IsIdle(now, s.idleTimeout)) {
			expired = append(expired, session)
			delete(s.sessions, id)
		}
	}
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	for _, session := range expired {
		session.Close(ctx)
	}
	if len(expired) > 0 {
		s.logger.Debug("expired wizard sessions dropped", map[string]interface{}{"count": len(expired)})
	}
	return len(expired)
}

// RunSweeper sweeps every interval until ctx is done.
func (s *SessionStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(ctx, now)
		}
	}
}

// CloseAll closes every session; used on shutdown.
func (s *SessionStore) CloseAll(ctx context.Context) {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*wizard.Session)
	metrics.ActiveSessions.Set(0)
	s.mu.Unlock()

	for _, session := range sessions {
		session.Close(ctx)
	}
}
