package chat

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/model/chat"
)

// DefaultTTL is how long a session may stay idle before a sweep evicts it.
const DefaultTTL = time.Hour

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidInput    = errors.New("invalid input")
)

// Observer receives session lifecycle notifications.
type Observer interface {
	SessionCreated()
	SessionsExpired(n int)
	ActiveSessions(n int)
}

type noopObserver struct{}

func (noopObserver) SessionCreated()     {}
func (noopObserver) SessionsExpired(int) {}
func (noopObserver) ActiveSessions(int)  {}

// Option customises a Service.
type Option func(*Service)

// WithTTL sets the inactivity threshold used by Sweep.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithObserver attaches lifecycle notifications, typically metrics.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// Service owns every live session and its transcript. All reads hand out
// copies; the stored sessions never leave the lock.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*chat.Session
	ttl      time.Duration
	now      func() time.Time
	newID    func() string
	observer Observer
}

// NewService bootstraps an empty in-memory session store.
func NewService(opts ...Option) *Service {
	s := &Service{
		sessions: make(map[string]*chat.Session),
		ttl:      DefaultTTL,
		now:      time.Now,
		newID:    uuid.NewString,
		observer: noopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the configured inactivity threshold.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// CreateSession inserts a fresh session with an empty transcript.
func (s *Service) CreateSession(_ context.Context) chat.Session {
	now := s.now().UTC()

	s.mu.Lock()
	id := s.newID()
	for {
		if _, taken := s.sessions[id]; !taken {
			break
		}
		id = s.newID()
	}
	session := &chat.Session{
		ID:           id,
		Transcript:   make([]chat.Turn, 0, 16),
		CreatedAt:    now,
		LastActivity: now,
	}
	s.sessions[id] = session
	active := len(s.sessions)
	snapshot := session.Clone()
	s.mu.Unlock()

	s.observer.SessionCreated()
	s.observer.ActiveSessions(active)
	log.Debug().Str("component", "sessions").Str("session_id", id).Msg("session created")
	return snapshot
}

// GetSession returns a snapshot of the session and marks it active.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.touchLocked(sessionID)
	if err != nil {
		return chat.Session{}, err
	}
	return session.Clone(), nil
}

// DeleteSession removes the session.
func (s *Service) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	if _, ok := s.sessions[sessionID]; !ok {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	active := len(s.sessions)
	s.mu.Unlock()

	s.observer.ActiveSessions(active)
	log.Debug().Str("component", "sessions").Str("session_id", sessionID).Msg("session deleted")
	return nil
}

// ListSessions summarises every live session, oldest first.
func (s *Service) ListSessions(_ context.Context) []chat.Summary {
	s.mu.RLock()
	summaries := make([]chat.Summary, 0, len(s.sessions))
	for _, session := range s.sessions {
		summaries = append(summaries, session.Summary())
	}
	s.mu.RUnlock()

	slices.SortFunc(summaries, func(a, b chat.Summary) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.SessionID, b.SessionID)
	})
	return summaries
}

// Count returns the number of live sessions.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// AppendUserTurn records a user turn. The content needs non-blank text, an
// image, or both.
func (s *Service) AppendUserTurn(_ context.Context, sessionID string, content chat.Content) (chat.Session, error) {
	if !content.HasText() && !content.HasImage() {
		return chat.Session{}, fmt.Errorf("%w: message tidak boleh kosong", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.touchLocked(sessionID)
	if err != nil {
		return chat.Session{}, err
	}
	session.Transcript = append(session.Transcript, chat.UserTurn(content, session.LastActivity))
	return session.Clone(), nil
}

// AppendModelTurn records the model's reply and counts one completed exchange.
// Pairing it with the preceding user turn is up to the caller.
func (s *Service) AppendModelTurn(_ context.Context, sessionID string, text string) (chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.touchLocked(sessionID)
	if err != nil {
		return chat.Session{}, err
	}
	session.Transcript = append(session.Transcript, chat.ModelTurn(text, session.LastActivity))
	session.MessageCount++
	return session.Clone(), nil
}

// Sweep evicts every session idle for longer than the TTL and returns the
// evicted identifiers.
func (s *Service) Sweep() []string {
	cutoff := s.now().UTC().Add(-s.ttl)

	s.mu.Lock()
	var expired []string
	for id, session := range s.sessions {
		if session.LastActivity.Before(cutoff) {
			delete(s.sessions, id)
			expired = append(expired, id)
		}
	}
	active := len(s.sessions)
	s.mu.Unlock()

	if len(expired) > 0 {
		s.observer.SessionsExpired(len(expired))
	}
	s.observer.ActiveSessions(active)
	return expired
}

// touchLocked looks the session up and refreshes its activity timestamp.
// Caller must hold the write lock.
func (s *Service) touchLocked(sessionID string) (*chat.Session, error) {
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if now := s.now().UTC(); now.After(session.LastActivity) {
		session.LastActivity = now
	}
	return session, nil
}
