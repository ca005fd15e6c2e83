package tutor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/model/chat"
	chatservice "github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/service/chat"
)

// Exchange outcomes reported to the Recorder.
const (
	StatusOK       = "ok"
	StatusInvalid  = "invalid"
	StatusNotFound = "not_found"
	StatusCanceled = "canceled"
	StatusError    = "error"
)

// SessionStore is the part of the session service an exchange needs.
type SessionStore interface {
	AppendUserTurn(ctx context.Context, sessionID string, content chat.Content) (chat.Session, error)
	AppendModelTurn(ctx context.Context, sessionID string, text string) (chat.Session, error)
}

// Replier produces the model's next turn for a transcript.
type Replier interface {
	Reply(ctx context.Context, turns []chat.Turn) (string, error)
}

// Recorder receives exchange outcomes and model call latencies.
type Recorder interface {
	ObserveExchange(status string)
	ObserveModelCall(d time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) ObserveExchange(string)         {}
func (noopRecorder) ObserveModelCall(time.Duration) {}

// ExternalCallError wraps a failure of the generative model call. Its
// message is passed through to callers unchanged.
type ExternalCallError struct {
	Err error
}

func (e *ExternalCallError) Error() string { return e.Err.Error() }

func (e *ExternalCallError) Unwrap() error { return e.Err }

// Reply is the outcome of one completed exchange.
type Reply struct {
	SessionID    string
	Result       string
	MessageCount int
}

// LegacyTurn is one entry of a stateless conversation payload.
type LegacyTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Option customises a Service.
type Option func(*Service)

// WithRecorder reports exchange metrics to r.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// Service runs tutoring exchanges: it records the user turn, asks the model
// for a reply with the full transcript, and records the reply.
type Service struct {
	sessions SessionStore
	model    Replier
	locks    *keyedMutex
	recorder Recorder
}

// NewService wires the session store and the model.
func NewService(sessions SessionStore, model Replier, opts ...Option) *Service {
	s := &Service{
		sessions: sessions,
		model:    model,
		locks:    newKeyedMutex(),
		recorder: noopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Exchange sends content on sessionID and returns the model reply.
// Exchanges on one session run one at a time so each user turn is directly
// followed by its reply.
func (s *Service) Exchange(ctx context.Context, sessionID string, content chat.Content) (Reply, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		s.recorder.ObserveExchange(StatusInvalid)
		return Reply{}, fmt.Errorf("%w: sessionId diperlukan", chatservice.ErrInvalidInput)
	}

	unlock, err := s.locks.Lock(ctx, sessionID)
	if err != nil {
		// The caller gave up while queued behind another exchange.
		s.recorder.ObserveExchange(StatusCanceled)
		return Reply{}, err
	}
	defer unlock()

	session, err := s.sessions.AppendUserTurn(ctx, sessionID, content)
	if err != nil {
		s.recorder.ObserveExchange(statusOf(err))
		return Reply{}, err
	}

	text, err := s.reply(ctx, session.Transcript)
	if err != nil {
		s.recorder.ObserveExchange(StatusError)
		log.Error().Err(err).Str("component", "tutor").Str("session_id", sessionID).Msg("model call failed")
		return Reply{}, &ExternalCallError{Err: err}
	}

	session, err = s.sessions.AppendModelTurn(ctx, sessionID, text)
	if err != nil {
		// The session expired or was deleted while the model was thinking.
		s.recorder.ObserveExchange(statusOf(err))
		return Reply{}, err
	}

	s.recorder.ObserveExchange(StatusOK)
	log.Info().
		Str("component", "tutor").
		Str("session_id", sessionID).
		Int("message_count", session.MessageCount).
		Bool("has_image", content.HasImage()).
		Msg("exchange completed")

	return Reply{
		SessionID:    sessionID,
		Result:       text,
		MessageCount: session.MessageCount,
	}, nil
}

// Converse answers a stateless conversation without touching any session.
func (s *Service) Converse(ctx context.Context, conversation []LegacyTurn) (string, error) {
	if len(conversation) == 0 {
		s.recorder.ObserveExchange(StatusInvalid)
		return "", fmt.Errorf("%w: conversation tidak boleh kosong", chatservice.ErrInvalidInput)
	}

	now := time.Now().UTC()
	turns := make([]chat.Turn, 0, len(conversation))
	for i, item := range conversation {
		role, ok := legacyRole(item.Role)
		if !ok {
			s.recorder.ObserveExchange(StatusInvalid)
			return "", fmt.Errorf("%w: role tidak dikenal pada conversation[%d]: %q", chatservice.ErrInvalidInput, i, item.Role)
		}
		turns = append(turns, chat.Turn{Role: role, Content: chat.Content{Text: item.Text}, CreatedAt: now})
	}

	text, err := s.reply(ctx, turns)
	if err != nil {
		s.recorder.ObserveExchange(StatusError)
		log.Error().Err(err).Str("component", "tutor").Msg("stateless model call failed")
		return "", &ExternalCallError{Err: err}
	}

	s.recorder.ObserveExchange(StatusOK)
	return text, nil
}

func (s *Service) reply(ctx context.Context, turns []chat.Turn) (string, error) {
	start := time.Now()
	defer func() { s.recorder.ObserveModelCall(time.Since(start)) }()
	return s.model.Reply(ctx, turns)
}

func legacyRole(role string) (chat.Role, bool) {
	r := chat.Role(strings.ToLower(strings.TrimSpace(role)))
	if r == "assistant" {
		r = chat.RoleModel
	}
	return r, r.Valid()
}

func statusOf(err error) string {
	switch {
	case errors.Is(err, chatservice.ErrSessionNotFound):
		return StatusNotFound
	case errors.Is(err, chatservice.ErrInvalidInput):
		return StatusInvalid
	default:
		return StatusError
	}
}
