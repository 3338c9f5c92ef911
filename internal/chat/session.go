// Package chat runs exchanges between a conversation and the chat endpoint.
package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/diogo/chatline/internal/conversation"
	apierrors "github.com/diogo/chatline/internal/errors"
	"github.com/diogo/chatline/internal/models"
)

// Fetcher produces the assistant reply for a conversation snapshot.
// api.ChatClient implements it.
type Fetcher interface {
	FetchReply(ctx context.Context, messages []models.Message, streaming bool, onPartial func(string)) (string, error)
}

// Session owns one conversation and allows a single exchange at a time
type Session struct {
	id      string
	fetcher Fetcher
	conv    *conversation.Conversation
	logger  *slog.Logger
	started time.Time

	mu       sync.Mutex // Protects inFlight
	inFlight bool
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithLogger sets the session logger
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithConversation starts the session from an existing conversation
func WithConversation(conv *conversation.Conversation) SessionOption {
	return func(s *Session) {
		if conv != nil {
			s.conv = conv
		}
	}
}

// NewSession creates a session with an empty conversation and a fresh ID
func NewSession(fetcher Fetcher, opts ...SessionOption) *Session {
	s := &Session{
		id:      uuid.NewString(),
		fetcher: fetcher,
		conv:    conversation.New(),
		logger:  slog.Default(),
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session", s.id)
	return s
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// StartedAt returns when the session was created
func (s *Session) StartedAt() time.Time {
	return s.started
}

// Conversation returns the conversation the session appends to
func (s *Session) Conversation() *conversation.Conversation {
	return s.conv
}

// InFlight reports whether an exchange is running
func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Send appends text as a user turn and fetches the reply. Blank text returns
// ErrEmptyPrompt without touching the conversation or the network.
//
// On failure the user turn stays in the conversation with no reply and the
// error is returned; Retry can re-issue it.
func (s *Session) Send(ctx context.Context, text string, streaming bool, onPartial func(string)) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apierrors.ErrEmptyPrompt
	}

	if !s.begin() {
		return "", apierrors.ErrExchangeInFlight
	}
	defer s.end()

	s.conv.AppendUser(text)
	return s.exchange(ctx, streaming, onPartial)
}

// Retry re-issues the request for a trailing user turn that never got a
// reply. The turn is not appended again.
func (s *Session) Retry(ctx context.Context, streaming bool, onPartial func(string)) (string, error) {
	if !s.begin() {
		return "", apierrors.ErrExchangeInFlight
	}
	defer s.end()

	if !s.conv.PendingUser() {
		return "", apierrors.ErrNothingToRetry
	}
	return s.exchange(ctx, streaming, onPartial)
}

// Reset clears the conversation. Callers confirm with the user first.
func (s *Session) Reset() error {
	if !s.begin() {
		return apierrors.ErrExchangeInFlight
	}
	defer s.end()

	s.conv.Reset()
	s.logger.Info("conversation cleared")
	return nil
}

func (s *Session) exchange(ctx context.Context, streaming bool, onPartial func(string)) (string, error) {
	snapshot := s.conv.Snapshot()
	start := time.Now()

	reply, err := s.fetcher.FetchReply(ctx, snapshot, streaming, onPartial)
	if err != nil {
		s.logger.Error("exchange failed",
			"error", err,
			"status", apierrors.GetHTTPStatus(err),
			"turns", len(snapshot))
		return "", err
	}

	s.conv.AppendAssistant(reply)
	s.logger.Info("exchange complete",
		"turns", s.conv.Len(),
		"reply_len", len(reply),
		"duration", time.Since(start))
	return reply, nil
}

func (s *Session) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return false
	}
	s.inFlight = true
	return true
}

func (s *Session) end() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}
