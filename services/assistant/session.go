// Package assistant wraps a generative model as the portfolio's chat
// assistant: it primes the model with the current projects, relays streamed
// replies and substitutes a canned reply when the model fails.
package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"droidfolio/apperrors"
	"droidfolio/pkg/breaker"
	"droidfolio/pkg/logger"
	"droidfolio/pkg/metrics"
	"droidfolio/services/content"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one entry of the in-memory transcript
type Message struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Text  string `json:"text"`
	Image string `json:"image,omitempty"` // data URL
}

var welcome = Message{ID: "welcome", Role: RoleModel, Text: WelcomeMessage}

// ProjectLister supplies the project snapshot for the system instruction
type ProjectLister interface {
	Projects(ctx context.Context) ([]content.Project, error)
}

type Options struct {
	MaxImageBytes    int64
	AllowedMIMETypes []string

	// Breaker guards model calls. Sessions normally share one so a failing
	// service trips it for everybody.
	Breaker *gobreaker.CircuitBreaker
}

// NewBreaker returns the breaker sessions and description generation share
func NewBreaker() *gobreaker.CircuitBreaker {
	return breaker.New(breaker.Config{
		Name:        "gemini",
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		MinRequests: 5,
		Threshold:   0.6,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// Session is one visitor's chat. It allows a single turn in flight.
type Session struct {
	model    Model
	projects ProjectLister
	opts     Options
	log      *logger.Logger

	busy atomic.Bool

	mu          sync.Mutex
	conv        Conversation
	instruction string
	transcript  []Message
	generation  uint64
}

// NewSession snapshots the projects and opens a conversation
func NewSession(ctx context.Context, projects ProjectLister, model Model, opts Options) (*Session, error) {
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = DefaultMaxImageBytes
	}
	if len(opts.AllowedMIMETypes) == 0 {
		opts.AllowedMIMETypes = DefaultImageTypes
	}
	if opts.Breaker == nil {
		opts.Breaker = NewBreaker()
	}

	s := &Session{
		model:    model,
		projects: projects,
		opts:     opts,
		log:      logger.WithField("component", "assistant"),
	}
	if err := s.Reset(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset discards the conversation and transcript and starts over with a
// fresh project snapshot. A turn still streaming is orphaned.
func (s *Session) Reset(ctx context.Context) error {
	projects, err := s.projects.Projects(ctx)
	if err != nil {
		return err
	}
	instruction := SystemInstruction(projects)

	conv, err := s.startChat(ctx, instruction)
	if err != nil {
		// Retried on the next turn; that turn gets the fallback if it fails again
		s.log.WithError(err).Warn("Failed to start chat conversation")
	}

	s.mu.Lock()
	s.conv = conv
	s.instruction = instruction
	s.transcript = []Message{welcome}
	s.generation++
	s.mu.Unlock()
	return nil
}

func (s *Session) startChat(ctx context.Context, instruction string) (Conversation, error) {
	return breaker.ExecuteCtx(ctx, s.opts.Breaker, func(ctx context.Context) (Conversation, error) {
		return s.model.StartChat(ctx, instruction)
	})
}

// Transcript returns a copy of the conversation so far
func (s *Session) Transcript() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.transcript...)
}

// Busy reports whether a turn is in flight
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// Send runs one turn. onDelta, if set, receives the accumulated reply text
// after every streamed fragment. On model failure the fallback message is
// recorded and returned together with an EXTERNAL_SERVICE_FAILURE error.
// If ctx ends mid-turn the partial reply is dropped and ctx.Err() returned.
func (s *Session) Send(ctx context.Context, text, imageDataURL string, onDelta func(string)) (Message, error) {
	if strings.TrimSpace(text) == "" && imageDataURL == "" {
		metrics.RecordChatTurn("rejected", 0)
		return Message{}, apperrors.NewMessageEmpty()
	}

	if !s.busy.CompareAndSwap(false, true) {
		metrics.RecordChatTurn("rejected", 0)
		return Message{}, apperrors.NewTurnInFlight()
	}
	defer s.busy.Store(false)

	payload, err := s.buildPayload(text, imageDataURL)
	if err != nil {
		metrics.RecordChatTurn("rejected", 0)
		return Message{}, err
	}

	s.mu.Lock()
	gen := s.generation
	conv := s.conv
	instruction := s.instruction
	s.transcript = append(s.transcript, Message{ID: uuid.NewString(), Role: RoleUser, Text: text, Image: imageDataURL})
	s.mu.Unlock()

	start := time.Now()
	reply, err := breaker.ExecuteCtx(ctx, s.opts.Breaker, func(ctx context.Context) (string, error) {
		if conv == nil {
			c, err := s.model.StartChat(ctx, instruction)
			if err != nil {
				return "", err
			}
			conv = c
			s.mu.Lock()
			if s.generation == gen {
				s.conv = c
			}
			s.mu.Unlock()
		}
		return s.stream(ctx, conv, payload, onDelta)
	})

	if ctx.Err() != nil {
		metrics.RecordChatTurn("cancelled", time.Since(start).Seconds())
		return Message{}, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		metrics.RecordChatTurn("fallback", time.Since(start).Seconds())
		s.log.WithError(err).Error("Chat turn failed")

		if reply != "" && s.generation == gen {
			s.transcript = append(s.transcript, Message{ID: uuid.NewString(), Role: RoleModel, Text: reply})
		}
		fallback := Message{ID: uuid.NewString(), Role: RoleModel, Text: FallbackMessage}
		if s.generation == gen {
			s.transcript = append(s.transcript, fallback)
		}
		return fallback, apperrors.NewExternalServiceFailure("gemini", err)
	}

	metrics.RecordChatTurn("success", time.Since(start).Seconds())
	msg := Message{ID: uuid.NewString(), Role: RoleModel, Text: reply}
	if s.generation == gen {
		s.transcript = append(s.transcript, msg)
	}
	return msg, nil
}

// stream drains one reply. On error it still returns what arrived so far.
func (s *Session) stream(ctx context.Context, conv Conversation, p Payload, onDelta func(string)) (string, error) {
	var full strings.Builder
	for delta, err := range conv.SendStream(ctx, p) {
		if err != nil {
			return full.String(), err
		}
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		metrics.IncrementChatDeltas()
		if onDelta != nil {
			onDelta(full.String())
		}
	}
	return full.String(), ctx.Err()
}

func (s *Session) buildPayload(text, imageDataURL string) (Payload, error) {
	if imageDataURL == "" {
		return Payload{Text: text}, nil
	}

	blob, err := decodeDataURL(imageDataURL, s.opts.AllowedMIMETypes, s.opts.MaxImageBytes)
	if err != nil {
		return Payload{}, err
	}

	parts := make([]Part, 0, 2)
	if text != "" {
		parts = append(parts, Part{Text: text})
	}
	parts = append(parts, Part{InlineData: blob})
	return Payload{Parts: parts}, nil
}
