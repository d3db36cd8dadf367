package assistant

import (
	"context"
	"errors"
	"iter"
)

// Model is the generative AI boundary
type Model interface {
	// StartChat opens a conversation primed with systemInstruction
	StartChat(ctx context.Context, systemInstruction string) (Conversation, error)
	// Generate runs a single stateless prompt
	Generate(ctx context.Context, prompt string) (string, error)
}

// Conversation is one stateful chat with the model
type Conversation interface {
	// SendStream sends p and yields the reply's text fragments in arrival
	// order. A non-nil error ends the stream.
	SendStream(ctx context.Context, p Payload) iter.Seq2[string, error]
}

// Payload is either a bare text message or a list of parts
type Payload struct {
	Text  string
	Parts []Part
}

// IsText reports whether the payload is a bare string
func (p Payload) IsText() bool {
	return len(p.Parts) == 0
}

// Part holds exactly one of Text or InlineData
type Part struct {
	Text       string
	InlineData *Blob
}

type Blob struct {
	MIMEType string
	Data     []byte
}

// ErrModelUnavailable is returned by the placeholder model used when no API
// key is configured
var ErrModelUnavailable = errors.New("assistant: generative model not configured")

type unavailableModel struct{}

// Unavailable returns a Model whose every call fails, so chats fall back to
// the canned reply instead of the server refusing to start.
func Unavailable() Model {
	return unavailableModel{}
}

func (unavailableModel) StartChat(ctx context.Context, systemInstruction string) (Conversation, error) {
	return nil, ErrModelUnavailable
}

func (unavailableModel) Generate(ctx context.Context, prompt string) (string, error) {
	return "", ErrModelUnavailable
}
