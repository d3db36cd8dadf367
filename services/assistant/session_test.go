package assistant

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"iter"
	"sync"
	"testing"
	"time"

	"droidfolio/apperrors"
	"droidfolio/services/content"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedModel replays fixed fragments and records what it was sent
type scriptedModel struct {
	mu           sync.Mutex
	instructions []string
	payloads     []Payload

	deltas   []string
	err      error         // returned after deltas
	startErr error         // returned by StartChat
	gate     chan struct{} // when set, streaming waits for it to close
}

func (m *scriptedModel) StartChat(ctx context.Context, instruction string) (Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return nil, m.startErr
	}
	m.instructions = append(m.instructions, instruction)
	return &scriptedConversation{model: m}, nil
}

func (m *scriptedModel) Generate(ctx context.Context, prompt string) (string, error) {
	return "", errors.New("not scripted")
}

func (m *scriptedModel) sent() []Payload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Payload(nil), m.payloads...)
}

type scriptedConversation struct {
	model *scriptedModel
}

func (c *scriptedConversation) SendStream(ctx context.Context, p Payload) iter.Seq2[string, error] {
	c.model.mu.Lock()
	c.model.payloads = append(c.model.payloads, p)
	deltas, err, gate := c.model.deltas, c.model.err, c.model.gate
	c.model.mu.Unlock()

	return func(yield func(string, error) bool) {
		if gate != nil {
			select {
			case <-gate:
			case <-ctx.Done():
				yield("", ctx.Err())
				return
			}
		}
		for _, d := range deltas {
			if !yield(d, nil) {
				return
			}
		}
		if err != nil {
			yield("", err)
		}
	}
}

type staticProjects struct {
	mu       sync.Mutex
	projects []content.Project
}

func (s *staticProjects) Projects(ctx context.Context) ([]content.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]content.Project(nil), s.projects...), nil
}

func (s *staticProjects) set(p []content.Project) {
	s.mu.Lock()
	s.projects = p
	s.mu.Unlock()
}

func sampleProjects() []content.Project {
	return []content.Project{
		{ID: "1", Title: "E-Commerce Dashboard", Description: "Admin dashboard.", TechStack: []string{"React", "TypeScript"}, GithubURL: "https://github.com", PlayStoreURL: "https://vercel.com"},
		{ID: "3", Title: "Task Master", Description: "Task manager.", TechStack: []string{"Node.js"}, PlayStoreURL: "https://vercel.com"},
	}
}

func newSession(t *testing.T, m *scriptedModel) (*Session, *staticProjects) {
	t.Helper()
	lister := &staticProjects{projects: sampleProjects()}
	s, err := NewSession(context.Background(), lister, m, Options{})
	require.NoError(t, err)
	return s, lister
}

func pngDataURL(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 61, G: 220, B: 132, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestNewSessionStartsWithWelcome(t *testing.T) {
	m := &scriptedModel{}
	s, _ := newSession(t, m)

	transcript := s.Transcript()
	require.Len(t, transcript, 1)
	assert.Equal(t, RoleModel, transcript[0].Role)
	assert.Equal(t, WelcomeMessage, transcript[0].Text)

	require.Len(t, m.instructions, 1)
	instruction := m.instructions[0]
	assert.Contains(t, instruction, `named "Rabin Adhikari"`)
	assert.Contains(t, instruction, "- Project Name: E-Commerce Dashboard")
	assert.Contains(t, instruction, "- Tech Stack: React, TypeScript")
	assert.Contains(t, instruction, "- Links: Demo/Site available GitHub available")
	assert.Contains(t, instruction, "4. STORY MODE")
	assert.Contains(t, instruction, "5. IMAGE INPUT")
}

func TestSendEmptyNeverCallsModel(t *testing.T) {
	m := &scriptedModel{deltas: []string{"x"}}
	s, _ := newSession(t, m)

	_, err := s.Send(context.Background(), "   ", "", nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeMessageEmpty))
	assert.Empty(t, m.sent())
	assert.Len(t, s.Transcript(), 1)
}

func TestSendTextOnlyIsBareString(t *testing.T) {
	m := &scriptedModel{deltas: []string{"Hi"}}
	s, _ := newSession(t, m)

	_, err := s.Send(context.Background(), "What is Task Master?", "", nil)
	require.NoError(t, err)

	sent := m.sent()
	require.Len(t, sent, 1)
	assert.True(t, sent[0].IsText())
	assert.Equal(t, "What is Task Master?", sent[0].Text)
}

func TestSendImageOnlyIsSingleInlinePart(t *testing.T) {
	m := &scriptedModel{deltas: []string{"Nice UI"}}
	s, _ := newSession(t, m)

	_, err := s.Send(context.Background(), "", pngDataURL(t), nil)
	require.NoError(t, err)

	sent := m.sent()
	require.Len(t, sent, 1)
	require.Len(t, sent[0].Parts, 1)
	require.NotNil(t, sent[0].Parts[0].InlineData)
	assert.Equal(t, "image/png", sent[0].Parts[0].InlineData.MIMEType)
	assert.NotEmpty(t, sent[0].Parts[0].InlineData.Data)
}

func TestSendTextAndImageIsTwoParts(t *testing.T) {
	m := &scriptedModel{deltas: []string{"ok"}}
	s, _ := newSession(t, m)

	_, err := s.Send(context.Background(), "Feedback?", pngDataURL(t), nil)
	require.NoError(t, err)

	parts := m.sent()[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, "Feedback?", parts[0].Text)
	assert.Nil(t, parts[0].InlineData)
	require.NotNil(t, parts[1].InlineData)

	transcript := s.Transcript()
	assert.Equal(t, pngDataURL(t), transcript[1].Image)
}

func TestSendAccumulatesDeltasInOrder(t *testing.T) {
	m := &scriptedModel{deltas: []string{"Hel", "lo", "", " world"}}
	s, _ := newSession(t, m)

	var seen []string
	reply, err := s.Send(context.Background(), "hi", "", func(text string) {
		seen = append(seen, text)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Hel", "Hello", "Hello world"}, seen)
	assert.Equal(t, "Hello world", reply.Text)
	assert.Equal(t, RoleModel, reply.Role)

	transcript := s.Transcript()
	require.Len(t, transcript, 3)
	assert.Equal(t, RoleUser, transcript[1].Role)
	assert.Equal(t, "hi", transcript[1].Text)
	assert.Equal(t, reply, transcript[2])
}

func TestSendFailureYieldsFallback(t *testing.T) {
	m := &scriptedModel{err: errors.New("connection reset")}
	s, _ := newSession(t, m)

	reply, err := s.Send(context.Background(), "hi", "", nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeExternalService))
	assert.Equal(t, FallbackMessage, reply.Text)

	transcript := s.Transcript()
	require.Len(t, transcript, 3)
	assert.Equal(t, FallbackMessage, transcript[2].Text)
	assert.False(t, s.Busy())
}

func TestMidStreamFailureKeepsPartialReply(t *testing.T) {
	m := &scriptedModel{deltas: []string{"Once upon"}, err: errors.New("stream broken")}
	s, _ := newSession(t, m)

	_, err := s.Send(context.Background(), StoryPrompt, "", nil)
	require.Error(t, err)

	transcript := s.Transcript()
	require.Len(t, transcript, 4)
	assert.Equal(t, "Once upon", transcript[2].Text)
	assert.Equal(t, FallbackMessage, transcript[3].Text)
}

func TestUnavailableModelFallsBack(t *testing.T) {
	s, err := NewSession(context.Background(), &staticProjects{}, Unavailable(), Options{})
	require.NoError(t, err)

	reply, err := s.Send(context.Background(), "hi", "", nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeExternalService))
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.Equal(t, FallbackMessage, reply.Text)
}

func TestStartChatIsRetriedOnNextTurn(t *testing.T) {
	m := &scriptedModel{startErr: errors.New("offline"), deltas: []string{"back"}}
	s, _ := newSession(t, m)

	m.mu.Lock()
	m.startErr = nil
	m.mu.Unlock()

	reply, err := s.Send(context.Background(), "hi", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "back", reply.Text)
	assert.Len(t, m.instructions, 1)
}

func TestResetResnapshotsProjects(t *testing.T) {
	m := &scriptedModel{deltas: []string{"a"}}
	s, lister := newSession(t, m)

	_, err := s.Send(context.Background(), "hi", "", nil)
	require.NoError(t, err)

	lister.set([]content.Project{{ID: "9", Title: "Portfolio API", Description: "Go backend", TechStack: []string{"Go"}}})
	require.NoError(t, s.Reset(context.Background()))

	assert.Equal(t, []Message{welcome}, s.Transcript())
	require.Len(t, m.instructions, 2)
	assert.Contains(t, m.instructions[1], "Portfolio API")
	assert.NotContains(t, m.instructions[1], "Task Master")
}

func TestConcurrentTurnIsRejected(t *testing.T) {
	gate := make(chan struct{})
	m := &scriptedModel{deltas: []string{"slow"}, gate: gate}
	s, _ := newSession(t, m)

	done := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), "first", "", nil)
		done <- err
	}()

	require.Eventually(t, s.Busy, time.Second, 5*time.Millisecond)

	_, err := s.Send(context.Background(), "second", "", nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeTurnInFlight))

	close(gate)
	require.NoError(t, <-done)
	assert.Len(t, m.sent(), 1)
}

func TestCancelledTurnIsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	m := &scriptedModel{deltas: []string{"never"}, gate: gate}
	s, _ := newSession(t, m)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := s.Send(ctx, "hi", "", nil)
		done <- err
	}()

	require.Eventually(t, s.Busy, time.Second, 5*time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	transcript := s.Transcript()
	require.Len(t, transcript, 2, "only the user message is kept")
	assert.Equal(t, RoleUser, transcript[1].Role)
}

func TestResetDuringTurnOrphansReply(t *testing.T) {
	gate := make(chan struct{})
	m := &scriptedModel{deltas: []string{"late"}, gate: gate}
	s, _ := newSession(t, m)

	done := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), "hi", "", nil)
		done <- err
	}()
	require.Eventually(t, s.Busy, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Reset(context.Background()))
	close(gate)
	require.NoError(t, <-done)

	assert.Equal(t, []Message{welcome}, s.Transcript())
}

func TestSendRejectsInvalidImages(t *testing.T) {
	m := &scriptedModel{deltas: []string{"x"}}
	lister := &staticProjects{}
	s, err := NewSession(context.Background(), lister, m, Options{MaxImageBytes: 64})
	require.NoError(t, err)

	valid := pngDataURL(t)
	big := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for i := range big.Pix {
		big.Pix[i] = byte(i * 7)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, big))
	tooLarge := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	tests := []struct {
		name string
		url  string
	}{
		{"not a data url", "https://example.com/a.png"},
		{"not base64", "data:image/png,rawbytes"},
		{"unsupported type", "data:image/bmp;base64,Qk0="},
		{"garbage bytes", "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("not an image"))},
		{"declared type mismatch", "data:image/jpeg;base64," + valid[len("data:image/png;base64,"):]},
		{"too large", tooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Send(context.Background(), "look", tt.url, nil)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidImage), "got %v", err)
		})
	}

	assert.Empty(t, m.sent())
	assert.Len(t, s.Transcript(), 1)
}

func TestTranscriptIsACopy(t *testing.T) {
	s, _ := newSession(t, &scriptedModel{})
	tr := s.Transcript()
	tr[0].Text = "mutated"
	assert.Equal(t, WelcomeMessage, s.Transcript()[0].Text)
}
