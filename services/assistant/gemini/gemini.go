// Package gemini adapts Google's genai client to the assistant model boundary
package gemini

import (
	"context"
	"fmt"
	"iter"

	"droidfolio/services/assistant"

	"google.golang.org/genai"
)

// DefaultModel is used when no model name is configured
const DefaultModel = "gemini-2.5-flash"

type Model struct {
	client *genai.Client
	model  string
}

// New creates a Gemini API client for model
func New(ctx context.Context, apiKey, model string) (*Model, error) {
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Model{client: client, model: model}, nil
}

func (m *Model) StartChat(ctx context.Context, systemInstruction string) (assistant.Conversation, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	}

	chat, err := m.client.Chats.Create(ctx, m.model, cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	return &conversation{chat: chat}, nil
}

func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

type conversation struct {
	chat *genai.Chat
}

func (c *conversation) SendStream(ctx context.Context, p assistant.Payload) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for resp, err := range c.chat.SendMessageStream(ctx, toParts(p)...) {
			if err != nil {
				yield("", err)
				return
			}
			if !yield(resp.Text(), nil) {
				return
			}
		}
	}
}

func toParts(p assistant.Payload) []genai.Part {
	if p.IsText() {
		return []genai.Part{{Text: p.Text}}
	}

	parts := make([]genai.Part, 0, len(p.Parts))
	for _, part := range p.Parts {
		if part.InlineData != nil {
			parts = append(parts, genai.Part{InlineData: &genai.Blob{
				MIMEType: part.InlineData.MIMEType,
				Data:     part.InlineData.Data,
			}})
			continue
		}
		parts = append(parts, genai.Part{Text: part.Text})
	}
	return parts
}
