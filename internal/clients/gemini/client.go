// Package gemini is a thin client for the Google Gemini API.
package gemini

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/aristath/folio/internal/domain"
)

// DefaultModel is used when no model is configured
const DefaultModel = "gemini-2.5-flash"

// Client wraps the genai client. Every request passes through the shared
// rate gate, the same one that gates quote calls.
type Client struct {
	client *genai.Client
	model  string
	gate   domain.RateGate
	log    zerolog.Logger
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, apiKey, model string, gate domain.RateGate, log zerolog.Logger) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if model == "" {
		model = DefaultModel
	}

	return &Client{
		client: genaiClient,
		model:  model,
		gate:   gate,
		log:    log.With().Str("client", "gemini").Logger(),
	}, nil
}

// GenerateContent generates text from a prompt
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	c.gate.Acquire()

	c.log.Debug().Str("model", c.model).Int("prompt_len", len(prompt)).Msg("Generating content")

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return extractText(result)
}

// extractText pulls the text parts out of a response
func extractText(result *genai.GenerateContentResponse) (string, error) {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	text := ""
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}

	return text, nil
}
