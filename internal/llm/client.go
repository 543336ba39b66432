// Package llm wraps the external reasoning service behind a narrow
// capability interface: chat, vision chat, web-search chat, and audio
// transcription.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/scdesign/factcheck/internal/model"
)

// ErrNoCredential signals that neither a caller-supplied key nor a
// server default was available. Callers short-circuit without making
// any network call.
var ErrNoCredential = errors.New("no API credential available")

// Capability is the reasoning-service surface the pipeline depends on
type Capability interface {
	// Chat sends a plain text completion request to the fact-check model
	Chat(ctx context.Context, system, user string) (string, error)

	// ChatImage sends a multimodal request to the image-analysis model.
	// imageURL is a base64 data URL.
	ChatImage(ctx context.Context, system, user, imageURL string) (string, error)

	// ChatSearch sends a request to the web-search-capable model
	ChatSearch(ctx context.Context, system, user string) (string, error)

	// Transcribe converts the audio file at path into text plus the
	// language reported by the transcription model
	Transcribe(ctx context.Context, path string) (text, language string, err error)

	// Models reports the configured model identifiers
	Models() model.ModelsUsed
}

// ResolveKey picks the caller-supplied credential when present, else
// the server default
func ResolveKey(callerKey, serverKey string) string {
	if callerKey != "" {
		return callerKey
	}
	return serverKey
}

// Client implements Capability against the OpenAI API
type Client struct {
	api       *openai.Client
	models    model.ModelsConfig
	webSearch model.WebSearchConfig
	maxTokens int
}

// NewClient creates a client bound to one resolved credential
func NewClient(apiKey string, cfg *model.Config) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoCredential
	}
	return &Client{
		api:       openai.NewClient(apiKey),
		models:    cfg.Models,
		webSearch: cfg.WebSearch,
		maxTokens: cfg.Verify.MaxTokens,
	}, nil
}

// Models reports the configured model identifiers
func (c *Client) Models() model.ModelsUsed {
	return model.ModelsUsed{
		Transcription: c.models.Transcription,
		FactCheck:     c.models.FactCheck,
		ImageAnalysis: c.models.ImageAnalysis,
		WebSearch:     c.models.WebSearch,
	}
}

// Chat sends a plain completion request to the fact-check model
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.models.FactCheck,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.models.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	return firstChoice(resp)
}

// ChatImage sends a multimodal request to the image-analysis model
func (c *Client) ChatImage(ctx context.Context, system, user, imageURL string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.models.ImageAnalysis,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: user},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: imageURL},
					},
				},
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.models.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("image completion: %w", err)
	}
	return firstChoice(resp)
}

// ChatSearch sends a request to the web-search-capable model.
// Search models reject sampling parameters, so no temperature is set.
func (c *Client) ChatSearch(ctx context.Context, system, user string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.models.WebSearch,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:        c.maxTokens,
		WebSearchOptions: &openai.WebSearchOptions{SearchContextSize: c.contextSize()},
	})
	if err != nil {
		return "", fmt.Errorf("search completion: %w", err)
	}
	return firstChoice(resp)
}

func (c *Client) contextSize() openai.WebSearchContextSize {
	switch strings.ToLower(c.webSearch.ContextSize) {
	case "low":
		return openai.WebSearchContextSizeLow
	case "high":
		return openai.WebSearchContextSizeHigh
	default:
		return openai.WebSearchContextSizeMedium
	}
}

// Transcribe converts an audio file into text. The verbose response
// format carries the language the model detected.
func (c *Client) Transcribe(ctx context.Context, path string) (string, string, error) {
	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.models.Transcription,
		FilePath: path,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return "", "", fmt.Errorf("transcription: %w", err)
	}
	return strings.TrimSpace(resp.Text), resp.Language, nil
}

// Ping verifies the credential with a lightweight models listing
func (c *Client) Ping(ctx context.Context) bool {
	if _, err := c.api.ListModels(ctx); err != nil {
		slog.Debug("credential check failed", "error", err)
		return false
	}
	return true
}

func firstChoice(resp openai.ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from model")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
