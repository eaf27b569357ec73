// Package generation holds the text generators the court agents speak through.
package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/linesmerrill/ai-court-api/court"
)

// DefaultTemperature keeps the courtroom lines close to the prompt
const DefaultTemperature = 0.3

var errNoChoices = errors.New("completion returned no choices")

// Config selects the OpenAI-compatible endpoint and model
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	HTTPClient  *http.Client
}

// Client generates lines with the chat completions API of any
// OpenAI-compatible service
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
}

// NewClient returns a Client for cfg
func NewClient(cfg Config) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Client{
		api:         openai.NewClientWithConfig(oc),
		model:       model,
		temperature: cfg.Temperature,
	}
}

func systemPrompt(roleHint string) string {
	return fmt.Sprintf("You play the %s in a simulated civil trial. Reply only with the words the %s says in court, "+
		"without narration, headings or analysis.", roleHint, roleHint)
}

func (c *Client) request(prompt, roleHint string, stream bool) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(roleHint)},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
		Stream:      stream,
	}
}

// Generate returns the full completion for prompt
func (c *Client) Generate(ctx context.Context, prompt, roleHint string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, c.request(prompt, roleHint, false))
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateStream returns the completion for prompt as it is produced
func (c *Client) GenerateStream(ctx context.Context, prompt, roleHint string) (court.Stream, error) {
	s, err := c.api.CreateChatCompletionStream(ctx, c.request(prompt, roleHint, true))
	if err != nil {
		return nil, fmt.Errorf("chat completion stream: %w", err)
	}
	return &chatStream{s: s}, nil
}

type chatStream struct {
	s *openai.ChatCompletionStream
}

// Recv skips chunks without choices; io.EOF from the underlying stream is
// passed through unwrapped.
func (cs *chatStream) Recv() (string, error) {
	for {
		resp, err := cs.s.Recv()
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			continue
		}
		return resp.Choices[0].Delta.Content, nil
	}
}

func (cs *chatStream) Close() error {
	cs.s.Close()
	return nil
}
