package sentiment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/keywatch/internal/model"
)

// OpenAI scores sentiment with an OpenAI compatible chat model
type OpenAI struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAI creates an OpenAI analyzer
func NewOpenAI(cfg model.SentimentConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required (set KEYWATCH_SENTIMENT_API_KEY)")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	m := cfg.Model
	if m == "" {
		m = openai.GPT4oMini
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &OpenAI{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   m,
		timeout: timeout,
	}, nil
}

// Name returns the provider name
func (*OpenAI) Name() string { return "openai" }

// Score asks the model for a polarity
func (p *OpenAI) Score(ctx context.Context, text string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(text)},
		},
		MaxTokens:   8,
		Temperature: 0,
	})
	if err != nil {
		return 0, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return 0, errors.New("no response from OpenAI")
	}

	return parseScore(strings.TrimSpace(resp.Choices[0].Message.Content))
}
