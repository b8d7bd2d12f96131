package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/keywatch/internal/model"
	"github.com/ppiankov/keywatch/internal/util"
)

// Ollama scores sentiment with a local Ollama model
type Ollama struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	System  string        `json:"system,omitempty"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type ollamaError struct {
	Error string `json:"error"`
}

// NewOllama creates an Ollama analyzer
func NewOllama(cfg model.SentimentConfig, httpProxy, httpsProxy string) (*Ollama, error) {
	if cfg.Model == "" {
		return nil, errors.New("ollama model must be specified (e.g., llama3.1:8b, mistral)")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &Ollama{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{Proxy: util.NewProxyFunc(httpProxy, httpsProxy)},
		},
	}, nil
}

// Name returns the provider name
func (*Ollama) Name() string { return "ollama" }

// Score asks the model for a polarity
func (p *Ollama) Score(ctx context.Context, text string) (float64, error) {
	body, err := json.Marshal(ollamaRequest{
		Model:   p.model,
		Prompt:  buildPrompt(text),
		System:  systemPrompt,
		Options: ollamaOptions{Temperature: 0, NumPredict: 8},
	})
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("ollama API error: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr ollamaError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			return 0, fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return 0, fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var out ollamaResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return 0, fmt.Errorf("unmarshal response: %w", err)
	}
	return parseScore(out.Response)
}
