package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"asknehru/internal/generator"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultKeyEnv  = "OPENAI_API_KEY"
)

// Client is an OpenAI-compatible chat completions client implementing the
// answer generator. It also works against Ollama, LM Studio and similar servers.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	client      *http.Client
}

// Config configures the OpenAI-compatible client.
type Config struct {
	BaseURL     string
	APIKeyEnv   string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	// Ollama-native /api/chat shape
	Message *struct {
		Content string `json:"content"`
	} `json:"message,omitempty"`
}

// NewClient creates a new chat client. An API key is required for the
// hosted OpenAI endpoint only.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = DefaultKeyEnv
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" && cfg.BaseURL == DefaultBaseURL {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      key,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: t},
	}, nil
}

// Name returns the identifier of this generator implementation.
func (c *Client) Name() string { return "openai" }

// Generate answers query from passages through /chat/completions.
func (c *Client) Generate(ctx context.Context, query string, passages []string) (string, error) {
	body := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: generator.BuildPrompt(query, passages)}},
		Temperature: c.temperature,
	}
	headers := map[string]string{}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}
	var out chatResponse
	if err := generator.PostJSON(ctx, c.client, "openai", c.baseURL+"/chat/completions", headers, body, &out); err != nil {
		return "", err
	}
	var text string
	switch {
	case len(out.Choices) > 0:
		text = out.Choices[0].Message.Content
	case out.Message != nil:
		text = out.Message.Content
	default:
		return "", errors.New("openai: no completion returned")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("openai: empty completion")
	}
	return text, nil
}
