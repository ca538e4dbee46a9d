// Package openai provides a genai.Generator backed by any OpenAI-compatible
// chat completions API. The primary (xAI) and secondary (OpenAI) providers
// are both instances of this client with different base URLs.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/ovaphlow/brainvault/service-idea-core/pkg/genai"
)

// Client implements genai.Generator using the OpenAI SDK.
type Client struct {
	name   string
	client oai.Client
	model  string
}

// config holds optional configuration for the client.
type config struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Client.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL. Used to point the
// client at an OpenAI-compatible provider such as xAI.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// New constructs a new generation client.
func New(name, apiKey, model string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s: apiKey must not be empty", name)
	}
	if model == "" {
		return nil, fmt.Errorf("%s: model must not be empty", name)
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	return &Client{name: name, client: oai.NewClient(reqOpts...), model: model}, nil
}

// Name implements genai.Generator.
func (c *Client) Name() string { return c.name }

// Generate implements genai.Generator.
func (c *Client) Generate(ctx context.Context, req genai.Request) (string, error) {
	var messages []oai.ChatCompletionMessageParamUnion
	if req.SystemPrompt != "" {
		messages = append(messages, oai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, oai.UserMessage(req.Prompt))

	params := oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.model),
		Messages: messages,
	}
	if req.Temperature != 0 {
		params.Temperature = param.NewOpt(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(req.MaxTokens)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%s: chat completion: %w", c.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: empty choices in response", c.name)
	}
	return resp.Choices[0].Message.Content, nil
}

// ChainFromEnv builds the generation provider chain from environment
// variables, in priority order: xAI first, then OpenAI. Providers without
// credentials are simply absent; an empty chain means local fallback only.
func ChainFromEnv() []genai.Generator {
	var chain []genai.Generator

	if key := os.Getenv("XAI_API_KEY"); key != "" {
		base := os.Getenv("XAI_API_URL")
		if base == "" {
			base = "https://api.x.ai/v1"
		}
		model := os.Getenv("XAI_MODEL")
		if model == "" {
			model = "llama-3-70b"
		}
		if c, err := New("xai", key, model, WithBaseURL(base), WithTimeout(30*time.Second)); err == nil {
			chain = append(chain, c)
		}
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		model := os.Getenv("OPENAI_MODEL")
		if model == "" {
			model = "gpt-3.5-turbo"
		}
		if c, err := New("openai", key, model, WithTimeout(30*time.Second)); err == nil {
			chain = append(chain, c)
		}
	}

	return chain
}
