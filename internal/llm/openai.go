package llm

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is the fallback model.
const DefaultOpenAIModel = "gpt-4-turbo"

// OpenAIOption configures an OpenAIClient.
type OpenAIOption func(*openAIOptions)

type openAIOptions struct {
	baseURL string
	model   string
	timeout time.Duration
}

// WithOpenAIBaseURL overrides the API base URL.
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(o *openAIOptions) { o.baseURL = url }
}

// WithOpenAIModel overrides the model name.
func WithOpenAIModel(model string) OpenAIOption {
	return func(o *openAIOptions) {
		if model != "" {
			o.model = model
		}
	}
}

// WithOpenAITimeout sets the per-request HTTP timeout.
func WithOpenAITimeout(d time.Duration) OpenAIOption {
	return func(o *openAIOptions) { o.timeout = d }
}

// OpenAIClient is the fallback endpoint.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a client authenticated with apiKey.
func NewOpenAIClient(apiKey string, opts ...OpenAIOption) *OpenAIClient {
	o := openAIOptions{model: DefaultOpenAIModel, timeout: 60 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := openai.DefaultConfig(apiKey)
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: o.timeout}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  o.model,
	}
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string { return c.model }

// Complete implements Completer.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "openai: create chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", eris.Wrap(ErrNoChoices, "openai")
	}
	return resp.Choices[0].Message.Content, nil
}
