package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const (
	DefaultSonarBaseURL = "https://api.perplexity.ai"
	DefaultSonarModel   = "sonar-pro"
)

type sonarRequest struct {
	Model          string          `json:"model"`
	Messages       []sonarMessage  `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type sonarMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type sonarResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Index   int          `json:"index"`
		Message sonarMessage `json:"message"`
	} `json:"choices"`
}

// SonarOption configures a SonarClient.
type SonarOption func(*SonarClient)

// WithSonarBaseURL overrides the API base URL.
func WithSonarBaseURL(url string) SonarOption {
	return func(c *SonarClient) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithSonarModel overrides the model name.
func WithSonarModel(model string) SonarOption {
	return func(c *SonarClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithSonarHTTPClient overrides the HTTP client.
func WithSonarHTTPClient(hc *http.Client) SonarOption {
	return func(c *SonarClient) {
		c.http = hc
	}
}

// SonarClient is the primary endpoint: a Perplexity chat-completions API.
type SonarClient struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

// NewSonarClient creates a client authenticated with apiKey.
func NewSonarClient(apiKey string, opts ...SonarOption) *SonarClient {
	c := &SonarClient{
		apiKey:  apiKey,
		baseURL: DefaultSonarBaseURL,
		model:   DefaultSonarModel,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Model returns the configured model name.
func (c *SonarClient) Model() string { return c.model }

// Complete implements Completer.
func (c *SonarClient) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(sonarRequest{
		Model:          c.model,
		Messages:       []sonarMessage{{Role: "user", Content: prompt}},
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", eris.Wrap(err, "sonar: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", eris.Wrap(err, "sonar: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "sonar: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "sonar: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("sonar: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result sonarResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", eris.Wrap(err, "sonar: unmarshal response")
	}
	if len(result.Choices) == 0 {
		return "", eris.Wrap(ErrNoChoices, "sonar")
	}

	return result.Choices[0].Message.Content, nil
}
