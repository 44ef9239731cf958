package llm

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-pdf-form-filler/internal/resilience"
)

// Client runs a prompt against the primary endpoint with retries, then
// makes exactly one attempt on the fallback endpoint.
type Client struct {
	primary  Completer
	fallback Completer
	retry    resilience.RetryConfig
	logger   *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRetry replaces the primary retry policy.
func WithRetry(cfg resilience.RetryConfig) ClientOption {
	return func(c *Client) { c.retry = cfg }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates an inference client. fallback may be nil, in which
// case the primary's last error is returned.
func NewClient(primary, fallback Completer, opts ...ClientOption) *Client {
	c := &Client{
		primary:  primary,
		fallback: fallback,
		retry:    resilience.DefaultRetryConfig(),
		logger:   zap.L(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Infer returns the raw reply text for prompt.
func (c *Client) Infer(ctx context.Context, prompt string) (string, error) {
	cfg := c.retry
	cfg.OnRetry = resilience.RetryLogger(c.logger, "primary inference")

	out, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (string, error) {
		return c.primary.Complete(ctx, prompt)
	})
	if err == nil {
		return out, nil
	}
	c.logger.Error("primary inference failed", zap.Error(err))

	if c.fallback == nil {
		return "", eris.Wrap(err, "primary inference failed")
	}

	out, err = c.fallback.Complete(ctx, prompt)
	if err != nil {
		c.logger.Error("fallback inference failed", zap.Error(err))
		return "", eris.Wrap(err, "fallback inference failed")
	}
	return out, nil
}
