package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/a3tai/mcp-pdf-form-filler/internal/resilience"
)

// scripted fails the first failures calls, then answers reply.
type scripted struct {
	failures int
	reply    string
	calls    int
	prompts  []string
}

func (s *scripted) Complete(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, prompt)
	if s.calls <= s.failures {
		return "", errors.New("endpoint unavailable")
	}
	return s.reply, nil
}

func newTestClient(primary, fallback Completer) (*Client, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	c := NewClient(primary, fallback,
		WithLogger(zap.New(core)),
		WithRetry(resilience.RetryConfig{
			MaxAttempts: 3,
			Backoff:     func(int) time.Duration { return time.Millisecond },
		}),
	)
	return c, logs
}

func TestClient_PrimarySucceedsWithinRetries(t *testing.T) {
	for failures := 0; failures < 3; failures++ {
		primary := &scripted{failures: failures, reply: `{"fields":[]}`}
		fallback := &scripted{reply: `{"from":"fallback"}`}
		c, logs := newTestClient(primary, fallback)

		got, err := c.Infer(context.Background(), "prompt")
		require.NoError(t, err)
		assert.Equal(t, `{"fields":[]}`, got)
		assert.Equal(t, failures+1, primary.calls)
		assert.Zero(t, fallback.calls, "fallback must not be used after %d failures", failures)
		assert.Zero(t, logs.FilterMessage("primary inference failed").Len())
		assert.Equal(t, failures, logs.FilterMessage("retrying operation").Len())
	}
}

func TestClient_FallbackAfterPrimaryExhausted(t *testing.T) {
	primary := &scripted{failures: 3}
	fallback := &scripted{reply: `{"mappings":[]}`}
	c, logs := newTestClient(primary, fallback)

	got, err := c.Infer(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"mappings":[]}`, got)
	assert.Equal(t, 3, primary.calls)
	assert.Equal(t, 1, fallback.calls)
	assert.Equal(t, []string{"prompt"}, fallback.prompts)

	failed := logs.FilterMessage("primary inference failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.ErrorLevel, failed[0].Level)
	assert.Zero(t, logs.FilterMessage("fallback inference failed").Len())
}

func TestClient_BothEndpointsFail(t *testing.T) {
	primary := &scripted{failures: 100}
	fallback := &scripted{failures: 100}
	c, logs := newTestClient(primary, fallback)

	_, err := c.Infer(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fallback inference failed")
	assert.Contains(t, err.Error(), "endpoint unavailable")
	assert.Equal(t, 3, primary.calls)
	assert.Equal(t, 1, fallback.calls)
	assert.Equal(t, 1, logs.FilterMessage("primary inference failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("fallback inference failed").Len())
}

func TestClient_NoFallbackConfigured(t *testing.T) {
	primary := &scripted{failures: 100}
	c, _ := newTestClient(primary, nil)

	_, err := c.Infer(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "primary inference failed")
	assert.Equal(t, 3, primary.calls)
}

func TestCompleterFunc(t *testing.T) {
	var f Completer = CompleterFunc(func(_ context.Context, prompt string) (string, error) {
		return "echo:" + prompt, nil
	})
	got, err := f.Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "echo:hi", got)
}
