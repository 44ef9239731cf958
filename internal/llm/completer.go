// Package llm talks to the text-generation endpoints used to infer form
// schemas and field mappings.
package llm

import (
	"context"

	"github.com/rotisserie/eris"
)

// ErrNoChoices is returned when an endpoint answers without any completion.
var ErrNoChoices = eris.New("completion response has no choices")

// Completer sends a single user prompt and returns the raw reply text.
// Implementations ask the endpoint for a JSON object reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
