package filler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{name: "shorter than limit", in: "abc", limit: 5, want: "abc"},
		{name: "exact", in: "abcde", limit: 5, want: "abcde"},
		{name: "cut", in: "abcdef", limit: 5, want: "abcde"},
		{name: "multibyte counted as characters", in: "ééééé", limit: 3, want: "ééé"},
		{name: "empty", in: "", limit: 5, want: ""},
		{name: "no limit", in: "abc", limit: 0, want: "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncate(tt.in, tt.limit))
		})
	}
}

func TestSchemaPrompt_EmbedsAtMostLimit(t *testing.T) {
	base := strings.Count(schemaPrompt("", DefaultPromptCharLimit), "Q")
	text := strings.Repeat("Q", DefaultPromptCharLimit) + strings.Repeat("#", 100)

	prompt := schemaPrompt(text, DefaultPromptCharLimit)

	assert.Equal(t, base+DefaultPromptCharLimit, strings.Count(prompt, "Q"))
	assert.NotContains(t, prompt, "#")
}

func TestMappingPrompt_EmbedsSchemaAndTruncatedDonorText(t *testing.T) {
	schemaJSON := `{"fields":[{"name":"full_name"}]}`
	base := strings.Count(mappingPrompt(schemaJSON, "", DefaultPromptCharLimit), "Q")
	donor := strings.Repeat("Q", DefaultPromptCharLimit+1)

	prompt := mappingPrompt(schemaJSON, donor, DefaultPromptCharLimit)

	assert.Contains(t, prompt, schemaJSON)
	assert.Equal(t, base+DefaultPromptCharLimit, strings.Count(prompt, "Q"))
	assert.Contains(t, prompt, `"mappings"`)
}

func TestSchemaPrompt_ShortTextUnchanged(t *testing.T) {
	prompt := schemaPrompt("Name: ____  Date: ____", DefaultPromptCharLimit)
	assert.Contains(t, prompt, "Name: ____  Date: ____")
	assert.Contains(t, prompt, `"fields"`)
	assert.Contains(t, prompt, "context_clues")
}
