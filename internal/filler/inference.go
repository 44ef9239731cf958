package filler

import (
	"context"

	"github.com/rotisserie/eris"
)

// Inferer turns a prompt into raw reply text.
type Inferer interface {
	Infer(ctx context.Context, prompt string) (string, error)
}

// SchemaExtractor asks for the field schema of a form.
type SchemaExtractor struct {
	inferer Inferer
	limit   int
}

// NewSchemaExtractor creates an extractor whose prompts embed at most limit
// characters of form text.
func NewSchemaExtractor(inferer Inferer, limit int) *SchemaExtractor {
	return &SchemaExtractor{inferer: inferer, limit: limit}
}

// ExtractFormFields returns the raw schema reply for the form text.
func (e *SchemaExtractor) ExtractFormFields(ctx context.Context, pdfText string) (string, error) {
	raw, err := e.inferer.Infer(ctx, schemaPrompt(pdfText, e.limit))
	if err != nil {
		return "", eris.Wrap(err, "infer form schema")
	}
	return raw, nil
}

// FieldMapper asks which donor values belong in which form fields.
type FieldMapper struct {
	inferer Inferer
	limit   int
}

// NewFieldMapper creates a mapper whose prompts embed at most limit
// characters of donor text.
func NewFieldMapper(inferer Inferer, limit int) *FieldMapper {
	return &FieldMapper{inferer: inferer, limit: limit}
}

// MapDataToFields returns the raw mapping reply for schema and donor text.
func (m *FieldMapper) MapDataToFields(ctx context.Context, schema *Schema, donorText string) (string, error) {
	raw, err := m.inferer.Infer(ctx, mappingPrompt(schema.JSON(), donorText, m.limit))
	if err != nil {
		return "", eris.Wrap(err, "infer field mappings")
	}
	return raw, nil
}
