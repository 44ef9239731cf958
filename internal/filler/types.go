// Package filler fills PDF forms from donor documents using inferred
// field schemas and field mappings.
package filler

import (
	"github.com/a3tai/mcp-pdf-form-filler/internal/pdf/form"
)

// FieldDescriptor is one field of an inferred form schema. Type is usually
// text, date or number but any string the endpoint returns is kept.
type FieldDescriptor struct {
	Name         string   `json:"name"`
	Type         string   `json:"type,omitempty"`
	Description  string   `json:"description,omitempty"`
	ContextClues []string `json:"context_clues,omitempty"`
}

// FieldMapping assigns a donor value to a form field.
type FieldMapping struct {
	FieldName  string  `json:"field_name"`
	Value      string  `json:"value"`
	SourceText string  `json:"source_text,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Status is the outcome of a pipeline run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// SuccessMessage is the message of every successful run.
const SuccessMessage = "Form processed successfully"

// ProcessingResult reports a pipeline run. Optional members are only set on
// success.
type ProcessingResult struct {
	Status       Status `json:"status"`
	Message      string `json:"message"`
	OutputPath   string `json:"output_path,omitempty"`
	FieldCount   *int   `json:"field_count,omitempty"`
	MappedFields *int   `json:"mapped_fields,omitempty"`
}

// Success builds the result of a completed run.
func Success(outputPath string, fieldCount, mappedFields int) ProcessingResult {
	return ProcessingResult{
		Status:       StatusSuccess,
		Message:      SuccessMessage,
		OutputPath:   outputPath,
		FieldCount:   &fieldCount,
		MappedFields: &mappedFields,
	}
}

// Failure builds the result of a run stopped by err.
func Failure(err error) ProcessingResult {
	return ProcessingResult{
		Status:  StatusError,
		Message: "Failed to process document: " + err.Error(),
	}
}

// Entries converts mappings for the form writer.
func Entries(mappings []FieldMapping) []form.Entry {
	entries := make([]form.Entry, 0, len(mappings))
	for _, m := range mappings {
		entries = append(entries, form.Entry{FieldName: m.FieldName, Value: m.Value})
	}
	return entries
}
