package filler

import (
	"fmt"
)

// DefaultPromptCharLimit is how many characters of document text a prompt
// may embed.
const DefaultPromptCharLimit = 15000

const schemaPromptTemplate = `Analyze the structure of this PDF form and list its fillable fields.

FORM TEXT:
%s

Respond with a JSON object containing:
- "fields": an array of field objects, each with
  * "name": the field name or label
  * "type": one of text, date, number
  * "description": what the field asks for
  * "context_clues": an array of nearby words that identify the field`

const mappingPromptTemplate = `Match the donor data below to the form fields described by the schema.

FORM SCHEMA:
%s

DONOR DATA:
%s

Respond with a JSON object containing:
- "mappings": an array of objects, each with
  * "field_name": a field name from the schema
  * "value": the value to enter
  * "source_text": the donor text the value came from
  * "confidence": a number between 0 and 1`

// truncate returns at most limit characters of s. A non-positive limit
// keeps s whole.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

func schemaPrompt(formText string, limit int) string {
	return fmt.Sprintf(schemaPromptTemplate, truncate(formText, limit))
}

func mappingPrompt(schemaJSON, donorText string, limit int) string {
	return fmt.Sprintf(mappingPromptTemplate, schemaJSON, truncate(donorText, limit))
}
