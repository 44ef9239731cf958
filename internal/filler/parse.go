package filler

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/a3tai/mcp-pdf-form-filler/internal/pdf/form"
)

var (
	// ErrNotObject is returned when a reply is valid JSON but not an object.
	ErrNotObject = eris.New("reply is not a JSON object")
	// ErrFieldsNotList is returned when a schema's "fields" is not an array.
	ErrFieldsNotList = eris.New(`"fields" is not a list`)
	// ErrMappingsShape is returned when "mappings" is neither an array nor an object.
	ErrMappingsShape = eris.New(`"mappings" is neither a list nor an object`)
)

const formSchemaShape = `{
  "type": "object",
  "required": ["fields"],
  "properties": {
    "fields": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string"},
          "type": {"type": "string"},
          "description": {"type": "string"},
          "context_clues": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

const mappingShape = `{
  "type": "object",
  "required": ["mappings"],
  "properties": {
    "mappings": {
      "type": ["array", "object"],
      "items": {
        "type": "object",
        "required": ["field_name", "value"],
        "properties": {
          "field_name": {"type": "string"},
          "source_text": {"type": "string"},
          "confidence": {"type": "number", "minimum": 0, "maximum": 1}
        }
      }
    }
  }
}`

var (
	formSchemaValidator = jsonschema.MustCompileString("form-schema.json", formSchemaShape)
	mappingValidator    = jsonschema.MustCompileString("field-mappings.json", mappingShape)
)

// Schema is a parsed form schema reply.
type Schema struct {
	Fields []FieldDescriptor
	// ShapeErr is set when the reply does not match the requested shape.
	// It is informational only.
	ShapeErr error

	doc map[string]any
}

// FieldCount is the number of entries in the reply's field list.
func (s *Schema) FieldCount() int { return len(s.Fields) }

// JSON re-serializes the reply as received.
func (s *Schema) JSON() string {
	b, err := json.Marshal(s.doc)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// ParseSchema decodes a schema reply. A missing "fields" key means no fields.
func ParseSchema(raw string) (*Schema, error) {
	doc, err := decodeObject(raw)
	if err != nil {
		return nil, eris.Wrap(err, "parse form schema")
	}

	s := &Schema{doc: doc, ShapeErr: formSchemaValidator.Validate(any(doc))}

	fieldsVal, found := doc["fields"]
	if !found || fieldsVal == nil {
		return s, nil
	}
	list, ok := fieldsVal.([]any)
	if !ok {
		return nil, eris.Wrap(ErrFieldsNotList, "parse form schema")
	}
	s.Fields = make([]FieldDescriptor, 0, len(list))
	for _, item := range list {
		s.Fields = append(s.Fields, descriptorFrom(item))
	}
	return s, nil
}

// MappingSet is a parsed mapping reply.
type MappingSet struct {
	// Data is the "mappings" value as decoded: a list of mapping objects
	// or a flat name to value object.
	Data any
	// Mappings is a typed view of Data for reporting.
	Mappings []FieldMapping
	// ShapeErr is set when the reply does not match the requested shape.
	ShapeErr error
}

// Count is the length of the list or the size of the object.
func (m *MappingSet) Count() int {
	switch d := m.Data.(type) {
	case []any:
		return len(d)
	case map[string]any:
		return len(d)
	default:
		return 0
	}
}

// ParseMappings decodes a mapping reply. A missing "mappings" key means an
// empty list.
func ParseMappings(raw string) (*MappingSet, error) {
	doc, err := decodeObject(raw)
	if err != nil {
		return nil, eris.Wrap(err, "parse field mappings")
	}

	m := &MappingSet{ShapeErr: mappingValidator.Validate(any(doc))}

	switch data := doc["mappings"].(type) {
	case nil:
		m.Data = []any{}
	case []any:
		m.Data = data
		for _, item := range data {
			if obj, ok := item.(map[string]any); ok {
				m.Mappings = append(m.Mappings, mappingFrom(obj))
			}
		}
	case map[string]any:
		m.Data = data
		for name, value := range data {
			m.Mappings = append(m.Mappings, FieldMapping{FieldName: name, Value: form.Stringify(value)})
		}
	default:
		return nil, eris.Wrap(ErrMappingsShape, "parse field mappings")
	}
	return m, nil
}

func decodeObject(raw string) (map[string]any, error) {
	var doc any
	dec := json.NewDecoder(strings.NewReader(raw))
	if err := dec.Decode(&doc); err != nil {
		return nil, eris.Wrap(err, "decode JSON")
	}
	if dec.More() {
		return nil, eris.New("decode JSON: trailing data after object")
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return obj, nil
}

func descriptorFrom(item any) FieldDescriptor {
	obj, ok := item.(map[string]any)
	if !ok {
		return FieldDescriptor{}
	}
	d := FieldDescriptor{
		Name:        stringOf(obj["name"]),
		Type:        stringOf(obj["type"]),
		Description: stringOf(obj["description"]),
	}
	switch clues := obj["context_clues"].(type) {
	case []any:
		for _, c := range clues {
			d.ContextClues = append(d.ContextClues, form.Stringify(c))
		}
	case string:
		d.ContextClues = []string{clues}
	}
	return d
}

func mappingFrom(obj map[string]any) FieldMapping {
	m := FieldMapping{
		FieldName:  stringOf(obj["field_name"]),
		Value:      form.Stringify(obj["value"]),
		SourceText: stringOf(obj["source_text"]),
	}
	if c, ok := obj["confidence"].(float64); ok {
		m.Confidence = c
	}
	return m
}

func stringOf(v any) string {
	if v == nil {
		return ""
	}
	return form.Stringify(v)
}
