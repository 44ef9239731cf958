package filler

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchema(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantCount int
		wantErr   error
		wantShape bool
	}{
		{
			name:      "two fields",
			raw:       `{"fields":[{"name":"full_name","type":"text","description":"Name","context_clues":["Name:"]},{"name":"dob","type":"date"}]}`,
			wantCount: 2,
			wantShape: true,
		},
		{
			name:      "fields missing",
			raw:       `{"form":"application"}`,
			wantCount: 0,
		},
		{
			name:      "empty list",
			raw:       `{"fields":[]}`,
			wantCount: 0,
			wantShape: true,
		},
		{
			name:      "malformed entries still counted",
			raw:       `{"fields":[{"name":"a"},"b",42]}`,
			wantCount: 3,
		},
		{
			name:    "fields not a list",
			raw:     `{"fields":{"name":"a"}}`,
			wantErr: ErrFieldsNotList,
		},
		{
			name:    "array reply",
			raw:     `[{"name":"a"}]`,
			wantErr: ErrNotObject,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseSchema(tt.raw)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, eris.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, s.FieldCount())
			if tt.wantShape {
				assert.NoError(t, s.ShapeErr)
			} else {
				assert.Error(t, s.ShapeErr)
			}
		})
	}
}

func TestParseSchema_InvalidJSON(t *testing.T) {
	for _, raw := range []string{"", "not json", `{"fields":[`, `{"a":1} {"b":2}`, "null"} {
		_, err := ParseSchema(raw)
		assert.Error(t, err, "raw %q", raw)
	}
}

func TestParseSchema_Descriptors(t *testing.T) {
	s, err := ParseSchema(`{"fields":[{"name":"dob","type":"date","description":"Birth date","context_clues":["DOB","born"]},{"name":"notes","type":"freeform","context_clues":"Notes:"}]}`)
	require.NoError(t, err)
	require.Len(t, s.Fields, 2)

	assert.Equal(t, FieldDescriptor{
		Name:         "dob",
		Type:         "date",
		Description:  "Birth date",
		ContextClues: []string{"DOB", "born"},
	}, s.Fields[0])
	assert.Equal(t, "freeform", s.Fields[1].Type)
	assert.Equal(t, []string{"Notes:"}, s.Fields[1].ContextClues)
}

func TestSchema_JSONRoundTrips(t *testing.T) {
	s, err := ParseSchema(`{"fields":[{"name":"a","extra":true}],"title":"x"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"fields":[{"name":"a","extra":true}],"title":"x"}`, s.JSON())
}

func TestParseMappings(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantCount int
		wantErr   error
	}{
		{
			name:      "list",
			raw:       `{"mappings":[{"field_name":"a","value":"1","source_text":"a: 1","confidence":0.9},{"field_name":"b","value":2}]}`,
			wantCount: 2,
		},
		{
			name:      "flat object",
			raw:       `{"mappings":{"a":"1","b":"2","c":"3"}}`,
			wantCount: 3,
		},
		{
			name:      "missing key",
			raw:       `{}`,
			wantCount: 0,
		},
		{
			name:    "string value",
			raw:     `{"mappings":"a=1"}`,
			wantErr: ErrMappingsShape,
		},
		{
			name:    "not an object",
			raw:     `"hello"`,
			wantErr: ErrNotObject,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMappings(tt.raw)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, eris.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, m.Count())
		})
	}
}

func TestParseMappings_TypedView(t *testing.T) {
	m, err := ParseMappings(`{"mappings":[{"field_name":"zip","value":75001,"source_text":"Zip 75001","confidence":0.75},"junk"]}`)
	require.NoError(t, err)

	assert.Equal(t, 2, m.Count())
	require.Len(t, m.Mappings, 1)
	assert.Equal(t, FieldMapping{FieldName: "zip", Value: "75001", SourceText: "Zip 75001", Confidence: 0.75}, m.Mappings[0])
	assert.Error(t, m.ShapeErr)
}

func TestParseMappings_ShapeMatches(t *testing.T) {
	m, err := ParseMappings(`{"mappings":[{"field_name":"a","value":"1","confidence":1}]}`)
	require.NoError(t, err)
	assert.NoError(t, m.ShapeErr)
}
