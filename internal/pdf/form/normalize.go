package form

import (
	"encoding/json"
	"strconv"
)

// Entry assigns Value to the field named FieldName.
type Entry struct {
	FieldName string
	Value     string
}

// Normalize turns field data into a name to value map.
//
// A sequence contributes every element that carries both "field_name" and
// "value"; later elements overwrite earlier ones with the same name and
// other elements are skipped. A flat map is taken as is. Anything else
// yields an empty map.
func Normalize(fieldData any) map[string]string {
	out := make(map[string]string)

	switch data := fieldData.(type) {
	case map[string]string:
		for k, v := range data {
			out[k] = v
		}
	case map[string]any:
		for k, v := range data {
			out[k] = Stringify(v)
		}
	case []Entry:
		for _, e := range data {
			out[e.FieldName] = e.Value
		}
	case []map[string]any:
		for _, item := range data {
			addEntry(out, item)
		}
	case []map[string]string:
		for _, item := range data {
			name, hasName := item["field_name"]
			value, hasValue := item["value"]
			if hasName && hasValue {
				out[name] = value
			}
		}
	case []any:
		for _, item := range data {
			if m, ok := item.(map[string]any); ok {
				addEntry(out, m)
			}
		}
	}

	return out
}

func addEntry(out map[string]string, item map[string]any) {
	name, hasName := item["field_name"]
	value, hasValue := item["value"]
	if !hasName || !hasValue {
		return
	}
	out[Stringify(name)] = Stringify(value)
}

// Stringify renders a decoded JSON value as field text.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case json.Number:
		return val.String()
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
