package schema

// JSONSchema renders the task's target record as a JSON Schema object.
// Required fields are not listed as required: a sanitized record may legitimately omit them,
// and the omission is reported through needs-attention instead.
func JSONSchema(t Task) map[string]any {
	props := make(map[string]any, len(t.Fields))
	for _, f := range t.Fields {
		props[f.Name] = fieldSchema(f)
	}
	return map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"title":                t.Record,
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}

func fieldSchema(f Field) map[string]any {
	var s map[string]any
	switch f.Kind {
	case KindNumber:
		s = map[string]any{"type": "number"}
	case KindBoolean:
		s = map[string]any{"type": "boolean"}
	case KindEnum:
		s = map[string]any{"type": "string", "enum": f.Values}
	case KindEnumArray:
		s = map[string]any{
			"type":        "array",
			"minItems":    1,
			"uniqueItems": true,
			"items":       map[string]any{"type": "string", "enum": f.Values},
		}
	case KindStringArray:
		s = map[string]any{
			"type":     "array",
			"minItems": 1,
			"items":    map[string]any{"type": "string", "minLength": 1},
		}
	default:
		s = map[string]any{"type": "string", "minLength": 1}
	}
	if f.Description != "" {
		s["description"] = f.Description
	}
	return s
}
