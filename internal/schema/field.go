// Package schema holds the closed vocabularies and record shapes that extracted data must conform to.
// It is the single source of truth for both prompt construction and output sanitization.
package schema

import "slices"

// Kind is the value kind of a schema field.
type Kind string

// Field kinds recognised by the registry.
const (
	KindString      Kind = "string"
	KindNumber      Kind = "number"
	KindBoolean     Kind = "boolean"
	KindEnum        Kind = "enum"
	KindEnumArray   Kind = "enum_array"
	KindStringArray Kind = "string_array"
)

// IsEnum reports whether values of this kind must come from a closed set.
func (k Kind) IsEnum() bool {
	return k == KindEnum || k == KindEnumArray
}

// IsArray reports whether the kind holds a list of values.
func (k Kind) IsArray() bool {
	return k == KindEnumArray || k == KindStringArray
}

// Field is one field definition of a target record.
type Field struct {
	Name        string
	Kind        Kind
	Required    bool
	Values      []string // legal values, enum kinds only
	Default     any      // applied when extraction yields nothing
	Description string
}

// Allows reports whether v is an exact member of the field's legal-value set.
func (f Field) Allows(v string) bool {
	return slices.Contains(f.Values, v)
}

// TypeHint returns the prompt-facing type description of the field.
func (f Field) TypeHint() string {
	switch f.Kind {
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindEnum:
		return "one of the allowed codes"
	case KindEnumArray:
		return "[allowed codes]"
	case KindStringArray:
		return "[\"string\"]"
	default:
		return "\"string\""
	}
}
