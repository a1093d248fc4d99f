// Package sanitize maps parsed model output onto a task's target schema.
// Sanitize is total: anything the model got wrong becomes an absent field, never an error.
package sanitize

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/jonathan/trade-hire/internal/schema"
)

// Result is the schema-conformant record produced by one pipeline run.
// Fields holds only present values: string, float64, bool or []string.
// A Result is not modified after Sanitize returns it.
type Result struct {
	Task           schema.TaskKind `json:"task"`
	Fields         map[string]any  `json:"fields"`
	NeedsAttention []string        `json:"needsAttention"`

	// Dropped lists discarded keys and values as "name(reason)" for diagnostics.
	Dropped []string `json:"-"`
}

// Value returns the sanitized value of a field.
func (r *Result) Value(name string) (any, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// NeedsAttentionFor reports whether name is flagged as needing attention.
func (r *Result) NeedsAttentionFor(name string) bool {
	return slices.Contains(r.NeedsAttention, name)
}

// Sanitize validates and coerces obj against the task schema.
// Required fields that end up absent are listed in NeedsAttention in schema order.
func Sanitize(obj map[string]any, task schema.Task) *Result {
	res := &Result{
		Task:           task.Kind,
		Fields:         make(map[string]any, len(task.Fields)),
		NeedsAttention: []string{},
	}

	for _, f := range task.Fields {
		raw, present := obj[f.Name]
		var (
			value any
			ok    bool
		)
		if present {
			value, ok = res.field(f, raw)
		}
		if !ok && f.Default != nil {
			value, ok = f.Default, true
		}
		if ok {
			res.Fields[f.Name] = value
			continue
		}
		if f.Required {
			res.NeedsAttention = append(res.NeedsAttention, f.Name)
		}
	}

	for _, key := range slices.Sorted(maps.Keys(obj)) {
		if _, known := task.Field(key); !known {
			res.drop(key, "unknown")
		}
	}

	return res
}

func (r *Result) drop(name, reason string) {
	r.Dropped = append(r.Dropped, fmt.Sprintf("%s(%s)", name, reason))
}

// field sanitizes one value. ok is false when the field must be treated as absent.
func (r *Result) field(f schema.Field, raw any) (any, bool) {
	if raw == nil {
		r.drop(f.Name, "null")
		return nil, false
	}

	switch f.Kind {
	case schema.KindNumber:
		n, ok := toNumber(raw)
		if !ok {
			r.drop(f.Name, "type")
		}
		return n, ok

	case schema.KindBoolean:
		b, ok := toBool(raw)
		if !ok {
			r.drop(f.Name, "type")
		}
		return b, ok

	case schema.KindEnum:
		s, ok := toEnum(raw)
		if !ok {
			r.drop(f.Name, "type")
			return nil, false
		}
		if !f.Allows(s) {
			r.drop(f.Name, "enum")
			return nil, false
		}
		return s, true

	case schema.KindEnumArray, schema.KindStringArray:
		return r.list(f, raw)

	default:
		s, ok := toString(raw)
		if !ok {
			r.drop(f.Name, "type")
			return nil, false
		}
		return s, true
	}
}

// list sanitizes array kinds. A lone string is treated as a one-element array.
// The result keeps first occurrences only; an empty result is absent.
func (r *Result) list(f schema.Field, raw any) (any, bool) {
	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case []string:
		for _, s := range v {
			items = append(items, s)
		}
	case string:
		items = []any{v}
	default:
		r.drop(f.Name, "type")
		return nil, false
	}

	out := make([]string, 0, len(items))
	for i, item := range items {
		var (
			s  string
			ok bool
		)
		if f.Kind == schema.KindEnumArray {
			s, ok = toEnum(item)
		} else {
			s, ok = toString(item)
		}
		if !ok {
			r.drop(fmt.Sprintf("%s[%d]", f.Name, i), "type")
			continue
		}
		if f.Kind == schema.KindEnumArray && !f.Allows(s) {
			r.drop(fmt.Sprintf("%s[%d]", f.Name, i), "enum")
			continue
		}
		if slices.Contains(out, s) {
			continue
		}
		out = append(out, s)
	}

	if len(out) == 0 {
		r.drop(f.Name, "empty")
		return nil, false
	}
	return out, true
}

// trimmed returns s without surrounding whitespace, reporting whether anything is left.
func trimmed(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}
