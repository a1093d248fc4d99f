// Package provenance tracks where each form field's value came from and merges
// extraction results into user-editable forms without overwriting user input.
package provenance

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/trade-hire/internal/schema"
)

// State is the provenance of one form field.
type State string

// Field states. The zero value means the field has never been filled.
const (
	StateUnset          State = ""
	StateUserEntered    State = "user-entered"
	StateAutoFilled     State = "auto-filled"
	StateNeedsAttention State = "needs-attention"
)

// Field is one form field's value and provenance.
type Field struct {
	Value any   `json:"value,omitempty"`
	State State `json:"state,omitempty"`
}

// Empty reports whether the field holds no usable value.
func (f Field) Empty() bool {
	return isEmpty(f.Value)
}

// Form is the live state of one user-editable form.
type Form struct {
	ID        uuid.UUID        `json:"id"`
	OwnerID   uuid.UUID        `json:"ownerId"`
	Task      schema.TaskKind  `json:"task"`
	Fields    map[string]Field `json:"fields"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Transition records one provenance change.
type Transition struct {
	Field string `json:"field"`
	From  State  `json:"from"`
	To    State  `json:"to"`
}

// NewForm returns a form for task. Non-empty prefilled values are what the user typed
// before any extraction and are marked user-entered.
func NewForm(task schema.TaskKind, prefilled map[string]any) *Form {
	now := time.Now().UTC()
	form := &Form{
		ID:        uuid.New(),
		Task:      task,
		Fields:    make(map[string]Field, len(prefilled)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for name, value := range prefilled {
		if isEmpty(value) {
			continue
		}
		form.Fields[name] = Field{Value: cloneValue(value), State: StateUserEntered}
	}
	return form
}

// Field returns the named field; a missing field is the zero Field.
func (f *Form) Field(name string) Field {
	return f.Fields[name]
}

// Edit records a user edit. The field becomes user-entered whatever its prior state,
// and no later Reconcile touches it.
func (f *Form) Edit(name string, value any) Transition {
	if f.Fields == nil {
		f.Fields = make(map[string]Field)
	}
	prev := f.Fields[name].State
	f.Fields[name] = Field{Value: cloneValue(value), State: StateUserEntered}
	f.UpdatedAt = time.Now().UTC()
	return Transition{Field: name, From: prev, To: StateUserEntered}
}

// Values returns the current non-empty values keyed by field name.
func (f *Form) Values() map[string]any {
	out := make(map[string]any, len(f.Fields))
	for name, field := range f.Fields {
		if !field.Empty() {
			out[name] = cloneValue(field.Value)
		}
	}
	return out
}

// NeedsAttention returns the fields in needs-attention state, in task schema order when the
// task is known and sorted by name otherwise.
func (f *Form) NeedsAttention() []string {
	out := []string{}
	for _, name := range f.fieldOrder() {
		if f.Fields[name].State == StateNeedsAttention {
			out = append(out, name)
		}
	}
	return out
}

// Clone returns a deep copy of the form.
func (f *Form) Clone() *Form {
	c := *f
	c.Fields = make(map[string]Field, len(f.Fields))
	for name, field := range f.Fields {
		c.Fields[name] = Field{Value: cloneValue(field.Value), State: field.State}
	}
	return &c
}

func (f *Form) fieldOrder() []string {
	names := slices.Sorted(maps.Keys(f.Fields))
	task, err := schema.For(f.Task)
	if err != nil {
		return names
	}
	order := task.FieldNames()
	for _, name := range names {
		if !slices.Contains(order, name) {
			order = append(order, name)
		}
	}
	return order
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	default:
		return false
	}
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []string:
		return slices.Clone(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
