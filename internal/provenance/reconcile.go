package provenance

import (
	"maps"
	"slices"
	"time"

	"github.com/jonathan/trade-hire/internal/sanitize"
	"github.com/jonathan/trade-hire/internal/schema"
)

// Reconcile merges an extraction result into the form and returns the transitions applied.
//
// Extraction only ever fills empty fields, so whatever reaches a field first wins and
// user-entered fields are never touched. Required fields the result could not supply are
// flagged needs-attention while they stay empty. Applying the same result twice is a no-op
// the second time.
func (f *Form) Reconcile(result *sanitize.Result) []Transition {
	if f.Fields == nil {
		f.Fields = make(map[string]Field)
	}

	var transitions []Transition
	set := func(name string, next Field) {
		prev := f.Fields[name].State
		f.Fields[name] = next
		if prev != next.State {
			transitions = append(transitions, Transition{Field: name, From: prev, To: next.State})
		}
	}

	for _, name := range resultOrder(result) {
		current := f.Fields[name]
		if current.State == StateUserEntered || !current.Empty() {
			continue
		}
		set(name, Field{Value: cloneValue(result.Fields[name]), State: StateAutoFilled})
	}

	for _, name := range result.NeedsAttention {
		current := f.Fields[name]
		if current.State == StateUserEntered || !current.Empty() {
			continue
		}
		set(name, Field{State: StateNeedsAttention})
	}

	if len(transitions) > 0 {
		f.UpdatedAt = time.Now().UTC()
	}
	return transitions
}

// resultOrder lists result fields in schema order so transitions are deterministic.
func resultOrder(result *sanitize.Result) []string {
	names := slices.Sorted(maps.Keys(result.Fields))
	task, err := schema.For(result.Task)
	if err != nil {
		return names
	}
	ordered := make([]string, 0, len(names))
	for _, name := range task.FieldNames() {
		if _, ok := result.Fields[name]; ok {
			ordered = append(ordered, name)
		}
	}
	return ordered
}
