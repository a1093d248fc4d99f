// Package schemas checks records against the JSON Schema rendered from the task registry.
// Sanitized output is expected to always pass; a failure here means the sanitizer and the
// registry disagree.
package schemas

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/trade-hire/internal/schema"
)

// ValidationError lists every violation found in one record.
type ValidationError struct {
	Task   schema.TaskKind
	Errors []FieldError
}

// FieldError is one violation. Field is a dotted path such as "benefits.1", or "(root)".
type FieldError struct {
	Field   string
	Rule    string // gojsonschema error type, e.g. "enum" or "invalid_type"
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s record failed validation:\n", ve.Task)
	for i, err := range ve.Errors {
		fmt.Fprintf(&sb, "  %d. %s: %s\n", i+1, err.Field, err.Message)
	}
	return sb.String()
}

// Fields returns the distinct top-level field names that failed, in report order.
func (ve *ValidationError) Fields() []string {
	seen := make(map[string]bool, len(ve.Errors))
	var names []string
	for _, e := range ve.Errors {
		name, _, _ := strings.Cut(e.Field, ".")
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// SchemaLoadError is returned when the schema cannot be compiled or the document cannot be read.
type SchemaLoadError struct {
	Task    schema.TaskKind
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema for %s: %s: %v", e.Task, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema for %s: %s", e.Task, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// Tasks are immutable after init, so a compiled schema is valid for the process lifetime.
var compiled sync.Map // schema.TaskKind -> *gojsonschema.Schema

func compile(task schema.Task) (*gojsonschema.Schema, error) {
	if s, ok := compiled.Load(task.Kind); ok {
		return s.(*gojsonschema.Schema), nil
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema.JSONSchema(task)))
	if err != nil {
		return nil, &SchemaLoadError{Task: task.Kind, Message: "invalid generated schema", Cause: err}
	}
	actual, _ := compiled.LoadOrStore(task.Kind, s)
	return actual.(*gojsonschema.Schema), nil
}

// Validate checks a Go value (typically sanitized fields) against the task schema.
func Validate(task schema.Task, record any) error {
	return validate(task, gojsonschema.NewGoLoader(record))
}

// ValidateBytes checks a JSON document against the task schema.
func ValidateBytes(task schema.Task, data []byte) error {
	return validate(task, gojsonschema.NewBytesLoader(data))
}

func validate(task schema.Task, document gojsonschema.JSONLoader) error {
	s, err := compile(task)
	if err != nil {
		return err
	}

	result, err := s.Validate(document)
	if err != nil {
		return &SchemaLoadError{Task: task.Kind, Message: "unreadable document", Cause: err}
	}
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Task:   task.Kind,
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Rule:    desc.Type(),
			Message: desc.Description(),
		})
	}
	return validationErr
}
