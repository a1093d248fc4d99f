package extraction

import (
	"fmt"
	"strings"

	"github.com/jonathan/trade-hire/internal/ingestion"
	"github.com/jonathan/trade-hire/internal/prompts"
	"github.com/jonathan/trade-hire/internal/schema"
)

// MissingContext is substituted for context variables the caller did not supply.
const MissingContext = "(not provided)"

// MaxContextLength caps each substituted context value.
const MaxContextLength = 200

// BuildInstruction renders the system instruction for task: the task template with context
// substituted, then the field list and every enum field's legal codes spelled out.
// The same task and context always produce the same instruction.
func BuildInstruction(task schema.Task, context map[string]string) (string, error) {
	template, err := prompts.Get(prompts.ExtractionFile, task.PromptKey)
	if err != nil {
		return "", fmt.Errorf("instruction template for %s: %w", task.Kind, err)
	}

	vars := make(map[string]string, len(task.ContextVars))
	for _, name := range task.ContextVars {
		vars[name] = contextValue(context[name])
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(prompts.Format(template, vars)))
	sb.WriteString("\n\n")
	writeShape(&sb, task)
	return sb.String(), nil
}

// contextValue flattens caller-supplied context to one bounded line so it cannot
// restructure the instruction around it.
func contextValue(v string) string {
	v = ingestion.Truncate(ingestion.CollapseWhitespace(v), MaxContextLength)
	if v == "" {
		return MissingContext
	}
	return v
}

func writeShape(sb *strings.Builder, task schema.Task) {
	fmt.Fprintf(sb, "Respond with exactly one JSON object describing a %s and nothing else.\n", task.Record)
	sb.WriteString("Use only the keys listed below. Leave a key out when the text does not say; never write null, \"unknown\" or \"N/A\".\n\n")

	sb.WriteString("Fields:\n")
	for _, f := range task.Fields {
		req := "optional"
		if f.Required {
			req = "required"
		}
		fmt.Fprintf(sb, "- %s (%s, %s)", f.Name, f.TypeHint(), req)
		if f.Description != "" {
			fmt.Fprintf(sb, ": %s", f.Description)
		}
		sb.WriteString("\n")
	}

	var enums []schema.Field
	for _, f := range task.Fields {
		if f.Kind.IsEnum() {
			enums = append(enums, f)
		}
	}
	if len(enums) == 0 {
		return
	}

	sb.WriteString("\nAllowed codes. Copy codes exactly as written; any other value is discarded.\n")
	for _, f := range enums {
		fmt.Fprintf(sb, "- %s: %s\n", f.Name, strings.Join(f.Values, ", "))
	}
}
