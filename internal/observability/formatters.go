// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/trade-hire/internal/db"
	"github.com/jonathan/trade-hire/internal/extraction"
	"github.com/jonathan/trade-hire/internal/provenance"
	"github.com/jonathan/trade-hire/internal/sanitize"
	"github.com/jonathan/trade-hire/internal/schema"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, inner))
	fmt.Fprintf(p.out, "├%s┤\n", border)
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(line, inner))
	}
	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// pad truncates or right-pads s to width runes.
func pad(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		return string(r[:width-3]) + "..."
	}
	return s + strings.Repeat(" ", width-len(r))
}

// PrintResult outputs the sanitized fields of one extraction in schema order.
func (p *Printer) PrintResult(source string, res *sanitize.Result) {
	if res == nil {
		return
	}
	task, err := schema.For(res.Task)
	if err != nil {
		return
	}

	var sb strings.Builder
	if source != "" {
		sb.WriteString(fmt.Sprintf("Source: %s\n\n", source))
	}
	width := 0
	for _, f := range task.Fields {
		width = max(width, len(f.Name))
	}
	for _, f := range task.Fields {
		v, ok := res.Fields[f.Name]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("%-*s  %s\n", width, f.Name, formatValue(v)))
	}
	if len(res.Fields) == 0 {
		sb.WriteString("(no fields extracted)\n")
	}
	if len(res.NeedsAttention) > 0 {
		sb.WriteString("\nNeeds attention:\n")
		for _, name := range res.NeedsAttention {
			sb.WriteString(fmt.Sprintf("  • %s\n", name))
		}
	}
	if len(res.Dropped) > 0 {
		sb.WriteString(fmt.Sprintf("\nDropped: %s\n", strings.Join(res.Dropped, ", ")))
	}

	p.printBox(fmt.Sprintf("%s (%s)", strings.ToUpper(task.Record), task.Kind), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFailure outputs the failure kind and the message an end user would see.
func (p *Printer) PrintFailure(source string, err error) {
	if err == nil {
		return
	}
	kind := extraction.KindOf(err)

	var sb strings.Builder
	if source != "" {
		sb.WriteString(fmt.Sprintf("Source: %s\n", source))
	}
	sb.WriteString(fmt.Sprintf("Kind:   %s\n", kind))
	sb.WriteString(fmt.Sprintf("User:   %s\n", kind.UserMessage()))
	sb.WriteString(fmt.Sprintf("Detail: %v", err))

	p.printBox("EXTRACTION FAILED", sb.String())
}

// PrintTransitions outputs provenance changes applied to a form.
func (p *Printer) PrintTransitions(form *provenance.Form, transitions []provenance.Transition) {
	if form == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Form: %s\n\n", form.ID))
	if len(transitions) == 0 {
		sb.WriteString("No changes")
	}
	for _, t := range transitions {
		from := t.From
		if from == provenance.StateUnset {
			from = "unset"
		}
		sb.WriteString(fmt.Sprintf("  %s: %s → %s\n", t.Field, from, t.To))
	}

	p.printBox("FORM RECONCILED", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRunStats outputs per-task run statistics.
func (p *Printer) PrintRunStats(stats []db.RunStats) {
	if len(stats) == 0 {
		p.printBox("EXTRACTION RUNS", "No runs recorded")
		return
	}

	var sb strings.Builder
	for i, s := range stats {
		sb.WriteString(fmt.Sprintf("%s\n", s.Task))
		sb.WriteString(fmt.Sprintf("    Runs: %d  Failed: %d  Avg: %.0fms\n", s.Total, s.Failed, s.AvgMs))
		if s.TopError != "" {
			sb.WriteString(fmt.Sprintf("    Top error: %s\n", s.TopError))
		}
		if i < len(stats)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox("EXTRACTION RUNS", strings.TrimSuffix(sb.String(), "\n"))
}

func formatValue(v any) string {
	switch t := v.(type) {
	case []string:
		shown := t
		if len(shown) > maxItemsToShow {
			shown = shown[:maxItemsToShow]
		}
		out := strings.Join(shown, ", ")
		if len(t) > maxItemsToShow {
			out += fmt.Sprintf(" (+%d more)", len(t)-maxItemsToShow)
		}
		return out
	case float64:
		return fmt.Sprintf("%g", t)
	case string:
		return strings.ReplaceAll(t, "\n", " ")
	default:
		return fmt.Sprint(t)
	}
}
