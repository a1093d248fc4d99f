package parsing

import "fmt"

// ExcerptLength bounds how much raw model output an error carries.
const ExcerptLength = 200

// UnparseableResponseError means no JSON object could be recovered from model output.
// It carries only a bounded excerpt of the output, never the full text.
type UnparseableResponseError struct {
	Message string
	Excerpt string
	Cause   error
}

func (e *UnparseableResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("unparseable response: %s: %v (excerpt: %q)", e.Message, e.Cause, e.Excerpt)
	}
	return fmt.Sprintf("unparseable response: %s (excerpt: %q)", e.Message, e.Excerpt)
}

func (e *UnparseableResponseError) Unwrap() error {
	return e.Cause
}

// Excerpt returns at most ExcerptLength characters of s, marking the cut with an ellipsis.
func Excerpt(s string) string {
	runes := []rune(s)
	if len(runes) <= ExcerptLength {
		return s
	}
	return string(runes[:ExcerptLength]) + "…"
}
