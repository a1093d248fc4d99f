// Package ingestion turns raw sources (uploaded documents, fetched HTML, free text) into
// bounded plain text suitable for prompting.
package ingestion

import "fmt"

// Reason says why a source could not be turned into usable text.
type Reason string

// Reasons for UnreadableSourceError.
const (
	ReasonFetchFailed   Reason = "fetch_failed"
	ReasonEmpty         Reason = "empty"
	ReasonTooShort      Reason = "too_short"
	ReasonUnsupported   Reason = "unsupported"
	ReasonExtractFailed Reason = "extract_failed"
)

// Describe returns the human description of a reason.
func (r Reason) Describe() string {
	switch r {
	case ReasonFetchFailed:
		return "could not fetch"
	case ReasonEmpty:
		return "fetched but empty"
	case ReasonTooShort:
		return "too little readable text"
	case ReasonUnsupported:
		return "unsupported format"
	case ReasonExtractFailed:
		return "could not extract text"
	default:
		return string(r)
	}
}

// UnreadableSourceError means the document or page could not be turned into usable text.
type UnreadableSourceError struct {
	Reason  Reason
	Message string
	Cause   error
}

func (e *UnreadableSourceError) Error() string {
	msg := e.Reason.Describe()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		return fmt.Sprintf("unreadable source: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("unreadable source: %s", msg)
}

func (e *UnreadableSourceError) Unwrap() error {
	return e.Cause
}
