package extraction

import (
	"errors"
	"fmt"

	"github.com/jonathan/trade-hire/internal/ingestion"
	"github.com/jonathan/trade-hire/internal/parsing"
	"github.com/jonathan/trade-hire/internal/schema"
)

// RateLimitedError means the model provider is throttling requests. Callers may retry later.
type RateLimitedError struct {
	Message string
	Cause   error
}

func (e *RateLimitedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("rate limited: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("rate limited: %s", e.Message)
}

func (e *RateLimitedError) Unwrap() error {
	return e.Cause
}

// ModelUnavailableError is any other model call failure. It is terminal for the request.
type ModelUnavailableError struct {
	Message string
	Cause   error
}

func (e *ModelUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("model unavailable: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("model unavailable: %s", e.Message)
}

func (e *ModelUnavailableError) Unwrap() error {
	return e.Cause
}

// Kind names a pipeline failure category.
type Kind string

// Failure kinds. KindNone is returned for a nil error.
const (
	KindNone                Kind = ""
	KindUnreadableSource    Kind = "unreadable_source"
	KindRateLimited         Kind = "rate_limited"
	KindModelUnavailable    Kind = "model_unavailable"
	KindUnparseableResponse Kind = "unparseable_response"
	KindUnknownTask         Kind = "unknown_task"
	KindInternal            Kind = "internal"
)

// KindOf maps any error returned by the pipeline to its failure kind.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}

	var (
		unreadable  *ingestion.UnreadableSourceError
		rateLimited *RateLimitedError
		unavailable *ModelUnavailableError
		unparseable *parsing.UnparseableResponseError
		unknownTask *schema.UnknownTaskError
	)
	switch {
	case errors.As(err, &unreadable):
		return KindUnreadableSource
	case errors.As(err, &rateLimited):
		return KindRateLimited
	case errors.As(err, &unavailable):
		return KindModelUnavailable
	case errors.As(err, &unparseable):
		return KindUnparseableResponse
	case errors.As(err, &unknownTask):
		return KindUnknownTask
	default:
		return KindInternal
	}
}

// UserMessage is the text shown to an end user for a failure kind.
func (k Kind) UserMessage() string {
	switch k {
	case KindUnreadableSource:
		return "We couldn't read that file or page. Please check the file or URL, or enter the details manually."
	case KindRateLimited:
		return "The service is busy right now. Please try again shortly."
	case KindModelUnavailable:
		return "Something went wrong while extracting details. Please try again or enter them manually."
	case KindUnparseableResponse:
		return "Failed to parse the extracted data. Please try again."
	case KindUnknownTask:
		return "Unknown extraction type."
	case KindNone:
		return ""
	default:
		return "Internal error."
	}
}
