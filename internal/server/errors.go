package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/trade-hire/internal/extraction"
	"github.com/jonathan/trade-hire/internal/ingestion"
	"github.com/jonathan/trade-hire/internal/provenance"
)

// modelRetryAfter is the delay suggested to clients when the model is throttling.
const modelRetryAfter = 30 * time.Second

// ErrValidation indicates a malformed or incomplete request.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

// HTTPStatus returns the status code for an error returned by a handler's dependencies.
func HTTPStatus(err error) int {
	var (
		invalid  *ErrValidation
		tooLarge *http.MaxBytesError
		mismatch *provenance.TaskMismatchError
	)
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, provenance.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &mismatch):
		return http.StatusConflict
	}

	switch extraction.KindOf(err) {
	case extraction.KindUnreadableSource:
		return http.StatusUnprocessableEntity
	case extraction.KindRateLimited:
		return http.StatusTooManyRequests
	case extraction.KindModelUnavailable, extraction.KindUnparseableResponse:
		return http.StatusBadGateway
	case extraction.KindUnknownTask:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// describe builds the error body for err. Internal details never reach the client
// for pipeline failures; they get the fixed user-facing message for their kind.
func describe(err error) errorBody {
	status := HTTPStatus(err)
	body := errorBody{Error: http.StatusText(status)}

	var (
		invalid    *ErrValidation
		mismatch   *provenance.TaskMismatchError
		unreadable *ingestion.UnreadableSourceError
	)
	switch {
	case errors.As(err, &invalid):
		body.Code = "invalid_request"
		body.Message = invalid.Error()
	case status == http.StatusRequestEntityTooLarge:
		body.Code = "too_large"
		body.Message = "The upload is too large."
	case errors.Is(err, provenance.ErrNotFound):
		body.Code = "not_found"
		body.Message = "Form not found."
	case errors.As(err, &mismatch):
		body.Code = "task_mismatch"
		body.Message = mismatch.Error()
	default:
		kind := extraction.KindOf(err)
		body.Code = string(kind)
		body.Message = kind.UserMessage()
		if errors.As(err, &unreadable) {
			body.Reason = string(unreadable.Reason)
		}
	}
	return body
}

// validationError turns validator output into an ErrValidation naming the first failing field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		msg := "failed " + fe.Tag()
		switch fe.Tag() {
		case "required":
			msg = "is required"
		case "oneof":
			msg = "must be one of: " + fe.Param()
		case "max":
			msg = "must be at most " + fe.Param() + " characters"
		case "uuid":
			msg = "must be a UUID"
		case "http_url":
			msg = "must be an http or https URL"
		}
		return &ErrValidation{Field: fe.Field(), Message: msg}
	}
	return &ErrValidation{Message: "invalid request"}
}
