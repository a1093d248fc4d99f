package server

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/trade-hire/internal/extraction"
	"github.com/jonathan/trade-hire/internal/ingestion"
	"github.com/jonathan/trade-hire/internal/provenance"
	"github.com/jonathan/trade-hire/internal/sanitize"
	"github.com/jonathan/trade-hire/internal/schema"
	"github.com/jonathan/trade-hire/internal/server/middleware"
)

type resumeRequest struct {
	Mode      string `form:"mode" validate:"required,oneof=onboarding profile"`
	FirstName string `form:"firstName" validate:"max=100"`
	FormID    string `form:"formId" validate:"omitempty,uuid"`
}

type websiteRequest struct {
	URL         string `json:"url" validate:"required,http_url,max=2048"`
	CompanyName string `json:"companyName" validate:"max=200"`
	FormID      string `json:"formId" validate:"omitempty,uuid"`
}

type jobPostingRequest struct {
	Prompt      string `json:"prompt" validate:"required,max=20000"`
	CompanyName string `json:"companyName" validate:"max=200"`
	FormID      string `json:"formId" validate:"omitempty,uuid"`
}

// extractResponse is returned by every extraction route. Form and Transitions
// are present only when the request named a form to reconcile into.
type extractResponse struct {
	Task           schema.TaskKind         `json:"task"`
	Fields         map[string]any          `json:"fields"`
	NeedsAttention []string                `json:"needsAttention"`
	Form           *formResponse           `json:"form,omitempty"`
	Transitions    []provenance.Transition `json:"transitions,omitempty"`
}

var resumeTasks = map[string]schema.TaskKind{
	"onboarding": schema.TaskResumeOnboarding,
	"profile":    schema.TaskResumeProfile,
}

func (s *Server) handleExtractResume(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || r.ContentLength > s.maxUpload {
			s.errorResponse(w, &http.MaxBytesError{Limit: s.maxUpload})
			return
		}
		s.errorResponse(w, &ErrValidation{Message: "expected a multipart form upload"})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req := resumeRequest{
		Mode:      r.FormValue("mode"),
		FirstName: r.FormValue("firstName"),
		FormID:    r.FormValue("formId"),
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, validationError(err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.errorResponse(w, &ErrValidation{Field: "file", Message: "is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.extract(w, r, req.FormID, extraction.Request{
		Task: resumeTasks[req.Mode],
		Source: ingestion.Source{
			Kind:      schema.SourceDocument,
			Data:      data,
			MediaType: header.Header.Get("Content-Type"),
		},
		Context: map[string]string{"FirstName": req.FirstName},
	})
}

func (s *Server) handleExtractWebsite(w http.ResponseWriter, r *http.Request) {
	var req websiteRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	s.extract(w, r, req.FormID, extraction.Request{
		Task:    schema.TaskWebsiteCompany,
		Source:  ingestion.Source{Kind: schema.SourceHTML},
		URL:     req.URL,
		Context: map[string]string{"CompanyName": req.CompanyName, "WebsiteURL": req.URL},
	})
}

func (s *Server) handleExtractJobPosting(w http.ResponseWriter, r *http.Request) {
	var req jobPostingRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	s.extract(w, r, req.FormID, extraction.Request{
		Task:    schema.TaskPromptJob,
		Source:  ingestion.Source{Kind: schema.SourceText, Text: req.Prompt},
		Context: map[string]string{"CompanyName": req.CompanyName},
	})
}

// extract runs the pipeline and, when formID is set, reconciles the result into that form.
// The form is checked before the model is called so a bad id costs nothing.
func (s *Server) extract(w http.ResponseWriter, r *http.Request, formID string, req extraction.Request) {
	ctx := r.Context()

	var id uuid.UUID
	if formID != "" {
		var err error
		if id, err = uuid.Parse(formID); err != nil {
			s.errorResponse(w, &ErrValidation{Field: "formId", Message: "must be a UUID"})
			return
		}
		form, err := s.ownedForm(ctx, id)
		if err != nil {
			s.errorResponse(w, err)
			return
		}
		if form.Task != req.Task {
			s.errorResponse(w, &provenance.TaskMismatchError{Form: form.Task, Result: req.Task})
			return
		}
	}

	res, err := s.extractor.Run(ctx, req)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	resp := newExtractResponse(res)
	if formID != "" {
		form, transitions, err := provenance.Apply(ctx, s.forms, id, res)
		if err != nil {
			s.errorResponse(w, err)
			return
		}
		if len(transitions) > 0 {
			log.Printf("[server] form %s: %d field transitions", id, len(transitions))
		}
		resp.Form = newFormResponse(form)
		resp.Transitions = transitions
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func newExtractResponse(res *sanitize.Result) extractResponse {
	fields := res.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	return extractResponse{
		Task:           res.Task,
		Fields:         fields,
		NeedsAttention: res.NeedsAttention,
	}
}

// ownedForm loads a form the caller may touch. Forms owned by someone else
// are reported as not found.
func (s *Server) ownedForm(ctx context.Context, id uuid.UUID) (*provenance.Form, error) {
	form, err := s.forms.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccess(ctx, form) {
		return nil, provenance.ErrNotFound
	}
	return form, nil
}

func canAccess(ctx context.Context, form *provenance.Form) bool {
	if form.OwnerID == uuid.Nil {
		return true
	}
	user, ok := middleware.UserID(ctx)
	return ok && user == form.OwnerID
}
