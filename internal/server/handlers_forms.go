package server

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/trade-hire/internal/provenance"
	"github.com/jonathan/trade-hire/internal/schema"
	"github.com/jonathan/trade-hire/internal/server/middleware"
)

type createFormRequest struct {
	Task   string         `json:"task" validate:"required"`
	Values map[string]any `json:"values"`
}

type patchFieldRequest struct {
	Value any `json:"value"`
}

// formResponse is a form plus the fields currently awaiting the user.
type formResponse struct {
	*provenance.Form
	NeedsAttention []string `json:"needsAttention"`
}

func newFormResponse(f *provenance.Form) *formResponse {
	return &formResponse{Form: f, NeedsAttention: f.NeedsAttention()}
}

func (s *Server) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	var req createFormRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	task, err := schema.For(schema.TaskKind(req.Task))
	if err != nil {
		s.errorResponse(w, &ErrValidation{Field: "task", Message: err.Error()})
		return
	}
	var unknown []string
	for name := range req.Values {
		if _, ok := task.Field(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		s.errorResponse(w, &ErrValidation{Field: "values", Message: "unknown fields: " + strings.Join(unknown, ", ")})
		return
	}

	values := make(map[string]any, len(req.Values))
	for name, v := range req.Values {
		values[name] = jsonValue(v)
	}
	form := provenance.NewForm(task.Kind, values)
	if user, ok := middleware.UserID(r.Context()); ok {
		form.OwnerID = user
	}
	if err := s.forms.Create(r.Context(), form); err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, newFormResponse(form))
}

func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	id, err := formID(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	form, err := s.ownedForm(r.Context(), id)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, newFormResponse(form))
}

// handlePatchField records a user edit. An edit always makes the field user-entered,
// including an edit that clears it.
func (s *Server) handlePatchField(w http.ResponseWriter, r *http.Request) {
	id, err := formID(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	name := r.PathValue("field")

	var req patchFieldRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	ctx := r.Context()
	var transition provenance.Transition
	form, err := s.forms.Update(ctx, id, func(f *provenance.Form) error {
		if !canAccess(ctx, f) {
			return provenance.ErrNotFound
		}
		task, err := schema.For(f.Task)
		if err != nil {
			return err
		}
		if _, ok := task.Field(name); !ok {
			return &ErrValidation{Field: name, Message: "is not a field of " + string(f.Task)}
		}
		transition = f.Edit(name, jsonValue(req.Value))
		return nil
	})
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"form":       newFormResponse(form),
		"transition": transition,
	})
}

func formID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: "id", Message: "must be a UUID"}
	}
	return id, nil
}

// jsonValue turns decoded JSON into the value shapes forms store: numbers as
// float64 and string arrays as []string.
func jsonValue(v any) any {
	switch x := v.(type) {
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
		return v
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			str, ok := item.(string)
			if !ok {
				return x
			}
			out = append(out, str)
		}
		return out
	default:
		return v
	}
}
