package server

import (
	"net/http"

	"github.com/jonathan/trade-hire/internal/schema"
)

type schemaSummary struct {
	Task           schema.TaskKind   `json:"task"`
	Record         string            `json:"record"`
	Source         schema.SourceKind `json:"source"`
	MaxInputLength int               `json:"maxInputLength"`
	Required       []string          `json:"required"`
	Fields         []string          `json:"fields"`
}

func (s *Server) handleListSchemas(w http.ResponseWriter, _ *http.Request) {
	kinds := schema.Kinds()
	out := make([]schemaSummary, 0, len(kinds))
	for _, kind := range kinds {
		task := schema.MustFor(kind)
		out = append(out, schemaSummary{
			Task:           task.Kind,
			Record:         task.Record,
			Source:         task.Source,
			MaxInputLength: task.MaxInputLength,
			Required:       task.RequiredFields(),
			Fields:         task.FieldNames(),
		})
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"tasks": out})
}

// handleGetSchema returns the JSON Schema of one task's record.
func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	task, err := schema.For(schema.TaskKind(r.PathValue("task")))
	if err != nil {
		s.jsonResponse(w, http.StatusNotFound, errorBody{
			Error:   http.StatusText(http.StatusNotFound),
			Code:    "unknown_task",
			Message: err.Error(),
		})
		return
	}
	s.jsonResponse(w, http.StatusOK, schema.JSONSchema(task))
}
