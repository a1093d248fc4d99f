package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/trade-hire/internal/provenance"
	"github.com/jonathan/trade-hire/internal/schema"
)

// FormStore implements provenance.Store on the form_sessions table.
type FormStore struct {
	db *DB
}

// Forms returns a provenance.Store backed by db.
func (db *DB) Forms() *FormStore {
	return &FormStore{db: db}
}

var _ provenance.Store = (*FormStore)(nil)

// Create inserts a new form session.
func (s *FormStore) Create(ctx context.Context, form *provenance.Form) error {
	fields, err := json.Marshal(form.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal form fields: %w", err)
	}

	_, err = s.db.pool.Exec(ctx,
		`INSERT INTO form_sessions (id, owner_id, task, fields, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		form.ID, nullIfNil(form.OwnerID), string(form.Task), fields, form.CreatedAt, form.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create form %s: %w", form.ID, err)
	}
	return nil
}

// Get loads a form session.
func (s *FormStore) Get(ctx context.Context, id uuid.UUID) (*provenance.Form, error) {
	return scanForm(s.db.pool.QueryRow(ctx,
		`SELECT id, owner_id, task, fields, created_at, updated_at
		 FROM form_sessions WHERE id = $1`,
		id,
	))
}

// Update locks the row, applies fn, and writes the result in one transaction.
func (s *FormStore) Update(ctx context.Context, id uuid.UUID, fn func(*provenance.Form) error) (*provenance.Form, error) {
	tx, err := s.db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	form, err := scanForm(tx.QueryRow(ctx,
		`SELECT id, owner_id, task, fields, created_at, updated_at
		 FROM form_sessions WHERE id = $1 FOR UPDATE`,
		id,
	))
	if err != nil {
		return nil, err
	}

	if err := fn(form); err != nil {
		return nil, err
	}

	fields, err := json.Marshal(form.Fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal form fields: %w", err)
	}
	err = tx.QueryRow(ctx,
		`UPDATE form_sessions SET fields = $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		id, fields,
	).Scan(&form.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update form %s: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit form %s: %w", id, err)
	}
	return form, nil
}

func scanForm(row pgx.Row) (*provenance.Form, error) {
	var (
		form    provenance.Form
		ownerID *uuid.UUID
		task    string
		fields  []byte
	)
	err := row.Scan(&form.ID, &ownerID, &task, &fields, &form.CreatedAt, &form.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, provenance.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load form: %w", err)
	}
	if ownerID != nil {
		form.OwnerID = *ownerID
	}
	form.Task = schema.TaskKind(task)

	form.Fields, err = decodeFields(fields)
	if err != nil {
		return nil, err
	}
	return &form, nil
}

// decodeFields reads the fields column. JSON arrays of strings come back as []string so a
// loaded form holds the same value types as one built in memory.
func decodeFields(data []byte) (map[string]provenance.Field, error) {
	fields := map[string]provenance.Field{}
	if len(data) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode form fields: %w", err)
	}
	for name, f := range fields {
		if items, ok := f.Value.([]any); ok {
			f.Value = stringsOrAny(items)
			fields[name] = f
		}
	}
	return fields, nil
}

func stringsOrAny(items []any) any {
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return items
		}
		out = append(out, s)
	}
	return out
}

func nullIfNil(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
