package provenance

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jonathan/trade-hire/internal/sanitize"
	"github.com/jonathan/trade-hire/internal/schema"
)

// ErrNotFound is returned when a form does not exist.
var ErrNotFound = errors.New("form not found")

// Store persists forms. Update runs fn on the current form and saves the result atomically
// with respect to other Updates of the same form.
type Store interface {
	Create(ctx context.Context, form *Form) error
	Get(ctx context.Context, id uuid.UUID) (*Form, error)
	Update(ctx context.Context, id uuid.UUID, fn func(*Form) error) (*Form, error)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.Mutex
	forms map[uuid.UUID]*Form
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{forms: make(map[uuid.UUID]*Form)}
}

// Create stores a copy of form.
func (s *MemoryStore) Create(_ context.Context, form *Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.forms[form.ID]; exists {
		return errors.New("form already exists")
	}
	s.forms[form.ID] = form.Clone()
	return nil
}

// Get returns a copy of the stored form.
func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	form, ok := s.forms[id]
	if !ok {
		return nil, ErrNotFound
	}
	return form.Clone(), nil
}

// Update applies fn to a copy of the form and stores it if fn succeeds.
func (s *MemoryStore) Update(_ context.Context, id uuid.UUID, fn func(*Form) error) (*Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	form, ok := s.forms[id]
	if !ok {
		return nil, ErrNotFound
	}
	working := form.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	s.forms[id] = working
	return working.Clone(), nil
}

// TaskMismatchError is returned when a result is applied to a form of another task.
type TaskMismatchError struct {
	Form   schema.TaskKind
	Result schema.TaskKind
}

func (e *TaskMismatchError) Error() string {
	return fmt.Sprintf("form is for %s, result is for %s", e.Form, e.Result)
}

// Apply reconciles result into the stored form id and saves it.
func Apply(ctx context.Context, store Store, id uuid.UUID, result *sanitize.Result) (*Form, []Transition, error) {
	var transitions []Transition
	form, err := store.Update(ctx, id, func(f *Form) error {
		if f.Task != result.Task {
			return &TaskMismatchError{Form: f.Task, Result: result.Task}
		}
		transitions = f.Reconcile(result)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return form, transitions, nil
}
