package provenance

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/trade-hire/internal/sanitize"
	"github.com/jonathan/trade-hire/internal/schema"
)

func TestMemoryStore_CreateGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	form := NewForm(schema.TaskPromptJob, map[string]any{"title": "Foreman"})

	require.NoError(t, store.Create(ctx, form))
	assert.Error(t, store.Create(ctx, form))

	got, err := store.Get(ctx, form.ID)
	require.NoError(t, err)
	assert.Equal(t, form.Fields, got.Fields)

	got.Edit("title", "changed")
	again, err := store.Get(ctx, form.ID)
	require.NoError(t, err)
	assert.Equal(t, "Foreman", again.Field("title").Value)
}

func TestMemoryStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Update(ctx, uuid.New(), func(*Form) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UpdateRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	form := NewForm(schema.TaskPromptJob, nil)
	require.NoError(t, store.Create(ctx, form))

	boom := errors.New("boom")
	_, err := store.Update(ctx, form.ID, func(f *Form) error {
		f.Edit("title", "half-applied")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Get(ctx, form.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Fields)
}

func TestMemoryStore_ConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	form := NewForm(schema.TaskResumeProfile, nil)
	require.NoError(t, store.Create(ctx, form))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, form.ID, func(f *Form) error {
				skills, _ := f.Field("skills").Value.([]string)
				f.Edit("skills", append(skills, uuid.NewString()))
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, form.ID)
	require.NoError(t, err)
	assert.Len(t, got.Field("skills").Value.([]string), 20)
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	form := NewForm(schema.TaskResumeOnboarding, map[string]any{"location": "Denver, CO"})
	require.NoError(t, store.Create(ctx, form))

	result := sanitize.Sanitize(map[string]any{"location": "Austin, TX", "primaryTrade": "CARPENTER"}, schema.MustFor(schema.TaskResumeOnboarding))
	updated, transitions, err := Apply(ctx, store, form.ID, result)
	require.NoError(t, err)

	assert.Equal(t, "Denver, CO", updated.Field("location").Value)
	assert.Equal(t, Field{Value: "CARPENTER", State: StateAutoFilled}, updated.Field("primaryTrade"))
	assert.Contains(t, transitions, Transition{Field: "yearsExperience", From: StateUnset, To: StateNeedsAttention})

	stored, err := store.Get(ctx, form.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Fields, stored.Fields)
}

func TestApply_TaskMismatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	form := NewForm(schema.TaskPromptJob, nil)
	require.NoError(t, store.Create(ctx, form))

	result := sanitize.Sanitize(map[string]any{}, schema.MustFor(schema.TaskWebsiteCompany))
	_, _, err := Apply(ctx, store, form.ID, result)

	var mismatch *TaskMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, schema.TaskPromptJob, mismatch.Form)
}
