package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mistakebook/internal/model"
)

func newTestLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	s := NewLocalStore(t.TempDir())
	s.timestamp = func() int64 { return 1700000000000 }
	return s
}

func sampleMistake(id string) *model.Mistake {
	return &model.Mistake{
		ID:        id,
		Subject:   model.SubjectMath,
		Semester:  "2024 秋季学期",
		Tags:      model.Tags{"代数"},
		CreatedAt: 1700000000000,
	}
}

func TestLocalStoreEmptyLoads(t *testing.T) {
	s := newTestLocalStore(t)
	ctx := context.Background()

	active, err := s.LoadActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	trash, err := s.LoadTrashed(ctx)
	require.NoError(t, err)
	assert.Empty(t, trash)
}

func TestLocalStoreAddIsNewestFirst(t *testing.T) {
	s := newTestLocalStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, sampleMistake("first"))
	require.NoError(t, err)
	_, err = s.Add(ctx, sampleMistake("second"))
	require.NoError(t, err)

	active, err := s.LoadActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "second", active[0].ID)
	assert.Equal(t, "first", active[1].ID)
}

func TestLocalStoreAddDoesNotAliasInput(t *testing.T) {
	s := newTestLocalStore(t)
	ctx := context.Background()

	in := sampleMistake("m1")
	stored, err := s.Add(ctx, in)
	require.NoError(t, err)

	in.Subject = model.SubjectPhysics
	in.Tags[0] = "mutated"

	assert.Equal(t, model.SubjectMath, stored.Subject)
	assert.Equal(t, model.Tags{"代数"}, stored.Tags)
}

func TestLocalStoreUpdate(t *testing.T) {
	s := newTestLocalStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, sampleMistake("m1"))
	require.NoError(t, err)

	edited := sampleMistake("m1")
	edited.QuestionText = "牛顿第二定律"
	updated, err := s.Update(ctx, edited)
	require.NoError(t, err)
	assert.Equal(t, "牛顿第二定律", updated.QuestionText)

	active, err := s.LoadActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "牛顿第二定律", active[0].QuestionText)
}

func TestLocalStoreUpdateMissing(t *testing.T) {
	s := newTestLocalStore(t)

	_, err := s.Update(context.Background(), sampleMistake("ghost"))
	assert.ErrorIs(t, err, ErrMistakeNotFound)
}

func TestLocalStoreMoveToTrash(t *testing.T) {
	s := newTestLocalStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, sampleMistake("keep"))
	require.NoError(t, err)
	_, err = s.Add(ctx, sampleMistake("gone"))
	require.NoError(t, err)

	require.NoError(t, s.MoveToTrash(ctx, "gone"))

	active, err := s.LoadActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "keep", active[0].ID)

	trash, err := s.LoadTrashed(ctx)
	require.NoError(t, err)
	require.Len(t, trash, 1)
	assert.Equal(t, "gone", trash[0].ID)
	require.NotNil(t, trash[0].DeletedAt)
	assert.Equal(t, int64(1700000000000), *trash[0].DeletedAt)
}

func TestLocalStoreMoveToTrashMissing(t *testing.T) {
	s := newTestLocalStore(t)

	err := s.MoveToTrash(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrMistakeNotFound)
}

func TestLocalStoreRestore(t *testing.T) {
	s := newTestLocalStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, sampleMistake("old"))
	require.NoError(t, err)
	_, err = s.Add(ctx, sampleMistake("m1"))
	require.NoError(t, err)
	require.NoError(t, s.MoveToTrash(ctx, "m1"))

	require.NoError(t, s.Restore(ctx, "m1"))

	active, err := s.LoadActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	// Restored records come back at the top, not at their old position.
	assert.Equal(t, "m1", active[0].ID)
	assert.Nil(t, active[0].DeletedAt)

	trash, err := s.LoadTrashed(ctx)
	require.NoError(t, err)
	assert.Empty(t, trash)
}

func TestLocalStoreRestoreMissing(t *testing.T) {
	s := newTestLocalStore(t)

	err := s.Restore(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrMistakeNotFound)
}

func TestLocalStorePurge(t *testing.T) {
	s := newTestLocalStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, sampleMistake("m1"))
	require.NoError(t, err)
	require.NoError(t, s.MoveToTrash(ctx, "m1"))

	require.NoError(t, s.Purge(ctx, "m1"))

	trash, err := s.LoadTrashed(ctx)
	require.NoError(t, err)
	assert.Empty(t, trash)

	// Purging an id that is already gone is not an error.
	require.NoError(t, s.Purge(ctx, "m1"))
}

func TestLocalStoreEmptyTrash(t *testing.T) {
	s := newTestLocalStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := s.Add(ctx, sampleMistake(id))
		require.NoError(t, err)
		require.NoError(t, s.MoveToTrash(ctx, id))
	}

	require.NoError(t, s.EmptyTrash(ctx))

	trash, err := s.LoadTrashed(ctx)
	require.NoError(t, err)
	assert.Empty(t, trash)
}

func TestLocalStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s := NewLocalStore(dir)
	_, err := s.Add(ctx, sampleMistake("m1"))
	require.NoError(t, err)

	reopened := NewLocalStore(dir)
	active, err := reopened.LoadActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "m1", active[0].ID)
}

func TestLocalStoreCorruptFileErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mistakes.json"), []byte("{not json"), 0o644))

	s := NewLocalStore(dir)
	_, err := s.LoadActive(context.Background())
	assert.Error(t, err)
}
