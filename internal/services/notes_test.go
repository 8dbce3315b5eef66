package services

import (
	"context"
	"testing"

	"github.com/monocle-dev/devboard/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateNote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, eve := f.user(t, "alice"), f.user(t, "eve")
	p := f.project(t, "P1", alice)

	_, err := f.notes.Create(ctx, CreateNoteInput{Content: "hi", ProjectID: "missing"}, alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.notes.Create(ctx, CreateNoteInput{Content: "  ", ProjectID: p.ID}, alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// Non-members may create notes unless the policy says otherwise.
	note, err := f.notes.Create(ctx, CreateNoteInput{Content: "from outside", ProjectID: p.ID}, eve.ID)
	require.NoError(t, err)
	assert.Equal(t, "P1", note.ProjectName)
	require.NotNil(t, note.CreatedBy)
	assert.Equal(t, "eve", note.CreatedBy.Username)
}

func TestCreateNoteWithMembershipPolicy(t *testing.T) {
	f := newFixtureWithPolicy(t, Policy{NoteCreateRequiresMembership: true})
	ctx := context.Background()
	alice, eve := f.user(t, "alice"), f.user(t, "eve")
	p := f.project(t, "P1", alice)

	_, err := f.notes.Create(ctx, CreateNoteInput{Content: "hi", ProjectID: p.ID}, eve.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.notes.Create(ctx, CreateNoteInput{Content: "hi", ProjectID: p.ID}, alice.ID)
	assert.NoError(t, err)
}

func TestListNotesNewestFirstWithCreator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	p := f.project(t, "P1", alice)

	for _, content := range []string{"one", "two", "three"} {
		_, err := f.notes.Create(ctx, CreateNoteInput{Content: content, ProjectID: p.ID}, alice.ID)
		require.NoError(t, err)
	}

	notes, err := f.notes.List(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.Equal(t, "three", notes[0].Content)
	assert.Equal(t, "one", notes[2].Content)
	require.NotNil(t, notes[0].CreatedBy)
	assert.Equal(t, alice.ID, notes[0].CreatedBy.ID)

	_, err = f.notes.List(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestNoteMutationIsCreatorOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice"), f.user(t, "bob")
	p := f.project(t, "P1", alice)

	note, err := f.notes.Create(ctx, CreateNoteInput{Content: "by bob", ProjectID: p.ID}, bob.ID)
	require.NoError(t, err)

	// The project creator has no say over someone else's note.
	_, err = f.notes.Update(ctx, note.ID, alice.ID, UpdateNoteInput{Content: strPtr("edited")})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	err = f.notes.Delete(ctx, note.ID, alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	updated, err := f.notes.Update(ctx, note.ID, bob.ID, UpdateNoteInput{Content: strPtr("edited")})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)

	got, err := f.notes.Get(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Content)
	assert.Equal(t, "P1", got.ProjectName)

	require.NoError(t, f.notes.Delete(ctx, note.ID, bob.ID))
	_, err = f.notes.Get(ctx, note.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
