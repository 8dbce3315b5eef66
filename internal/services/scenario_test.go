package services

import (
	"context"
	"testing"

	"github.com/monocle-dev/devboard/internal/apperrors"
	"github.com/monocle-dev/devboard/internal/store"
	"github.com/monocle-dev/devboard/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectLifecycleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.identity.Register(ctx, RegisterInput{Username: "usera", Email: "a@x.com", Fullname: "User A", Password: "password1"})
	require.NoError(t, err)
	require.NoError(t, f.identity.VerifyEmail(ctx, f.mailer.lastToken(t)))

	me, err := f.identity.Me(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, me.IsEmailVerified)

	b := f.user(t, "userb")

	p1, err := f.projects.Create(ctx, CreateProjectInput{Name: "P1"}, a.ID)
	require.NoError(t, err)

	role, ok, err := f.members.RoleOf(ctx, a.ID, p1.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types.RoleAdmin, role)

	_, err = f.projects.AddMember(ctx, p1.ID, a.ID, AddMemberInput{UserID: b.ID})
	require.NoError(t, err)

	t1, err := f.tasks.Create(ctx, CreateTaskInput{Title: "T1", ProjectID: p1.ID, AssignedToID: b.ID}, a.ID)
	require.NoError(t, err)
	_, err = f.tasks.CreateSubtask(ctx, t1.ID, b.ID, CreateSubtaskInput{Title: "S1"})
	require.NoError(t, err)

	err = f.tasks.Delete(ctx, t1.ID, b.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	require.NoError(t, f.tasks.Delete(ctx, t1.ID, a.ID))

	_, err = f.store.GetTask(ctx, t1.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	subtasks, err := f.store.ListSubtasksByTask(ctx, t1.ID)
	require.NoError(t, err)
	assert.Empty(t, subtasks)
}
