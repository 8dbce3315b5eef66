package services

import (
	"context"
	"testing"

	"github.com/monocle-dev/devboard/internal/apperrors"
	"github.com/monocle-dev/devboard/internal/models"
	"github.com/monocle-dev/devboard/internal/store"
	"github.com/monocle-dev/devboard/internal/store/memstore"
	"github.com/monocle-dev/devboard/internal/types"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingMemberships struct {
	*memstore.Store
}

func (failingMemberships) CreateMembership(context.Context, *models.ProjectMembership) error {
	return errBoom
}

func TestCreateProjectEnrollsCreatorAsAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")

	p := f.project(t, "P1", alice)
	assert.Equal(t, alice.ID, p.CreatedBy)

	ms, err := f.store.ListMembershipsByProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, alice.ID, ms[0].UserID)
	assert.Equal(t, string(types.RoleAdmin), ms[0].Role)

	_, err = f.projects.Create(ctx, CreateProjectInput{Name: " P1 "}, alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = f.projects.Create(ctx, CreateProjectInput{Name: "  "}, alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCreateProjectRollsBackWhenMembershipFails(t *testing.T) {
	s := failingMemberships{memstore.New()}
	logger, hook := test.NewNullLogger()
	svc := NewProjectService(s, NewMembershipService(s), logger)

	_, err := svc.Create(context.Background(), CreateProjectInput{Name: "P1"}, "creator")
	assert.ErrorIs(t, err, apperrors.ErrInternal)

	_, err = s.FindProjectByName(context.Background(), "P1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestListProjectsAnnotatesRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice"), f.user(t, "bob")

	p1 := f.project(t, "P1", alice)
	p2 := f.project(t, "P2", bob)
	_, err := f.projects.AddMember(ctx, p2.ID, bob.ID, AddMemberInput{UserID: alice.ID})
	require.NoError(t, err)
	f.project(t, "P3", bob)

	list, err := f.projects.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, p1.ID, list[0].Project.ID)
	assert.Equal(t, types.RoleAdmin, list[0].Role)
	assert.Equal(t, p2.ID, list[1].Project.ID)
	assert.Equal(t, types.RoleMember, list[1].Role)
}

func TestGetProjectAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob, eve := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "eve")
	p := f.project(t, "P1", alice)

	_, err := f.projects.AddMember(ctx, p.ID, alice.ID, AddMemberInput{UserID: bob.ID})
	require.NoError(t, err)

	detail, err := f.projects.Get(ctx, p.ID, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Creator)
	assert.Equal(t, alice.ID, detail.Creator.ID)
	assert.Len(t, detail.Members, 2)

	_, err = f.projects.Get(ctx, p.ID, eve.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.projects.Get(ctx, "missing", alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateProjectIsCreatorOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice"), f.user(t, "bob")
	p := f.project(t, "P1", alice)
	f.project(t, "Taken", alice)

	// An admin role does not grant management rights.
	_, err := f.projects.AddMember(ctx, p.ID, alice.ID, AddMemberInput{UserID: bob.ID, Role: types.RoleAdmin})
	require.NoError(t, err)

	_, err = f.projects.Update(ctx, p.ID, bob.ID, UpdateProjectInput{Name: strPtr("Renamed")})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.projects.Update(ctx, p.ID, alice.ID, UpdateProjectInput{Name: strPtr("Taken")})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	updated, err := f.projects.Update(ctx, p.ID, alice.ID, UpdateProjectInput{Description: strPtr("new")})
	require.NoError(t, err)
	assert.Equal(t, "P1", updated.Name)
	assert.Equal(t, "new", updated.Description)

	updated, err = f.projects.Update(ctx, p.ID, alice.ID, UpdateProjectInput{Name: strPtr("P1")})
	require.NoError(t, err)
	assert.Equal(t, "P1", updated.Name)
}

func TestAddMemberRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice"), f.user(t, "bob")
	p := f.project(t, "P1", alice)

	_, err := f.projects.AddMember(ctx, p.ID, bob.ID, AddMemberInput{UserID: bob.ID})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.projects.AddMember(ctx, p.ID, alice.ID, AddMemberInput{UserID: "ghost"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.projects.AddMember(ctx, "missing", alice.ID, AddMemberInput{UserID: bob.ID})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.projects.AddMember(ctx, p.ID, alice.ID, AddMemberInput{UserID: bob.ID, Role: "owner"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	m, err := f.projects.AddMember(ctx, p.ID, alice.ID, AddMemberInput{UserID: bob.ID})
	require.NoError(t, err)
	assert.Equal(t, types.RoleMember, m.Role)
	assert.Equal(t, "bob", m.User.Username)

	_, err = f.projects.AddMember(ctx, p.ID, alice.ID, AddMemberInput{UserID: bob.ID})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestRemoveMemberIsScopedAndIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice"), f.user(t, "bob")
	p1 := f.project(t, "P1", alice)
	p2 := f.project(t, "P2", alice)

	m, err := f.projects.AddMember(ctx, p1.ID, alice.ID, AddMemberInput{UserID: bob.ID})
	require.NoError(t, err)

	err = f.projects.RemoveMember(ctx, p1.ID, m.ID, bob.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	require.NoError(t, f.projects.RemoveMember(ctx, p2.ID, m.ID, alice.ID))
	member, err := f.members.IsMember(ctx, bob.ID, p1.ID)
	require.NoError(t, err)
	assert.True(t, member)

	require.NoError(t, f.projects.RemoveMember(ctx, p1.ID, m.ID, alice.ID))
	require.NoError(t, f.projects.RemoveMember(ctx, p1.ID, m.ID, alice.ID))
	member, err = f.members.IsMember(ctx, bob.ID, p1.ID)
	require.NoError(t, err)
	assert.False(t, member)
}

func TestRemoveMemberKeepsCreator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	p := f.project(t, "P1", alice)

	own, err := f.store.FindMembership(ctx, alice.ID, p.ID)
	require.NoError(t, err)

	err = f.projects.RemoveMember(ctx, p.ID, own.ID, alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	role, ok, err := f.members.RoleOf(ctx, alice.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, types.RoleAdmin, role)

	projects, err := f.projects.List(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}

func TestDeleteProjectCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice"), f.user(t, "bob")
	p := f.project(t, "P1", alice)
	other := f.project(t, "P2", alice)

	_, err := f.projects.AddMember(ctx, p.ID, alice.ID, AddMemberInput{UserID: bob.ID})
	require.NoError(t, err)

	task, err := f.tasks.Create(ctx, CreateTaskInput{Title: "T1", ProjectID: p.ID, AssignedToID: bob.ID}, alice.ID)
	require.NoError(t, err)
	_, err = f.tasks.CreateSubtask(ctx, task.ID, alice.ID, CreateSubtaskInput{Title: "S1"})
	require.NoError(t, err)
	_, err = f.notes.Create(ctx, CreateNoteInput{Content: "hello", ProjectID: p.ID}, alice.ID)
	require.NoError(t, err)
	kept, err := f.tasks.Create(ctx, CreateTaskInput{Title: "T2", ProjectID: other.ID, AssignedToID: alice.ID}, alice.ID)
	require.NoError(t, err)

	err = f.projects.Delete(ctx, p.ID, bob.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	require.NoError(t, f.projects.Delete(ctx, p.ID, alice.ID))

	_, err = f.store.GetProject(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	ms, err := f.store.ListMembershipsByProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, ms)

	tasks, err := f.store.ListTasksByProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	subtasks, err := f.store.ListSubtasksByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, subtasks)

	notes, err := f.store.ListNotesByProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, notes)

	_, err = f.store.GetTask(ctx, kept.ID)
	assert.NoError(t, err)

	err = f.projects.Delete(ctx, p.ID, alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
