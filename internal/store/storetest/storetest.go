// Package storetest holds behaviour checks shared by every store.Store backend.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/monocle-dev/devboard/internal/models"
	"github.com/monocle-dev/devboard/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises s against the repository contract. Records are named with
// random suffixes so the checks can run against a shared database.
func Run(t *testing.T, s store.Store) {
	t.Run("Users", func(t *testing.T) { testUsers(t, s) })
	t.Run("Projects", func(t *testing.T) { testProjects(t, s) })
	t.Run("Memberships", func(t *testing.T) { testMemberships(t, s) })
	t.Run("TasksAndSubtasks", func(t *testing.T) { testTasks(t, s) })
	t.Run("Notes", func(t *testing.T) { testNotes(t, s) })
	t.Run("MalformedIDs", func(t *testing.T) { testMalformedIDs(t, s) })
}

func suffix() string {
	return uuid.NewString()[:8]
}

func newUser(t *testing.T, s store.Store) *models.User {
	t.Helper()

	name := "user-" + suffix()
	u := &models.User{Username: name, Email: name + "@x.com", Fullname: name, PasswordHash: "digest"}
	require.NoError(t, s.CreateUser(context.Background(), u))
	require.NotEmpty(t, u.ID)
	return u
}

func newProject(t *testing.T, s store.Store, owner *models.User) *models.Project {
	t.Helper()

	p := &models.Project{Name: "project-" + suffix(), CreatedBy: owner.ID}
	require.NoError(t, s.CreateProject(context.Background(), p))
	return p
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := newUser(t, s)

	err := s.CreateUser(ctx, &models.User{Username: u.Username, Email: "other-" + u.Email, Fullname: "x", PasswordHash: "x"})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	got, err := s.FindUserByUsernameOrEmail(ctx, "nobody-"+suffix(), u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.FindUserByEmail(ctx, "missing-"+suffix()+"@x.com")
	assert.ErrorIs(t, err, store.ErrNotFound)

	now := time.Now()
	verifyHash := "verify-" + suffix()
	u.SetEmailVerification(verifyHash, now.Add(time.Minute))
	resetHash := "reset-" + suffix()
	u.SetPasswordReset(resetHash, now.Add(-time.Minute))
	require.NoError(t, s.SaveUser(ctx, u))

	got, err = s.FindUserByVerificationToken(ctx, verifyHash, now)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.FindUserByResetToken(ctx, resetHash, now)
	assert.ErrorIs(t, err, store.ErrNotFound)

	cleared, err := s.ClearExpiredTokens(ctx, now)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cleared, int64(1))

	got, err = s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ForgotPasswordToken)
	assert.Nil(t, got.ForgotPasswordExpiry)
	assert.Equal(t, verifyHash, got.EmailVerificationToken)

	other := newUser(t, s)
	users, err := s.GetUsers(ctx, []string{u.ID, other.ID})
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func testProjects(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := newUser(t, s)
	p := newProject(t, s, owner)

	err := s.CreateProject(ctx, &models.Project{Name: p.Name, CreatedBy: owner.ID})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	p.Description = "updated"
	require.NoError(t, s.SaveProject(ctx, p))

	got, err := s.FindProjectByName(ctx, p.Name)
	require.NoError(t, err)
	assert.Equal(t, "updated", got.Description)

	require.NoError(t, s.DeleteProject(ctx, p.ID))
	_, err = s.GetProject(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testMemberships(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := newUser(t, s)
	p := newProject(t, s, owner)
	elsewhere := newProject(t, s, owner)

	m := &models.ProjectMembership{UserID: owner.ID, ProjectID: p.ID, Role: "admin"}
	require.NoError(t, s.CreateMembership(ctx, m))

	err := s.CreateMembership(ctx, &models.ProjectMembership{UserID: owner.ID, ProjectID: p.ID, Role: "member"})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	require.NoError(t, s.DeleteMembership(ctx, m.ID, elsewhere.ID))
	_, err = s.FindMembership(ctx, owner.ID, p.ID)
	require.NoError(t, err)

	byUser, err := s.ListMembershipsByUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, byUser, 1)

	n, err := s.DeleteMembershipsByProject(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	assert.NoError(t, s.DeleteMembership(ctx, m.ID, p.ID))
}

func testTasks(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := newUser(t, s)
	assignee := newUser(t, s)
	p := newProject(t, s, owner)

	task := &models.Task{Title: "t", ProjectID: p.ID, AssignedByID: owner.ID, AssignedToID: assignee.ID, Status: "todo"}
	require.NoError(t, s.CreateTask(ctx, task))

	forUser, err := s.ListTasksForUser(ctx, assignee.ID)
	require.NoError(t, err)
	require.Len(t, forUser, 1)
	assert.Equal(t, task.ID, forUser[0].ID)

	sub := &models.Subtask{Title: "s", TaskID: task.ID, CreatedBy: owner.ID}
	require.NoError(t, s.CreateSubtask(ctx, sub))

	sub.IsCompleted = true
	require.NoError(t, s.SaveSubtask(ctx, sub))

	subs, err := s.ListSubtasksByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.True(t, subs[0].IsCompleted)

	n, err := s.DeleteSubtasksByTasks(ctx, []string{task.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.DeleteTasksByProject(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	tasks, err := s.ListTasksByProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func testNotes(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := newUser(t, s)
	p := newProject(t, s, owner)

	older := &models.Note{Content: "older", ProjectID: p.ID, CreatedBy: owner.ID}
	require.NoError(t, s.CreateNote(ctx, older))
	time.Sleep(5 * time.Millisecond)
	newer := &models.Note{Content: "newer", ProjectID: p.ID, CreatedBy: owner.ID}
	require.NoError(t, s.CreateNote(ctx, newer))

	notes, err := s.ListNotesByProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "newer", notes[0].Content)

	n, err := s.DeleteNotesByProject(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func testMalformedIDs(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.GetProject(ctx, "not-an-id")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetTask(ctx, "not-an-id")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.FindMembership(ctx, "not-an-id", "not-an-id")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
