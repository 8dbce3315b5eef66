package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/monocle-dev/devboard/internal/apperrors"
	"github.com/monocle-dev/devboard/internal/models"
	"github.com/monocle-dev/devboard/internal/store"
	"github.com/monocle-dev/devboard/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type taskFixture struct {
	*fixture
	alice, bob, eve *models.User
	project         *models.Project
}

func newTaskFixture(t *testing.T, policy Policy) *taskFixture {
	f := newFixtureWithPolicy(t, policy)
	tf := &taskFixture{fixture: f, alice: f.user(t, "alice"), bob: f.user(t, "bob"), eve: f.user(t, "eve")}
	tf.project = f.project(t, "P1", tf.alice)

	_, err := f.projects.AddMember(context.Background(), tf.project.ID, tf.alice.ID, AddMemberInput{UserID: tf.bob.ID})
	require.NoError(t, err)
	return tf
}

func (tf *taskFixture) task(t *testing.T, title string) *models.Task {
	t.Helper()
	task, err := tf.tasks.Create(context.Background(), CreateTaskInput{
		Title:        title,
		ProjectID:    tf.project.ID,
		AssignedToID: tf.bob.ID,
	}, tf.alice.ID)
	require.NoError(t, err)
	return task
}

func TestCreateTaskRules(t *testing.T) {
	tf := newTaskFixture(t, Policy{})
	ctx := context.Background()

	_, err := tf.tasks.Create(ctx, CreateTaskInput{Title: "T", ProjectID: "missing", AssignedToID: tf.bob.ID}, tf.alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = tf.tasks.Create(ctx, CreateTaskInput{Title: "T", ProjectID: tf.project.ID, AssignedToID: tf.bob.ID}, tf.bob.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = tf.tasks.Create(ctx, CreateTaskInput{Title: "T", ProjectID: tf.project.ID, AssignedToID: tf.eve.ID}, tf.alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidAssignment)

	_, err = tf.tasks.Create(ctx, CreateTaskInput{Title: "T", ProjectID: tf.project.ID, AssignedToID: tf.bob.ID, Status: "blocked"}, tf.alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	task := tf.task(t, "T1")
	assert.Equal(t, string(types.TaskStatusTodo), task.Status)
	assert.Equal(t, tf.alice.ID, task.AssignedByID)

	detail, err := tf.tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Task.AssignedTo)
	assert.Equal(t, tf.bob.ID, detail.Task.AssignedTo.ID)
	assert.Empty(t, detail.Subtasks)

	_, err = tf.tasks.Get(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListTasks(t *testing.T) {
	tf := newTaskFixture(t, Policy{})
	ctx := context.Background()
	tf.task(t, "T1")
	tf.task(t, "T2")

	mine, err := tf.tasks.List(ctx, tf.bob.ID, "")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	none, err := tf.tasks.List(ctx, tf.eve.ID, "")
	require.NoError(t, err)
	assert.Empty(t, none)

	// Without the membership policy anyone may list a project's tasks.
	byProject, err := tf.tasks.List(ctx, tf.eve.ID, tf.project.ID)
	require.NoError(t, err)
	assert.Len(t, byProject, 2)
}

func TestTaskResponsesCarryProjectAndUsers(t *testing.T) {
	tf := newTaskFixture(t, Policy{})
	ctx := context.Background()
	task := tf.task(t, "T1")

	tasks, err := tf.tasks.List(ctx, tf.bob.ID, "")
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	got := tasks[0]
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, "P1", got.ProjectName)
	require.NotNil(t, got.AssignedTo)
	require.NotNil(t, got.AssignedBy)
	assert.Equal(t, "bob", got.AssignedTo.Username)
	assert.Equal(t, "alice", got.AssignedBy.Username)

	body, err := json.Marshal(got)
	require.NoError(t, err)
	require.NotEmpty(t, tf.bob.PasswordHash)
	assert.NotContains(t, string(body), tf.bob.PasswordHash)
	assert.NotContains(t, string(body), "password")
	assert.NotContains(t, string(body), "refresh_token")

	detail, err := tf.tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "P1", detail.Task.ProjectName)
	assert.Equal(t, "alice", detail.Task.AssignedBy.Username)
}

func TestListTasksWithMembershipPolicy(t *testing.T) {
	tf := newTaskFixture(t, Policy{TaskListRequiresMembership: true})
	ctx := context.Background()
	tf.task(t, "T1")

	_, err := tf.tasks.List(ctx, tf.eve.ID, tf.project.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = tf.tasks.List(ctx, tf.eve.ID, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	tasks, err := tf.tasks.List(ctx, tf.bob.ID, tf.project.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestUpdateTaskOnlyByAssigner(t *testing.T) {
	tf := newTaskFixture(t, Policy{})
	ctx := context.Background()
	task := tf.task(t, "T1")

	done := types.TaskStatusDone
	_, err := tf.tasks.Update(ctx, task.ID, tf.bob.ID, UpdateTaskInput{Status: &done})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	unchanged, err := tf.store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, string(types.TaskStatusTodo), unchanged.Status)

	bogus := types.TaskStatus("blocked")
	_, err = tf.tasks.Update(ctx, task.ID, tf.alice.ID, UpdateTaskInput{Status: &bogus})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = tf.tasks.Update(ctx, task.ID, tf.alice.ID, UpdateTaskInput{Status: &done, AssignedToID: &tf.eve.ID})
	assert.ErrorIs(t, err, apperrors.ErrInvalidAssignment)

	unchanged, err = tf.store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, string(types.TaskStatusTodo), unchanged.Status)

	updated, err := tf.tasks.Update(ctx, task.ID, tf.alice.ID, UpdateTaskInput{
		Title:        strPtr("T1 renamed"),
		Status:       &done,
		AssignedToID: &tf.alice.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "T1 renamed", updated.Title)
	assert.Equal(t, string(types.TaskStatusDone), updated.Status)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, tf.alice.ID, updated.AssignedTo.ID)

	_, err = tf.tasks.Update(ctx, "missing", tf.alice.ID, UpdateTaskInput{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteTaskCascadesSubtasks(t *testing.T) {
	tf := newTaskFixture(t, Policy{})
	ctx := context.Background()
	task := tf.task(t, "T1")

	for _, title := range []string{"S1", "S2"} {
		_, err := tf.tasks.CreateSubtask(ctx, task.ID, tf.bob.ID, CreateSubtaskInput{Title: title})
		require.NoError(t, err)
	}

	err := tf.tasks.Delete(ctx, task.ID, tf.bob.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	require.NoError(t, tf.tasks.Delete(ctx, task.ID, tf.alice.ID))

	_, err = tf.store.GetTask(ctx, task.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	subtasks, err := tf.store.ListSubtasksByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, subtasks)
}

func TestSubtasks(t *testing.T) {
	tf := newTaskFixture(t, Policy{})
	ctx := context.Background()
	task := tf.task(t, "T1")
	other := tf.task(t, "T2")

	_, err := tf.tasks.CreateSubtask(ctx, "missing", tf.bob.ID, CreateSubtaskInput{Title: "S"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = tf.tasks.CreateSubtask(ctx, task.ID, tf.bob.ID, CreateSubtaskInput{Title: " "})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	sub, err := tf.tasks.CreateSubtask(ctx, task.ID, tf.eve.ID, CreateSubtaskInput{Title: "S1"})
	require.NoError(t, err)
	assert.Equal(t, tf.eve.ID, sub.CreatedBy)
	assert.False(t, sub.IsCompleted)

	_, err = tf.tasks.UpdateSubtask(ctx, other.ID, sub.ID, UpdateSubtaskInput{Title: strPtr("moved")})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	completed := true
	updated, err := tf.tasks.UpdateSubtask(ctx, task.ID, sub.ID, UpdateSubtaskInput{IsCompleted: &completed})
	require.NoError(t, err)
	assert.True(t, updated.IsCompleted)
	assert.Equal(t, "S1", updated.Title)

	detail, err := tf.tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, detail.Subtasks, 1)
	assert.True(t, detail.Subtasks[0].IsCompleted)

	require.NoError(t, tf.tasks.DeleteSubtask(ctx, sub.ID))
	err = tf.tasks.DeleteSubtask(ctx, sub.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
