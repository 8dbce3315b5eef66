package services

import (
	"context"
	"strings"

	"github.com/monocle-dev/devboard/internal/apperrors"
	"github.com/monocle-dev/devboard/internal/models"
	"github.com/monocle-dev/devboard/internal/store"
	"github.com/monocle-dev/devboard/internal/types"
)

// Policy switches on membership checks that are skipped by default.
type Policy struct {
	TaskListRequiresMembership   bool
	NoteCreateRequiresMembership bool
}

type CreateTaskInput struct {
	Title        string           `json:"title" validate:"required,max=200"`
	Description  string           `json:"description" validate:"max=5000"`
	ProjectID    string           `json:"project_id" validate:"required"`
	AssignedToID string           `json:"assigned_to_id" validate:"required"`
	Status       types.TaskStatus `json:"status" validate:"omitempty,oneof=todo in_progress done"`
}

type UpdateTaskInput struct {
	Title        *string           `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string           `json:"description" validate:"omitempty,max=5000"`
	Status       *types.TaskStatus `json:"status" validate:"omitempty,oneof=todo in_progress done"`
	AssignedToID *string           `json:"assigned_to_id" validate:"omitempty,min=1"`
}

type CreateSubtaskInput struct {
	Title string `json:"title" validate:"required,max=200"`
}

type UpdateSubtaskInput struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	IsCompleted *bool   `json:"is_completed"`
}

var errNotProjectMember = apperrors.New(apperrors.CodeInvalidAssignment, "User is not a project member")

type TaskService struct {
	store   store.Store
	members *MembershipService
	policy  Policy
}

func NewTaskService(s store.Store, members *MembershipService, policy Policy) *TaskService {
	return &TaskService{store: s, members: members, policy: policy}
}

// Create adds a task to a project. Only the project creator may create tasks
// and the assignee must be a member of the project.
func (s *TaskService) Create(ctx context.Context, input CreateTaskInput, callerID string) (*models.Task, error) {
	input.Title = strings.TrimSpace(input.Title)

	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.Status == "" {
		input.Status = types.TaskStatusTodo
	}

	project, err := s.store.GetProject(ctx, input.ProjectID)
	if err != nil {
		return nil, lookupErr(err, "Project not found")
	}

	if !s.members.CanManage(project, callerID) {
		return nil, apperrors.Forbidden("Only project creator can create tasks")
	}

	member, err := s.members.IsMember(ctx, input.AssignedToID, project.ID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, errNotProjectMember
	}

	task := &models.Task{
		Title:        input.Title,
		Description:  input.Description,
		ProjectID:    project.ID,
		AssignedByID: callerID,
		AssignedToID: input.AssignedToID,
		Status:       string(input.Status),
	}

	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, apperrors.Internal(err)
	}

	return task, nil
}

// List returns the tasks of projectID, or when projectID is empty the tasks
// assigned to or by the caller.
func (s *TaskService) List(ctx context.Context, callerID, projectID string) ([]types.TaskResponse, error) {
	var (
		tasks []models.Task
		err   error
	)

	if projectID == "" {
		tasks, err = s.store.ListTasksForUser(ctx, callerID)
	} else {
		if s.policy.TaskListRequiresMembership {
			if err := s.authorizeView(ctx, projectID, callerID); err != nil {
				return nil, err
			}
		}
		tasks, err = s.store.ListTasksByProject(ctx, projectID)
	}

	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return s.views(ctx, tasks)
}

func (s *TaskService) Get(ctx context.Context, taskID string) (*types.TaskDetail, error) {
	task, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}

	subtasks, err := s.store.ListSubtasksByTask(ctx, task.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	views, err := s.views(ctx, []models.Task{*task})
	if err != nil {
		return nil, err
	}

	return &types.TaskDetail{Task: views[0], Subtasks: subtasks}, nil
}

// Update changes a task. Only the user who assigned it may do so, and a new
// assignee must be a member of the task's project.
func (s *TaskService) Update(ctx context.Context, taskID, callerID string, input UpdateTaskInput) (*types.TaskResponse, error) {
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		input.Title = &title
	}

	if err := validateInput(input); err != nil {
		return nil, err
	}

	task, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if task.AssignedByID != callerID {
		return nil, apperrors.Forbidden("Only task creator can update")
	}

	if input.AssignedToID != nil && *input.AssignedToID != task.AssignedToID {
		member, err := s.members.IsMember(ctx, *input.AssignedToID, task.ProjectID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, errNotProjectMember
		}
		task.AssignedToID = *input.AssignedToID
	}

	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		task.Status = string(*input.Status)
	}

	if err := s.store.SaveTask(ctx, task); err != nil {
		return nil, lookupErr(err, "Task not found")
	}

	views, err := s.views(ctx, []models.Task{*task})
	if err != nil {
		return nil, err
	}

	return &views[0], nil
}

// Delete removes a task and its subtasks.
func (s *TaskService) Delete(ctx context.Context, taskID, callerID string) error {
	task, err := s.load(ctx, taskID)
	if err != nil {
		return err
	}

	if task.AssignedByID != callerID {
		return apperrors.Forbidden("Only task creator can delete")
	}

	if _, err := s.store.DeleteSubtasksByTasks(ctx, []string{task.ID}); err != nil {
		return apperrors.Internal(err)
	}

	if err := s.store.DeleteTask(ctx, task.ID); err != nil {
		return apperrors.Internal(err)
	}

	return nil
}

func (s *TaskService) CreateSubtask(ctx context.Context, taskID, callerID string, input CreateSubtaskInput) (*models.Subtask, error) {
	input.Title = strings.TrimSpace(input.Title)

	if err := validateInput(input); err != nil {
		return nil, err
	}

	task, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}

	subtask := &models.Subtask{
		Title:     input.Title,
		TaskID:    task.ID,
		CreatedBy: callerID,
	}

	if err := s.store.CreateSubtask(ctx, subtask); err != nil {
		return nil, apperrors.Internal(err)
	}

	return subtask, nil
}

// UpdateSubtask edits a subtask of taskID. A subtask belonging to another
// task is reported as missing.
func (s *TaskService) UpdateSubtask(ctx context.Context, taskID, subtaskID string, input UpdateSubtaskInput) (*models.Subtask, error) {
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		input.Title = &title
	}

	if err := validateInput(input); err != nil {
		return nil, err
	}

	subtask, err := s.loadSubtask(ctx, subtaskID)
	if err != nil {
		return nil, err
	}
	if subtask.TaskID != taskID {
		return nil, apperrors.NotFound("Subtask not found")
	}

	if input.Title != nil {
		subtask.Title = *input.Title
	}
	if input.IsCompleted != nil {
		subtask.IsCompleted = *input.IsCompleted
	}

	if err := s.store.SaveSubtask(ctx, subtask); err != nil {
		return nil, lookupErr(err, "Subtask not found")
	}

	return subtask, nil
}

func (s *TaskService) DeleteSubtask(ctx context.Context, subtaskID string) error {
	subtask, err := s.loadSubtask(ctx, subtaskID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteSubtask(ctx, subtask.ID); err != nil {
		return apperrors.Internal(err)
	}

	return nil
}

func (s *TaskService) load(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, lookupErr(err, "Task not found")
	}
	return task, nil
}

func (s *TaskService) loadSubtask(ctx context.Context, subtaskID string) (*models.Subtask, error) {
	subtask, err := s.store.GetSubtask(ctx, subtaskID)
	if err != nil {
		return nil, lookupErr(err, "Subtask not found")
	}
	return subtask, nil
}

// views resolves the projects and users referenced by tasks in two batch lookups.
func (s *TaskService) views(ctx context.Context, tasks []models.Task) ([]types.TaskResponse, error) {
	userIDs := make([]string, 0, 2*len(tasks))
	projectIDs := make([]string, 0, len(tasks))
	for _, t := range tasks {
		userIDs = append(userIDs, t.AssignedToID, t.AssignedByID)
		projectIDs = append(projectIDs, t.ProjectID)
	}

	users, err := s.store.GetUsers(ctx, userIDs)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	projects, err := s.store.GetProjects(ctx, projectIDs)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	usersByID := make(map[string]types.UserResponse, len(users))
	for i := range users {
		usersByID[users[i].ID] = types.NewUserResponse(&users[i])
	}

	projectNames := make(map[string]string, len(projects))
	for _, p := range projects {
		projectNames[p.ID] = p.Name
	}

	userRef := func(id string) *types.UserResponse {
		u, ok := usersByID[id]
		if !ok {
			return nil
		}
		return &u
	}

	result := make([]types.TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		result = append(result, types.TaskResponse{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Status:      t.Status,
			ProjectID:   t.ProjectID,
			ProjectName: projectNames[t.ProjectID],
			AssignedTo:  userRef(t.AssignedToID),
			AssignedBy:  userRef(t.AssignedByID),
			CreatedAt:   t.CreatedAt,
			UpdatedAt:   t.UpdatedAt,
		})
	}

	return result, nil
}

func (s *TaskService) authorizeView(ctx context.Context, projectID, userID string) error {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return lookupErr(err, "Project not found")
	}

	allowed, err := s.members.CanView(ctx, project, userID)
	if err != nil {
		return err
	}
	if !allowed {
		return apperrors.Forbidden("You don't have access to this project")
	}
	return nil
}

