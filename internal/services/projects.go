package services

import (
	"context"
	"errors"
	"strings"

	"github.com/monocle-dev/devboard/internal/apperrors"
	"github.com/monocle-dev/devboard/internal/models"
	"github.com/monocle-dev/devboard/internal/store"
	"github.com/monocle-dev/devboard/internal/types"
	"github.com/sirupsen/logrus"
)

type CreateProjectInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

type UpdateProjectInput struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

type AddMemberInput struct {
	UserID string     `json:"user_id" validate:"required"`
	Role   types.Role `json:"role" validate:"omitempty,oneof=admin member"`
}

type ProjectService struct {
	store   store.Store
	members *MembershipService
	logger  logrus.FieldLogger
}

func NewProjectService(s store.Store, members *MembershipService, logger logrus.FieldLogger) *ProjectService {
	return &ProjectService{store: s, members: members, logger: logger}
}

// Create stores the project and enrolls its creator as admin. If the
// membership cannot be written the project is deleted again.
func (s *ProjectService) Create(ctx context.Context, input CreateProjectInput, creatorID string) (*models.Project, error) {
	input.Name = strings.TrimSpace(input.Name)

	if err := validateInput(input); err != nil {
		return nil, err
	}

	if err := s.ensureNameFree(ctx, input.Name, ""); err != nil {
		return nil, err
	}

	project := &models.Project{
		Name:        input.Name,
		Description: input.Description,
		CreatedBy:   creatorID,
	}

	if err := s.store.CreateProject(ctx, project); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, errProjectNameTaken
		}
		return nil, apperrors.Internal(err)
	}

	if _, err := s.members.Add(ctx, creatorID, project.ID, types.RoleAdmin); err != nil {
		log := s.logger.WithFields(logrus.Fields{"project_id": project.ID, "user_id": creatorID}).WithError(err)
		if delErr := s.store.DeleteProject(ctx, project.ID); delErr != nil {
			log.WithField("cleanup_error", delErr.Error()).Error("failed to remove project after membership write failed")
		} else {
			log.Warn("removed project after membership write failed")
		}
		return nil, err
	}

	return project, nil
}

// List returns the projects userID belongs to, each with the user's role.
func (s *ProjectService) List(ctx context.Context, userID string) ([]types.ProjectWithRole, error) {
	memberships, err := s.members.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.ProjectID)
	}

	projects, err := s.store.GetProjects(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	byID := make(map[string]models.Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}

	result := make([]types.ProjectWithRole, 0, len(memberships))
	for _, m := range memberships {
		p, ok := byID[m.ProjectID]
		if !ok {
			continue
		}
		result = append(result, types.ProjectWithRole{Project: p, Role: types.Role(m.Role)})
	}

	return result, nil
}

// Get returns the project with its creator and members. Callers must be the
// creator or a member.
func (s *ProjectService) Get(ctx context.Context, projectID, userID string) (*types.ProjectDetail, error) {
	project, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.members.CanView(ctx, project, userID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperrors.Forbidden("You don't have access to this project")
	}

	memberships, err := s.members.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	userIDs := []string{project.CreatedBy}
	for _, m := range memberships {
		userIDs = append(userIDs, m.UserID)
	}

	users, err := s.store.GetUsers(ctx, userIDs)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	byID := make(map[string]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	detail := &types.ProjectDetail{
		Project: *project,
		Members: make([]types.MemberResponse, 0, len(memberships)),
	}

	if creator, ok := byID[project.CreatedBy]; ok {
		resp := types.NewUserResponse(creator)
		detail.Creator = &resp
	}

	for _, m := range memberships {
		u, ok := byID[m.UserID]
		if !ok {
			continue
		}
		detail.Members = append(detail.Members, types.MemberResponse{
			ID:        m.ID,
			Role:      types.Role(m.Role),
			User:      types.NewUserResponse(u),
			CreatedAt: m.CreatedAt,
		})
	}

	return detail, nil
}

func (s *ProjectService) Update(ctx context.Context, projectID, userID string, input UpdateProjectInput) (*models.Project, error) {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		input.Name = &name
	}

	if err := validateInput(input); err != nil {
		return nil, err
	}

	project, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if !s.members.CanManage(project, userID) {
		return nil, apperrors.Forbidden("Only project creator can update")
	}

	if input.Name != nil && *input.Name != project.Name {
		if err := s.ensureNameFree(ctx, *input.Name, project.ID); err != nil {
			return nil, err
		}
		project.Name = *input.Name
	}

	if input.Description != nil {
		project.Description = *input.Description
	}

	if err := s.store.SaveProject(ctx, project); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicate):
			return nil, errProjectNameTaken
		case errors.Is(err, store.ErrNotFound):
			return nil, apperrors.NotFound("Project not found")
		default:
			return nil, apperrors.Internal(err)
		}
	}

	return project, nil
}

// Delete removes the project after its notes, tasks, subtasks and memberships.
func (s *ProjectService) Delete(ctx context.Context, projectID, userID string) error {
	project, err := s.load(ctx, projectID)
	if err != nil {
		return err
	}

	if !s.members.CanManage(project, userID) {
		return apperrors.Forbidden("Only project creator can delete")
	}

	notes, err := s.store.DeleteNotesByProject(ctx, projectID)
	if err != nil {
		return apperrors.Internal(err)
	}

	tasks, err := s.store.ListTasksByProject(ctx, projectID)
	if err != nil {
		return apperrors.Internal(err)
	}

	taskIDs := make([]string, 0, len(tasks))
	for _, t := range tasks {
		taskIDs = append(taskIDs, t.ID)
	}

	subtasks, err := s.store.DeleteSubtasksByTasks(ctx, taskIDs)
	if err != nil {
		return apperrors.Internal(err)
	}

	if _, err := s.store.DeleteTasksByProject(ctx, projectID); err != nil {
		return apperrors.Internal(err)
	}

	memberships, err := s.store.DeleteMembershipsByProject(ctx, projectID)
	if err != nil {
		return apperrors.Internal(err)
	}

	if err := s.store.DeleteProject(ctx, projectID); err != nil {
		return apperrors.Internal(err)
	}

	s.logger.WithFields(logrus.Fields{
		"project_id":  projectID,
		"notes":       notes,
		"tasks":       len(taskIDs),
		"subtasks":    subtasks,
		"memberships": memberships,
	}).Info("project deleted")

	return nil
}

func (s *ProjectService) AddMember(ctx context.Context, projectID, callerID string, input AddMemberInput) (*types.MemberResponse, error) {
	input.UserID = strings.TrimSpace(input.UserID)

	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.Role == "" {
		input.Role = types.RoleMember
	}

	project, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if !s.members.CanManage(project, callerID) {
		return nil, apperrors.Forbidden("Only project creator can add members")
	}

	user, err := s.store.GetUser(ctx, input.UserID)
	if err != nil {
		return nil, lookupErr(err, "User not found")
	}

	m, err := s.members.Add(ctx, user.ID, project.ID, input.Role)
	if err != nil {
		return nil, err
	}

	return &types.MemberResponse{
		ID:        m.ID,
		Role:      types.Role(m.Role),
		User:      types.NewUserResponse(user),
		CreatedAt: m.CreatedAt,
	}, nil
}

func (s *ProjectService) RemoveMember(ctx context.Context, projectID, membershipID, callerID string) error {
	project, err := s.load(ctx, projectID)
	if err != nil {
		return err
	}

	if !s.members.CanManage(project, callerID) {
		return apperrors.Forbidden("Only project creator can remove members")
	}

	// The creator keeps an admin membership for the life of the project.
	own, err := s.store.FindMembership(ctx, project.CreatedBy, project.ID)
	if err != nil && !isNotFound(err) {
		return apperrors.Internal(err)
	}
	if err == nil && own.ID == membershipID {
		return errRemoveCreator
	}

	return s.members.Remove(ctx, membershipID, project.ID)
}

var (
	errProjectNameTaken = apperrors.Conflict("Project with this name already exists")
	errRemoveCreator    = apperrors.Forbidden("Project creator cannot be removed")
)

func (s *ProjectService) load(ctx context.Context, projectID string) (*models.Project, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, lookupErr(err, "Project not found")
	}
	return project, nil
}

func (s *ProjectService) ensureNameFree(ctx context.Context, name, exceptID string) error {
	existing, err := s.store.FindProjectByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return apperrors.Internal(err)
	}
	if existing.ID != exceptID {
		return errProjectNameTaken
	}
	return nil
}
