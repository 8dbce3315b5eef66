package services

import (
	"context"
	"strings"

	"github.com/monocle-dev/devboard/internal/apperrors"
	"github.com/monocle-dev/devboard/internal/models"
	"github.com/monocle-dev/devboard/internal/store"
	"github.com/monocle-dev/devboard/internal/types"
)

type CreateNoteInput struct {
	Content   string `json:"content" validate:"required,max=10000"`
	ProjectID string `json:"project_id" validate:"required"`
}

type UpdateNoteInput struct {
	Content *string `json:"content" validate:"omitempty,min=1,max=10000"`
}

type NoteService struct {
	store   store.Store
	members *MembershipService
	policy  Policy
}

func NewNoteService(s store.Store, members *MembershipService, policy Policy) *NoteService {
	return &NoteService{store: s, members: members, policy: policy}
}

func (s *NoteService) Create(ctx context.Context, input CreateNoteInput, callerID string) (*types.NoteResponse, error) {
	input.Content = strings.TrimSpace(input.Content)

	if err := validateInput(input); err != nil {
		return nil, err
	}

	project, err := s.loadProject(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}

	if s.policy.NoteCreateRequiresMembership {
		allowed, err := s.members.CanView(ctx, project, callerID)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, apperrors.Forbidden("You don't have access to this project")
		}
	}

	note := &models.Note{
		Content:   input.Content,
		ProjectID: project.ID,
		CreatedBy: callerID,
	}

	if err := s.store.CreateNote(ctx, note); err != nil {
		return nil, apperrors.Internal(err)
	}

	return s.view(ctx, note, project.Name)
}

// List returns the notes of a project, newest first.
func (s *NoteService) List(ctx context.Context, projectID string) ([]types.NoteResponse, error) {
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	notes, err := s.store.ListNotesByProject(ctx, project.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	ids := make([]string, 0, len(notes))
	for _, n := range notes {
		ids = append(ids, n.CreatedBy)
	}

	users, err := s.store.GetUsers(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	byID := make(map[string]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	result := make([]types.NoteResponse, 0, len(notes))
	for i := range notes {
		result = append(result, noteResponse(&notes[i], "", byID[notes[i].CreatedBy]))
	}

	return result, nil
}

func (s *NoteService) Get(ctx context.Context, noteID string) (*types.NoteResponse, error) {
	note, err := s.load(ctx, noteID)
	if err != nil {
		return nil, err
	}

	projectName := ""
	project, err := s.store.GetProject(ctx, note.ProjectID)
	switch {
	case err == nil:
		projectName = project.Name
	case !isNotFound(err):
		return nil, apperrors.Internal(err)
	}

	return s.view(ctx, note, projectName)
}

// Update edits a note. Only its creator may, whatever their project role.
func (s *NoteService) Update(ctx context.Context, noteID, callerID string, input UpdateNoteInput) (*types.NoteResponse, error) {
	if input.Content != nil {
		content := strings.TrimSpace(*input.Content)
		input.Content = &content
	}

	if err := validateInput(input); err != nil {
		return nil, err
	}

	note, err := s.load(ctx, noteID)
	if err != nil {
		return nil, err
	}

	if note.CreatedBy != callerID {
		return nil, apperrors.Forbidden("Only note creator can update")
	}

	if input.Content != nil {
		note.Content = *input.Content
	}

	if err := s.store.SaveNote(ctx, note); err != nil {
		return nil, lookupErr(err, "Note not found")
	}

	return s.view(ctx, note, "")
}

func (s *NoteService) Delete(ctx context.Context, noteID, callerID string) error {
	note, err := s.load(ctx, noteID)
	if err != nil {
		return err
	}

	if note.CreatedBy != callerID {
		return apperrors.Forbidden("Only note creator can delete")
	}

	if err := s.store.DeleteNote(ctx, note.ID); err != nil {
		return apperrors.Internal(err)
	}

	return nil
}

func (s *NoteService) load(ctx context.Context, noteID string) (*models.Note, error) {
	note, err := s.store.GetNote(ctx, noteID)
	if err != nil {
		return nil, lookupErr(err, "Note not found")
	}
	return note, nil
}

func (s *NoteService) loadProject(ctx context.Context, projectID string) (*models.Project, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, lookupErr(err, "Project not found")
	}
	return project, nil
}

// view attaches the creator projection to note.
func (s *NoteService) view(ctx context.Context, note *models.Note, projectName string) (*types.NoteResponse, error) {
	creator, err := s.store.GetUser(ctx, note.CreatedBy)
	if err != nil && !isNotFound(err) {
		return nil, apperrors.Internal(err)
	}

	resp := noteResponse(note, projectName, creator)
	return &resp, nil
}

func noteResponse(note *models.Note, projectName string, creator *models.User) types.NoteResponse {
	resp := types.NoteResponse{
		ID:          note.ID,
		Content:     note.Content,
		ProjectID:   note.ProjectID,
		ProjectName: projectName,
		CreatedAt:   note.CreatedAt,
		UpdatedAt:   note.UpdatedAt,
	}

	if creator != nil {
		u := types.NewUserResponse(creator)
		resp.CreatedBy = &u
	}

	return resp
}
