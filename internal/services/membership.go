package services

import (
	"context"
	"errors"

	"github.com/monocle-dev/devboard/internal/apperrors"
	"github.com/monocle-dev/devboard/internal/models"
	"github.com/monocle-dev/devboard/internal/store"
	"github.com/monocle-dev/devboard/internal/types"
)

// MembershipService maps (user, project) pairs to roles and answers every
// authorization question asked by the other services.
type MembershipService struct {
	memberships store.MembershipStore
}

func NewMembershipService(memberships store.MembershipStore) *MembershipService {
	return &MembershipService{memberships: memberships}
}

func (s *MembershipService) IsMember(ctx context.Context, userID, projectID string) (bool, error) {
	_, ok, err := s.RoleOf(ctx, userID, projectID)
	return ok, err
}

func (s *MembershipService) RoleOf(ctx context.Context, userID, projectID string) (types.Role, bool, error) {
	m, err := s.memberships.FindMembership(ctx, userID, projectID)
	if errors.Is(err, store.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperrors.Internal(err)
	}
	return types.Role(m.Role), true, nil
}

func (s *MembershipService) Add(ctx context.Context, userID, projectID string, role types.Role) (*models.ProjectMembership, error) {
	if !role.Valid() {
		return nil, apperrors.Validation("Invalid role", apperrors.FieldError{Field: "role", Rule: "oneof"})
	}

	member, err := s.IsMember(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if member {
		return nil, apperrors.Conflict("User is already a member")
	}

	m := &models.ProjectMembership{UserID: userID, ProjectID: projectID, Role: string(role)}
	if err := s.memberships.CreateMembership(ctx, m); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperrors.Conflict("User is already a member")
		}
		return nil, apperrors.Internal(err)
	}

	return m, nil
}

// Remove deletes a membership of projectID. Removing a missing membership is a no-op.
func (s *MembershipService) Remove(ctx context.Context, membershipID, projectID string) error {
	if err := s.memberships.DeleteMembership(ctx, membershipID, projectID); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func (s *MembershipService) ListByProject(ctx context.Context, projectID string) ([]models.ProjectMembership, error) {
	ms, err := s.memberships.ListMembershipsByProject(ctx, projectID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return ms, nil
}

func (s *MembershipService) ListByUser(ctx context.Context, userID string) ([]models.ProjectMembership, error) {
	ms, err := s.memberships.ListMembershipsByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return ms, nil
}

// CanManage reports whether userID may change project configuration or
// membership. Only the creator may; the admin role grants nothing extra.
func (s *MembershipService) CanManage(project *models.Project, userID string) bool {
	return project.CreatedBy == userID
}

// CanView reports whether userID may read resources scoped to project.
func (s *MembershipService) CanView(ctx context.Context, project *models.Project, userID string) (bool, error) {
	if s.CanManage(project, userID) {
		return true, nil
	}
	return s.IsMember(ctx, userID, project.ID)
}
