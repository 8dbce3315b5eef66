package services

import (
	"context"
	"testing"

	"github.com/monocle-dev/devboard/internal/apperrors"
	"github.com/monocle-dev/devboard/internal/models"
	"github.com/monocle-dev/devboard/internal/store/memstore"
	"github.com/monocle-dev/devboard/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMembershipDirectory(t *testing.T) {
	ctx := context.Background()
	svc := NewMembershipService(memstore.New())
	project := &models.Project{Name: "P1", CreatedBy: "creator"}
	project.ID = "p1"

	_, err := svc.Add(ctx, "u1", "p1", types.Role("owner"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	m, err := svc.Add(ctx, "u1", "p1", types.RoleAdmin)
	require.NoError(t, err)

	_, err = svc.Add(ctx, "u1", "p1", types.RoleMember)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	role, ok, err := svc.RoleOf(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, types.RoleAdmin, role)

	_, ok, err = svc.RoleOf(ctx, "u2", "p1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.True(t, svc.CanManage(project, "creator"))
	assert.False(t, svc.CanManage(project, "u1"), "admins do not manage")

	for user, want := range map[string]bool{"creator": true, "u1": true, "u2": false} {
		got, err := svc.CanView(ctx, project, user)
		require.NoError(t, err)
		assert.Equal(t, want, got, user)
	}

	require.NoError(t, svc.Remove(ctx, m.ID, "p1"))
	require.NoError(t, svc.Remove(ctx, m.ID, "p1"))
	member, err := svc.IsMember(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.False(t, member)
}
