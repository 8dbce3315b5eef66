// Package store declares the persistence contracts used by devboard services.
//
// Three backends implement [Store]: gormstore (Postgres through GORM),
// mongostore (MongoDB) and memstore (in-process). Every method takes a
// context and reports absence with [ErrNotFound] and unique-key violations
// with [ErrDuplicate]. Writes are single-record; callers orchestrate
// multi-record sequences such as cascading deletes.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/monocle-dev/devboard/internal/models"
)

var (
	ErrNotFound  = errors.New("store: record not found")
	ErrDuplicate = errors.New("store: duplicate key")
)

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUsers(ctx context.Context, ids []string) ([]models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	// FindUserByUsernameOrEmail returns any user holding either key.
	FindUserByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	// FindUserByVerificationToken matches the stored hash with an expiry after now.
	FindUserByVerificationToken(ctx context.Context, hash string, now time.Time) (*models.User, error)
	// FindUserByResetToken matches the stored hash with an expiry after now.
	FindUserByResetToken(ctx context.Context, hash string, now time.Time) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	// ClearExpiredTokens drops verification and reset pairs that expired before now
	// and reports how many pairs were cleared.
	ClearExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

type ProjectStore interface {
	CreateProject(ctx context.Context, project *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	GetProjects(ctx context.Context, ids []string) ([]models.Project, error)
	FindProjectByName(ctx context.Context, name string) (*models.Project, error)
	SaveProject(ctx context.Context, project *models.Project) error
	DeleteProject(ctx context.Context, id string) error
}

type MembershipStore interface {
	CreateMembership(ctx context.Context, membership *models.ProjectMembership) error
	FindMembership(ctx context.Context, userID, projectID string) (*models.ProjectMembership, error)
	ListMembershipsByUser(ctx context.Context, userID string) ([]models.ProjectMembership, error)
	ListMembershipsByProject(ctx context.Context, projectID string) ([]models.ProjectMembership, error)
	// DeleteMembership removes the membership only if it belongs to projectID.
	// Deleting an absent membership is not an error.
	DeleteMembership(ctx context.Context, id, projectID string) error
	DeleteMembershipsByProject(ctx context.Context, projectID string) (int64, error)
}

type TaskStore interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	ListTasksByProject(ctx context.Context, projectID string) ([]models.Task, error)
	// ListTasksForUser returns tasks assigned to or by userID.
	ListTasksForUser(ctx context.Context, userID string) ([]models.Task, error)
	SaveTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id string) error
	DeleteTasksByProject(ctx context.Context, projectID string) (int64, error)
}

type SubtaskStore interface {
	CreateSubtask(ctx context.Context, subtask *models.Subtask) error
	GetSubtask(ctx context.Context, id string) (*models.Subtask, error)
	ListSubtasksByTask(ctx context.Context, taskID string) ([]models.Subtask, error)
	SaveSubtask(ctx context.Context, subtask *models.Subtask) error
	DeleteSubtask(ctx context.Context, id string) error
	DeleteSubtasksByTasks(ctx context.Context, taskIDs []string) (int64, error)
}

type NoteStore interface {
	CreateNote(ctx context.Context, note *models.Note) error
	GetNote(ctx context.Context, id string) (*models.Note, error)
	// ListNotesByProject returns notes newest first.
	ListNotesByProject(ctx context.Context, projectID string) ([]models.Note, error)
	SaveNote(ctx context.Context, note *models.Note) error
	DeleteNote(ctx context.Context, id string) error
	DeleteNotesByProject(ctx context.Context, projectID string) (int64, error)
}

// Store aggregates every repository a devboard process needs.
type Store interface {
	UserStore
	ProjectStore
	MembershipStore
	TaskStore
	SubtaskStore
	NoteStore

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
