// Package gormstore implements store.Store on Postgres through GORM.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/monocle-dev/devboard/db"
	"github.com/monocle-dev/devboard/internal/models"
	"github.com/monocle-dev/devboard/internal/store"
	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// Open connects to Postgres and migrates the schema.
func Open(dsn string) (*Store, error) {
	gdb, err := db.ConnectDatabase(dsn)
	if err != nil {
		return nil, err
	}

	if err := db.MigrateDatabase(gdb); err != nil {
		return nil, err
	}

	return New(gdb), nil
}

func New(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	default:
		return err
	}
}

// validIDs reports whether every id parses as a UUID. Postgres rejects
// malformed values in uuid columns, so such lookups cannot match anything.
func validIDs(ids ...string) bool {
	for _, id := range ids {
		if uuid.Validate(id) != nil {
			return false
		}
	}
	return true
}

func filterIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if validIDs(id) {
			out = append(out, id)
		}
	}
	return out
}

func byID[T any](ctx context.Context, gdb *gorm.DB, id string) (*T, error) {
	if !validIDs(id) {
		return nil, store.ErrNotFound
	}
	return first[T](ctx, gdb, "id = ?", id)
}

func first[T any](ctx context.Context, gdb *gorm.DB, query string, args ...interface{}) (*T, error) {
	var out T
	if err := gdb.WithContext(ctx).Where(query, args...).First(&out).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

// replace writes every column of record, failing with ErrNotFound if the row is gone.
func replace(ctx context.Context, gdb *gorm.DB, model interface{}, id string, record interface{}) error {
	res := gdb.WithContext(ctx).Model(model).Where("id = ?", id).Select("*").Updates(record)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Users

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	user.Stamp(time.Now())
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	return byID[models.User](ctx, s.db, id)
}

func (s *Store) GetUsers(ctx context.Context, ids []string) ([]models.User, error) {
	var users []models.User
	ids = filterIDs(ids)
	if len(ids) == 0 {
		return users, nil
	}
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	return users, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return first[models.User](ctx, s.db, "email = ?", email)
}

func (s *Store) FindUserByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	return first[models.User](ctx, s.db, "email = ? OR username = ?", email, username)
}

func (s *Store) FindUserByVerificationToken(ctx context.Context, hash string, now time.Time) (*models.User, error) {
	if hash == "" {
		return nil, store.ErrNotFound
	}
	return first[models.User](ctx, s.db,
		"email_verification_token = ? AND email_verification_expiry > ?", hash, now)
}

func (s *Store) FindUserByResetToken(ctx context.Context, hash string, now time.Time) (*models.User, error) {
	if hash == "" {
		return nil, store.ErrNotFound
	}
	return first[models.User](ctx, s.db,
		"forgot_password_token = ? AND forgot_password_expiry > ?", hash, now)
}

func (s *Store) SaveUser(ctx context.Context, user *models.User) error {
	user.Touch(time.Now())
	return replace(ctx, s.db, &models.User{}, user.ID, user)
}

func (s *Store) ClearExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	var cleared int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("email_verification_expiry IS NOT NULL AND email_verification_expiry <= ?", now).
			Updates(map[string]interface{}{"email_verification_token": "", "email_verification_expiry": nil})
		if res.Error != nil {
			return res.Error
		}
		cleared += res.RowsAffected

		res = tx.Model(&models.User{}).
			Where("forgot_password_expiry IS NOT NULL AND forgot_password_expiry <= ?", now).
			Updates(map[string]interface{}{"forgot_password_token": "", "forgot_password_expiry": nil})
		if res.Error != nil {
			return res.Error
		}
		cleared += res.RowsAffected
		return nil
	})

	return cleared, translate(err)
}

// Projects

func (s *Store) CreateProject(ctx context.Context, project *models.Project) error {
	project.Stamp(time.Now())
	return translate(s.db.WithContext(ctx).Create(project).Error)
}

func (s *Store) GetProject(ctx context.Context, id string) (*models.Project, error) {
	return byID[models.Project](ctx, s.db, id)
}

func (s *Store) GetProjects(ctx context.Context, ids []string) ([]models.Project, error) {
	var projects []models.Project
	ids = filterIDs(ids)
	if len(ids) == 0 {
		return projects, nil
	}
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("created_at").Find(&projects).Error; err != nil {
		return nil, translate(err)
	}
	return projects, nil
}

func (s *Store) FindProjectByName(ctx context.Context, name string) (*models.Project, error) {
	return first[models.Project](ctx, s.db, "name = ?", name)
}

func (s *Store) SaveProject(ctx context.Context, project *models.Project) error {
	project.Touch(time.Now())
	return replace(ctx, s.db, &models.Project{}, project.ID, project)
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	return translate(s.db.WithContext(ctx).Delete(&models.Project{}, "id = ?", id).Error)
}

// Memberships

func (s *Store) CreateMembership(ctx context.Context, membership *models.ProjectMembership) error {
	membership.Stamp(time.Now())
	return translate(s.db.WithContext(ctx).Create(membership).Error)
}

func (s *Store) FindMembership(ctx context.Context, userID, projectID string) (*models.ProjectMembership, error) {
	if !validIDs(userID, projectID) {
		return nil, store.ErrNotFound
	}
	return first[models.ProjectMembership](ctx, s.db, "user_id = ? AND project_id = ?", userID, projectID)
}

func (s *Store) ListMembershipsByUser(ctx context.Context, userID string) ([]models.ProjectMembership, error) {
	var memberships []models.ProjectMembership
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&memberships).Error; err != nil {
		return nil, translate(err)
	}
	return memberships, nil
}

func (s *Store) ListMembershipsByProject(ctx context.Context, projectID string) ([]models.ProjectMembership, error) {
	var memberships []models.ProjectMembership
	if err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at").Find(&memberships).Error; err != nil {
		return nil, translate(err)
	}
	return memberships, nil
}

func (s *Store) DeleteMembership(ctx context.Context, id, projectID string) error {
	if !validIDs(id, projectID) {
		return nil
	}
	return translate(s.db.WithContext(ctx).
		Delete(&models.ProjectMembership{}, "id = ? AND project_id = ?", id, projectID).Error)
}

func (s *Store) DeleteMembershipsByProject(ctx context.Context, projectID string) (int64, error) {
	res := s.db.WithContext(ctx).Delete(&models.ProjectMembership{}, "project_id = ?", projectID)
	return res.RowsAffected, translate(res.Error)
}

// Tasks

func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	task.Stamp(time.Now())
	return translate(s.db.WithContext(ctx).Create(task).Error)
}

func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	return byID[models.Task](ctx, s.db, id)
}

func (s *Store) ListTasksByProject(ctx context.Context, projectID string) ([]models.Task, error) {
	var tasks []models.Task
	if !validIDs(projectID) {
		return tasks, nil
	}
	if err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at").Find(&tasks).Error; err != nil {
		return nil, translate(err)
	}
	return tasks, nil
}

func (s *Store) ListTasksForUser(ctx context.Context, userID string) ([]models.Task, error) {
	var tasks []models.Task
	err := s.db.WithContext(ctx).
		Where("assigned_to_id = ? OR assigned_by_id = ?", userID, userID).
		Order("created_at").
		Find(&tasks).Error
	if err != nil {
		return nil, translate(err)
	}
	return tasks, nil
}

func (s *Store) SaveTask(ctx context.Context, task *models.Task) error {
	task.Touch(time.Now())
	return replace(ctx, s.db, &models.Task{}, task.ID, task)
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return translate(s.db.WithContext(ctx).Delete(&models.Task{}, "id = ?", id).Error)
}

func (s *Store) DeleteTasksByProject(ctx context.Context, projectID string) (int64, error) {
	res := s.db.WithContext(ctx).Delete(&models.Task{}, "project_id = ?", projectID)
	return res.RowsAffected, translate(res.Error)
}

// Subtasks

func (s *Store) CreateSubtask(ctx context.Context, subtask *models.Subtask) error {
	subtask.Stamp(time.Now())
	return translate(s.db.WithContext(ctx).Create(subtask).Error)
}

func (s *Store) GetSubtask(ctx context.Context, id string) (*models.Subtask, error) {
	return byID[models.Subtask](ctx, s.db, id)
}

func (s *Store) ListSubtasksByTask(ctx context.Context, taskID string) ([]models.Subtask, error) {
	var subtasks []models.Subtask
	if err := s.db.WithContext(ctx).Where("task_id = ?", taskID).Order("created_at").Find(&subtasks).Error; err != nil {
		return nil, translate(err)
	}
	return subtasks, nil
}

func (s *Store) SaveSubtask(ctx context.Context, subtask *models.Subtask) error {
	subtask.Touch(time.Now())
	return replace(ctx, s.db, &models.Subtask{}, subtask.ID, subtask)
}

func (s *Store) DeleteSubtask(ctx context.Context, id string) error {
	return translate(s.db.WithContext(ctx).Delete(&models.Subtask{}, "id = ?", id).Error)
}

func (s *Store) DeleteSubtasksByTasks(ctx context.Context, taskIDs []string) (int64, error) {
	if len(taskIDs) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Delete(&models.Subtask{}, "task_id IN ?", taskIDs)
	return res.RowsAffected, translate(res.Error)
}

// Notes

func (s *Store) CreateNote(ctx context.Context, note *models.Note) error {
	note.Stamp(time.Now())
	return translate(s.db.WithContext(ctx).Create(note).Error)
}

func (s *Store) GetNote(ctx context.Context, id string) (*models.Note, error) {
	return byID[models.Note](ctx, s.db, id)
}

func (s *Store) ListNotesByProject(ctx context.Context, projectID string) ([]models.Note, error) {
	var notes []models.Note
	if err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at DESC").Find(&notes).Error; err != nil {
		return nil, translate(err)
	}
	return notes, nil
}

func (s *Store) SaveNote(ctx context.Context, note *models.Note) error {
	note.Touch(time.Now())
	return replace(ctx, s.db, &models.Note{}, note.ID, note)
}

func (s *Store) DeleteNote(ctx context.Context, id string) error {
	return translate(s.db.WithContext(ctx).Delete(&models.Note{}, "id = ?", id).Error)
}

func (s *Store) DeleteNotesByProject(ctx context.Context, projectID string) (int64, error) {
	res := s.db.WithContext(ctx).Delete(&models.Note{}, "project_id = ?", projectID)
	return res.RowsAffected, translate(res.Error)
}
