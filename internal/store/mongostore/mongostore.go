// Package mongostore implements store.Store on MongoDB, one collection per entity.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/monocle-dev/devboard/internal/models"
	"github.com/monocle-dev/devboard/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection       = "users"
	projectsCollection    = "projects"
	membershipsCollection = "project_members"
	tasksCollection       = "tasks"
	subtasksCollection    = "subtasks"
	notesCollection       = "notes"
)

type Store struct {
	client      *mongo.Client
	users       *mongo.Collection
	projects    *mongo.Collection
	memberships *mongo.Collection
	tasks       *mongo.Collection
	subtasks    *mongo.Collection
	notes       *mongo.Collection
}

var _ store.Store = (*Store)(nil)

// Open connects to uri, verifies the connection and ensures indexes exist.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := New(client, database)
	if err := s.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return s, nil
}

func New(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client:      client,
		users:       db.Collection(usersCollection),
		projects:    db.Collection(projectsCollection),
		memberships: db.Collection(membershipsCollection),
		tasks:       db.Collection(tasksCollection),
		subtasks:    db.Collection(subtasksCollection),
		notes:       db.Collection(notesCollection),
	}
}

// EnsureIndexes creates the unique and lookup indexes the services rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	unique := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
	}
	plain := func(key string) mongo.IndexModel {
		return mongo.IndexModel{Keys: bson.D{{Key: key, Value: 1}}}
	}

	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.users: {
			unique(bson.D{{Key: "email", Value: 1}}),
			unique(bson.D{{Key: "username", Value: 1}}),
			plain("email_verification_token"),
			plain("forgot_password_token"),
		},
		s.projects: {
			unique(bson.D{{Key: "name", Value: 1}}),
		},
		s.memberships: {
			unique(bson.D{{Key: "user_id", Value: 1}, {Key: "project_id", Value: 1}}),
			plain("project_id"),
		},
		s.tasks: {
			plain("project_id"),
			plain("assigned_to"),
			plain("assigned_by"),
		},
		s.subtasks: {
			plain("task_id"),
		},
		s.notes: {
			mongo.IndexModel{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}

	for coll, idx := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	default:
		return err
	}
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) (*T, error) {
	var out T
	if err := coll.FindOne(ctx, filter).Decode(&out); err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, sort bson.D) ([]T, error) {
	opts := options.Find()
	if sort != nil {
		opts.SetSort(sort)
	}

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func insert(ctx context.Context, coll *mongo.Collection, doc interface{}) error {
	_, err := coll.InsertOne(ctx, doc)
	return translate(err)
}

func replace(ctx context.Context, coll *mongo.Collection, id string, doc interface{}) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func deleteMany(ctx context.Context, coll *mongo.Collection, filter bson.M) (int64, error) {
	res, err := coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, translate(err)
	}
	return res.DeletedCount, nil
}

var byCreation = bson.D{{Key: "created_at", Value: 1}}

// Users

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	user.Stamp(time.Now())
	return insert(ctx, s.users, user)
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	return findOne[models.User](ctx, s.users, bson.M{"_id": id})
}

func (s *Store) GetUsers(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	return findAll[models.User](ctx, s.users, bson.M{"_id": bson.M{"$in": ids}}, nil)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, s.users, bson.M{"email": email})
}

func (s *Store) FindUserByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	return findOne[models.User](ctx, s.users, bson.M{"$or": bson.A{
		bson.M{"email": email},
		bson.M{"username": username},
	}})
}

func (s *Store) FindUserByVerificationToken(ctx context.Context, hash string, now time.Time) (*models.User, error) {
	if hash == "" {
		return nil, store.ErrNotFound
	}
	return findOne[models.User](ctx, s.users, bson.M{
		"email_verification_token":  hash,
		"email_verification_expiry": bson.M{"$gt": now},
	})
}

func (s *Store) FindUserByResetToken(ctx context.Context, hash string, now time.Time) (*models.User, error) {
	if hash == "" {
		return nil, store.ErrNotFound
	}
	return findOne[models.User](ctx, s.users, bson.M{
		"forgot_password_token":  hash,
		"forgot_password_expiry": bson.M{"$gt": now},
	})
}

func (s *Store) SaveUser(ctx context.Context, user *models.User) error {
	user.Touch(time.Now())
	return replace(ctx, s.users, user.ID, user)
}

func (s *Store) ClearExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	verify, err := s.users.UpdateMany(ctx,
		bson.M{"email_verification_expiry": bson.M{"$lte": now}},
		bson.M{"$unset": bson.M{"email_verification_token": "", "email_verification_expiry": ""}},
	)
	if err != nil {
		return 0, translate(err)
	}

	reset, err := s.users.UpdateMany(ctx,
		bson.M{"forgot_password_expiry": bson.M{"$lte": now}},
		bson.M{"$unset": bson.M{"forgot_password_token": "", "forgot_password_expiry": ""}},
	)
	if err != nil {
		return verify.ModifiedCount, translate(err)
	}

	return verify.ModifiedCount + reset.ModifiedCount, nil
}

// Projects

func (s *Store) CreateProject(ctx context.Context, project *models.Project) error {
	project.Stamp(time.Now())
	return insert(ctx, s.projects, project)
}

func (s *Store) GetProject(ctx context.Context, id string) (*models.Project, error) {
	return findOne[models.Project](ctx, s.projects, bson.M{"_id": id})
}

func (s *Store) GetProjects(ctx context.Context, ids []string) ([]models.Project, error) {
	if len(ids) == 0 {
		return []models.Project{}, nil
	}
	return findAll[models.Project](ctx, s.projects, bson.M{"_id": bson.M{"$in": ids}}, byCreation)
}

func (s *Store) FindProjectByName(ctx context.Context, name string) (*models.Project, error) {
	return findOne[models.Project](ctx, s.projects, bson.M{"name": name})
}

func (s *Store) SaveProject(ctx context.Context, project *models.Project) error {
	project.Touch(time.Now())
	return replace(ctx, s.projects, project.ID, project)
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	_, err := s.projects.DeleteOne(ctx, bson.M{"_id": id})
	return translate(err)
}

// Memberships

func (s *Store) CreateMembership(ctx context.Context, membership *models.ProjectMembership) error {
	membership.Stamp(time.Now())
	return insert(ctx, s.memberships, membership)
}

func (s *Store) FindMembership(ctx context.Context, userID, projectID string) (*models.ProjectMembership, error) {
	return findOne[models.ProjectMembership](ctx, s.memberships, bson.M{"user_id": userID, "project_id": projectID})
}

func (s *Store) ListMembershipsByUser(ctx context.Context, userID string) ([]models.ProjectMembership, error) {
	return findAll[models.ProjectMembership](ctx, s.memberships, bson.M{"user_id": userID}, byCreation)
}

func (s *Store) ListMembershipsByProject(ctx context.Context, projectID string) ([]models.ProjectMembership, error) {
	return findAll[models.ProjectMembership](ctx, s.memberships, bson.M{"project_id": projectID}, byCreation)
}

func (s *Store) DeleteMembership(ctx context.Context, id, projectID string) error {
	_, err := s.memberships.DeleteOne(ctx, bson.M{"_id": id, "project_id": projectID})
	return translate(err)
}

func (s *Store) DeleteMembershipsByProject(ctx context.Context, projectID string) (int64, error) {
	return deleteMany(ctx, s.memberships, bson.M{"project_id": projectID})
}

// Tasks

func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	task.Stamp(time.Now())
	return insert(ctx, s.tasks, task)
}

func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	return findOne[models.Task](ctx, s.tasks, bson.M{"_id": id})
}

func (s *Store) ListTasksByProject(ctx context.Context, projectID string) ([]models.Task, error) {
	return findAll[models.Task](ctx, s.tasks, bson.M{"project_id": projectID}, byCreation)
}

func (s *Store) ListTasksForUser(ctx context.Context, userID string) ([]models.Task, error) {
	return findAll[models.Task](ctx, s.tasks, bson.M{"$or": bson.A{
		bson.M{"assigned_to": userID},
		bson.M{"assigned_by": userID},
	}}, byCreation)
}

func (s *Store) SaveTask(ctx context.Context, task *models.Task) error {
	task.Touch(time.Now())
	return replace(ctx, s.tasks, task.ID, task)
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	_, err := s.tasks.DeleteOne(ctx, bson.M{"_id": id})
	return translate(err)
}

func (s *Store) DeleteTasksByProject(ctx context.Context, projectID string) (int64, error) {
	return deleteMany(ctx, s.tasks, bson.M{"project_id": projectID})
}

// Subtasks

func (s *Store) CreateSubtask(ctx context.Context, subtask *models.Subtask) error {
	subtask.Stamp(time.Now())
	return insert(ctx, s.subtasks, subtask)
}

func (s *Store) GetSubtask(ctx context.Context, id string) (*models.Subtask, error) {
	return findOne[models.Subtask](ctx, s.subtasks, bson.M{"_id": id})
}

func (s *Store) ListSubtasksByTask(ctx context.Context, taskID string) ([]models.Subtask, error) {
	return findAll[models.Subtask](ctx, s.subtasks, bson.M{"task_id": taskID}, byCreation)
}

func (s *Store) SaveSubtask(ctx context.Context, subtask *models.Subtask) error {
	subtask.Touch(time.Now())
	return replace(ctx, s.subtasks, subtask.ID, subtask)
}

func (s *Store) DeleteSubtask(ctx context.Context, id string) error {
	_, err := s.subtasks.DeleteOne(ctx, bson.M{"_id": id})
	return translate(err)
}

func (s *Store) DeleteSubtasksByTasks(ctx context.Context, taskIDs []string) (int64, error) {
	if len(taskIDs) == 0 {
		return 0, nil
	}
	return deleteMany(ctx, s.subtasks, bson.M{"task_id": bson.M{"$in": taskIDs}})
}

// Notes

func (s *Store) CreateNote(ctx context.Context, note *models.Note) error {
	note.Stamp(time.Now())
	return insert(ctx, s.notes, note)
}

func (s *Store) GetNote(ctx context.Context, id string) (*models.Note, error) {
	return findOne[models.Note](ctx, s.notes, bson.M{"_id": id})
}

func (s *Store) ListNotesByProject(ctx context.Context, projectID string) ([]models.Note, error) {
	return findAll[models.Note](ctx, s.notes, bson.M{"project_id": projectID}, bson.D{{Key: "created_at", Value: -1}})
}

func (s *Store) SaveNote(ctx context.Context, note *models.Note) error {
	note.Touch(time.Now())
	return replace(ctx, s.notes, note.ID, note)
}

func (s *Store) DeleteNote(ctx context.Context, id string) error {
	_, err := s.notes.DeleteOne(ctx, bson.M{"_id": id})
	return translate(err)
}

func (s *Store) DeleteNotesByProject(ctx context.Context, projectID string) (int64, error) {
	return deleteMany(ctx, s.notes, bson.M{"project_id": projectID})
}
