// Package memstore is an in-process implementation of store.Store.
//
// It backs STORE_DRIVER=memory and the service tests. Records are copied on
// the way in and out so callers never share memory with the store.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/monocle-dev/devboard/internal/models"
	"github.com/monocle-dev/devboard/internal/store"
)

type row[T any] struct {
	seq uint64
	val T
}

type Store struct {
	mu  sync.RWMutex
	seq uint64
	now func() time.Time

	users       map[string]row[models.User]
	projects    map[string]row[models.Project]
	memberships map[string]row[models.ProjectMembership]
	tasks       map[string]row[models.Task]
	subtasks    map[string]row[models.Subtask]
	notes       map[string]row[models.Note]
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		now:         time.Now,
		users:       make(map[string]row[models.User]),
		projects:    make(map[string]row[models.Project]),
		memberships: make(map[string]row[models.ProjectMembership]),
		tasks:       make(map[string]row[models.Task]),
		subtasks:    make(map[string]row[models.Subtask]),
		notes:       make(map[string]row[models.Note]),
	}
}

func (s *Store) Ping(ctx context.Context) error  { return ctx.Err() }
func (s *Store) Close(ctx context.Context) error { return nil }

func (s *Store) nextSeq() uint64 {
	s.seq++
	return s.seq
}

// ordered returns the rows matching keep in insertion order.
func ordered[T any](rows map[string]row[T], keep func(T) bool) []T {
	matched := make([]row[T], 0, len(rows))
	for _, r := range rows {
		if keep == nil || keep(r.val) {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })

	out := make([]T, 0, len(matched))
	for _, r := range matched {
		out = append(out, r.val)
	}
	return out
}

func deleteWhere[T any](rows map[string]row[T], match func(T) bool) int64 {
	var n int64
	for id, r := range rows {
		if match(r.val) {
			delete(rows, id)
			n++
		}
	}
	return n
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneUser(u models.User) models.User {
	u.ForgotPasswordExpiry = cloneTime(u.ForgotPasswordExpiry)
	u.EmailVerificationExpiry = cloneTime(u.EmailVerificationExpiry)
	return u
}

// Users

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.users {
		if r.val.Email == user.Email || r.val.Username == user.Username {
			return store.ErrDuplicate
		}
	}

	user.Stamp(s.now())
	s.users[user.ID] = row[models.User]{seq: s.nextSeq(), val: cloneUser(*user)}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u := cloneUser(r.val)
	return &u, nil
}

func (s *Store) GetUsers(ctx context.Context, ids []string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	users := ordered(s.users, func(u models.User) bool { return wanted[u.ID] })
	for i := range users {
		users[i] = cloneUser(users[i])
	}
	return users, nil
}

func (s *Store) findUser(match func(models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := ordered(s.users, match)
	if len(matches) == 0 {
		return nil, store.ErrNotFound
	}
	found := cloneUser(matches[0])
	return &found, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Email == email })
}

func (s *Store) FindUserByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Email == email || u.Username == username })
}

func (s *Store) FindUserByVerificationToken(ctx context.Context, hash string, now time.Time) (*models.User, error) {
	if hash == "" {
		return nil, store.ErrNotFound
	}
	return s.findUser(func(u models.User) bool {
		return u.EmailVerificationToken == hash &&
			u.EmailVerificationExpiry != nil && u.EmailVerificationExpiry.After(now)
	})
}

func (s *Store) FindUserByResetToken(ctx context.Context, hash string, now time.Time) (*models.User, error) {
	if hash == "" {
		return nil, store.ErrNotFound
	}
	return s.findUser(func(u models.User) bool {
		return u.ForgotPasswordToken == hash &&
			u.ForgotPasswordExpiry != nil && u.ForgotPasswordExpiry.After(now)
	})
}

func (s *Store) SaveUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.users[user.ID]
	if !ok {
		return store.ErrNotFound
	}
	for id, other := range s.users {
		if id != user.ID && (other.val.Email == user.Email || other.val.Username == user.Username) {
			return store.ErrDuplicate
		}
	}

	user.Touch(s.now())
	r.val = cloneUser(*user)
	s.users[user.ID] = r
	return nil
}

func (s *Store) ClearExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cleared int64
	for id, r := range s.users {
		before := cleared
		if r.val.EmailVerificationExpiry != nil && !r.val.EmailVerificationExpiry.After(now) {
			r.val.ClearEmailVerification()
			cleared++
		}
		if r.val.ForgotPasswordExpiry != nil && !r.val.ForgotPasswordExpiry.After(now) {
			r.val.ClearPasswordReset()
			cleared++
		}
		if cleared != before {
			s.users[id] = r
		}
	}
	return cleared, nil
}

// Projects

func (s *Store) CreateProject(ctx context.Context, project *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.projects {
		if r.val.Name == project.Name {
			return store.ErrDuplicate
		}
	}

	project.Stamp(s.now())
	s.projects[project.ID] = row[models.Project]{seq: s.nextSeq(), val: *project}
	return nil
}

func (s *Store) GetProject(ctx context.Context, id string) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.projects[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p := r.val
	return &p, nil
}

func (s *Store) GetProjects(ctx context.Context, ids []string) ([]models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	return ordered(s.projects, func(p models.Project) bool { return wanted[p.ID] }), nil
}

func (s *Store) FindProjectByName(ctx context.Context, name string) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.projects {
		if r.val.Name == name {
			p := r.val
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) SaveProject(ctx context.Context, project *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.projects[project.ID]
	if !ok {
		return store.ErrNotFound
	}
	for id, other := range s.projects {
		if id != project.ID && other.val.Name == project.Name {
			return store.ErrDuplicate
		}
	}

	project.Touch(s.now())
	r.val = *project
	s.projects[project.ID] = r
	return nil
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.projects, id)
	return nil
}

// Memberships

func (s *Store) CreateMembership(ctx context.Context, membership *models.ProjectMembership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.memberships {
		if r.val.UserID == membership.UserID && r.val.ProjectID == membership.ProjectID {
			return store.ErrDuplicate
		}
	}

	membership.Stamp(s.now())
	s.memberships[membership.ID] = row[models.ProjectMembership]{seq: s.nextSeq(), val: *membership}
	return nil
}

func (s *Store) FindMembership(ctx context.Context, userID, projectID string) (*models.ProjectMembership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.memberships {
		if r.val.UserID == userID && r.val.ProjectID == projectID {
			m := r.val
			return &m, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListMembershipsByUser(ctx context.Context, userID string) ([]models.ProjectMembership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ordered(s.memberships, func(m models.ProjectMembership) bool { return m.UserID == userID }), nil
}

func (s *Store) ListMembershipsByProject(ctx context.Context, projectID string) ([]models.ProjectMembership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ordered(s.memberships, func(m models.ProjectMembership) bool { return m.ProjectID == projectID }), nil
}

func (s *Store) DeleteMembership(ctx context.Context, id, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.memberships[id]; ok && r.val.ProjectID == projectID {
		delete(s.memberships, id)
	}
	return nil
}

func (s *Store) DeleteMembershipsByProject(ctx context.Context, projectID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return deleteWhere(s.memberships, func(m models.ProjectMembership) bool { return m.ProjectID == projectID }), nil
}

// Tasks

func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task.Stamp(s.now())
	s.tasks[task.ID] = row[models.Task]{seq: s.nextSeq(), val: *task}
	return nil
}

func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	t := r.val
	return &t, nil
}

func (s *Store) ListTasksByProject(ctx context.Context, projectID string) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ordered(s.tasks, func(t models.Task) bool { return t.ProjectID == projectID }), nil
}

func (s *Store) ListTasksForUser(ctx context.Context, userID string) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ordered(s.tasks, func(t models.Task) bool {
		return t.AssignedToID == userID || t.AssignedByID == userID
	}), nil
}

func (s *Store) SaveTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.tasks[task.ID]
	if !ok {
		return store.ErrNotFound
	}
	task.Touch(s.now())
	r.val = *task
	s.tasks[task.ID] = r
	return nil
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tasks, id)
	return nil
}

func (s *Store) DeleteTasksByProject(ctx context.Context, projectID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return deleteWhere(s.tasks, func(t models.Task) bool { return t.ProjectID == projectID }), nil
}

// Subtasks

func (s *Store) CreateSubtask(ctx context.Context, subtask *models.Subtask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	subtask.Stamp(s.now())
	s.subtasks[subtask.ID] = row[models.Subtask]{seq: s.nextSeq(), val: *subtask}
	return nil
}

func (s *Store) GetSubtask(ctx context.Context, id string) (*models.Subtask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.subtasks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	st := r.val
	return &st, nil
}

func (s *Store) ListSubtasksByTask(ctx context.Context, taskID string) ([]models.Subtask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ordered(s.subtasks, func(st models.Subtask) bool { return st.TaskID == taskID }), nil
}

func (s *Store) SaveSubtask(ctx context.Context, subtask *models.Subtask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.subtasks[subtask.ID]
	if !ok {
		return store.ErrNotFound
	}
	subtask.Touch(s.now())
	r.val = *subtask
	s.subtasks[subtask.ID] = r
	return nil
}

func (s *Store) DeleteSubtask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.subtasks, id)
	return nil
}

func (s *Store) DeleteSubtasksByTasks(ctx context.Context, taskIDs []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]bool, len(taskIDs))
	for _, id := range taskIDs {
		wanted[id] = true
	}
	return deleteWhere(s.subtasks, func(st models.Subtask) bool { return wanted[st.TaskID] }), nil
}

// Notes

func (s *Store) CreateNote(ctx context.Context, note *models.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	note.Stamp(s.now())
	s.notes[note.ID] = row[models.Note]{seq: s.nextSeq(), val: *note}
	return nil
}

func (s *Store) GetNote(ctx context.Context, id string) (*models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.notes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	n := r.val
	return &n, nil
}

func (s *Store) ListNotesByProject(ctx context.Context, projectID string) ([]models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	notes := ordered(s.notes, func(n models.Note) bool { return n.ProjectID == projectID })
	// Insertion order breaks ties between equal timestamps.
	for i, j := 0, len(notes)-1; i < j; i, j = i+1, j-1 {
		notes[i], notes[j] = notes[j], notes[i]
	}
	sort.SliceStable(notes, func(i, j int) bool { return notes[i].CreatedAt.After(notes[j].CreatedAt) })
	return notes, nil
}

func (s *Store) SaveNote(ctx context.Context, note *models.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.notes[note.ID]
	if !ok {
		return store.ErrNotFound
	}
	note.Touch(s.now())
	r.val = *note
	s.notes[note.ID] = r
	return nil
}

func (s *Store) DeleteNote(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.notes, id)
	return nil
}

func (s *Store) DeleteNotesByProject(ctx context.Context, projectID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return deleteWhere(s.notes, func(n models.Note) bool { return n.ProjectID == projectID }), nil
}
