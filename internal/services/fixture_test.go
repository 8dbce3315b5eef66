package services

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/monocle-dev/devboard/internal/auth"
	"github.com/monocle-dev/devboard/internal/mail"
	"github.com/monocle-dev/devboard/internal/models"
	"github.com/monocle-dev/devboard/internal/store/memstore"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// lastToken returns the one-time token carried by the most recent link.
func (m *recordingMailer) lastToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)

	u, err := url.Parse(m.sent[len(m.sent)-1].Link)
	require.NoError(t, err)
	return u.Query().Get("token")
}

type fixture struct {
	store    *memstore.Store
	mailer   *recordingMailer
	hook     *test.Hook
	identity *IdentityService
	members  *MembershipService
	projects *ProjectService
	tasks    *TaskService
	notes    *NoteService
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithPolicy(t, Policy{})
}

func newFixtureWithPolicy(t *testing.T, policy Policy) *fixture {
	t.Helper()

	s := memstore.New()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	jwt, err := auth.NewJWT("access-secret", "refresh-secret", 15*time.Minute, time.Hour)
	require.NoError(t, err)

	mailer := &recordingMailer{}
	members := NewMembershipService(s)

	return &fixture{
		store:  s,
		mailer: mailer,
		hook:   hook,
		identity: NewIdentityService(s, auth.NewBcryptHasher(bcrypt.MinCost), jwt,
			auth.NewOneTimeTokens(20*time.Minute), mailer,
			mail.Links{FrontendURL: "http://localhost:3000"}, logger),
		members:  members,
		projects: NewProjectService(s, members, logger),
		tasks:    NewTaskService(s, members, policy),
		notes:    NewNoteService(s, members, policy),
	}
}

func (f *fixture) user(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := f.identity.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@x.com",
		Fullname: username,
		Password: "password1",
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) project(t *testing.T, name string, owner *models.User) *models.Project {
	t.Helper()
	p, err := f.projects.Create(context.Background(), CreateProjectInput{Name: name}, owner.ID)
	require.NoError(t, err)
	return p
}

func strPtr(s string) *string { return &s }

var errBoom = errors.New("boom")
