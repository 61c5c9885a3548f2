package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gurkanbulca/taskboard/internal/database/dbtest"
	"github.com/gurkanbulca/taskboard/internal/models"
	"github.com/gurkanbulca/taskboard/pkg/auth"
)

const testPassword = "Secret123"

// fakeClock advances by one minute on every reading so consecutive tasks
// get distinct timestamps.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

// TestHelpers provides common test utilities
type TestHelpers struct {
	t               *testing.T
	db              *sqlx.DB
	clock           *fakeClock
	passwordManager *auth.PasswordManager
	tokenManager    *auth.TokenManager
	securityLogger  *SecurityLogger
}

// NewTestHelpers opens a fresh database for t.
func NewTestHelpers(t *testing.T) *TestHelpers {
	return &TestHelpers{
		t:               t,
		db:              dbtest.Open(t),
		clock:           newFakeClock(),
		passwordManager: auth.NewPasswordManagerWithCost(bcrypt.MinCost),
		tokenManager:    auth.NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, time.Hour),
		securityLogger:  NewSecurityLogger(discardLogger()),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (h *TestHelpers) TaskService() *TaskService {
	s := NewTaskService(h.db, h.securityLogger, DefaultPageSize)
	s.now = h.clock.Now
	return s
}

func (h *TestHelpers) AccountService() *AccountService {
	s := NewAccountService(h.db, h.tokenManager, h.passwordManager, h.securityLogger)
	s.now = h.clock.Now
	return s
}

// CreateUser registers a user with its profile.
func (h *TestHelpers) CreateUser(username string, role models.Role) *models.User {
	h.t.Helper()
	u, err := h.AccountService().Register(context.Background(), &RegisterInput{
		Username:        username,
		Email:           username + "@example.com",
		Role:            string(role),
		Password:        testPassword,
		PasswordConfirm: testPassword,
	})
	require.NoError(h.t, err)
	return u
}

func (h *TestHelpers) CreateCreator(username string) *models.User {
	return h.CreateUser(username, models.RoleCreator)
}

func (h *TestHelpers) CreateCompleter(username string) *models.User {
	return h.CreateUser(username, models.RoleCompleter)
}

// CreateTask posts a task with default content as author.
func (h *TestHelpers) CreateTask(author *models.User, title string) *models.Task {
	h.t.Helper()
	task, err := h.TaskService().Create(context.Background(), author.ID, &CreateTaskInput{
		Title:   title,
		Content: "content of " + title,
	})
	require.NoError(h.t, err)
	return task
}
