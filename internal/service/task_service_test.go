package service

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/gurkanbulca/taskboard/internal/models"
)

func TestCanPerform(t *testing.T) {
	alice := &models.User{ID: uuid.New(), Username: "alice", Role: models.RoleCreator}
	dave := &models.User{ID: uuid.New(), Username: "dave", Role: models.RoleCreator}
	bob := &models.User{ID: uuid.New(), Username: "bob", Role: models.RoleCompleter}
	carol := &models.User{ID: uuid.New(), Username: "carol", Role: models.RoleCompleter}
	tombstone := &models.User{ID: models.TombstoneUserID, Username: models.TombstoneUsername, Role: models.RoleCreator}

	open := &models.Task{ID: uuid.New(), AuthorID: alice.ID, Status: models.TaskStatusOpen}
	claimed := &models.Task{ID: uuid.New(), AuthorID: alice.ID, Status: models.TaskStatusOpen, CompleterID: &bob.ID}
	done := &models.Task{ID: uuid.New(), AuthorID: alice.ID, Status: models.TaskStatusCompleted, CompleterID: &bob.ID}
	inProgress := &models.Task{ID: uuid.New(), AuthorID: alice.ID, Status: models.TaskStatusInProgress}

	tests := []struct {
		name      string
		action    Action
		requester *models.User
		task      *models.Task
		want      bool
	}{
		{name: "creator creates", action: ActionCreate, requester: alice, want: true},
		{name: "completer cannot create", action: ActionCreate, requester: bob, want: false},
		{name: "anonymous cannot create", action: ActionCreate, requester: nil, want: false},
		{name: "tombstone cannot create", action: ActionCreate, requester: tombstone, want: false},
		{name: "author updates", action: ActionUpdate, requester: alice, task: open, want: true},
		{name: "other creator cannot update", action: ActionUpdate, requester: dave, task: open, want: false},
		{name: "completer cannot update", action: ActionUpdate, requester: bob, task: claimed, want: false},
		{name: "author deletes completed task", action: ActionDelete, requester: alice, task: done, want: true},
		{name: "other creator cannot delete", action: ActionDelete, requester: dave, task: open, want: false},
		{name: "completer completes unclaimed", action: ActionComplete, requester: carol, task: open, want: true},
		{name: "claimant completes", action: ActionComplete, requester: bob, task: claimed, want: true},
		{name: "other completer cannot take claim", action: ActionComplete, requester: carol, task: claimed, want: false},
		{name: "completed is terminal", action: ActionComplete, requester: bob, task: done, want: false},
		{name: "in progress is not completable", action: ActionComplete, requester: bob, task: inProgress, want: false},
		{name: "author cannot complete", action: ActionComplete, requester: alice, task: open, want: false},
		{name: "nil task", action: ActionComplete, requester: bob, task: nil, want: false},
		{name: "unknown action", action: Action("archive"), requester: alice, task: open, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanPerform(tt.action, tt.requester, tt.task))
		})
	}
}

func TestTaskService_Create(t *testing.T) {
	h := NewTestHelpers(t)
	svc := h.TaskService()
	ctx := context.Background()

	alice := h.CreateCreator("alice")
	bob := h.CreateCompleter("bob")
	dave := h.CreateCreator("dave")
	due := time.Date(2024, 3, 1, 17, 30, 0, 0, time.UTC)
	unknown := uuid.New()

	tests := []struct {
		name      string
		requester uuid.UUID
		input     *CreateTaskInput
		wantErr   error
		wantField string
		check     func(*testing.T, *models.Task)
	}{
		{
			name:      "creator with defaults",
			requester: alice.ID,
			input:     &CreateTaskInput{Title: "fix bug", Content: "it crashes"},
			check: func(t *testing.T, task *models.Task) {
				assert.Equal(t, models.TaskStatusOpen, task.Status)
				assert.Nil(t, task.DateCompleted)
				assert.Nil(t, task.CompletionComment)
				assert.Nil(t, task.CompleterID)
				assert.Equal(t, alice.ID, task.AuthorID)
				assert.Equal(t, "alice", task.AuthorUsername)
				assert.True(t, task.DueDate.Equal(task.DatePosted.Add(24*time.Hour)))
			},
		},
		{
			name:      "explicit due date and claim",
			requester: alice.ID,
			input:     &CreateTaskInput{Title: "ship", Content: "release", DueDate: &due, CompleterID: &bob.ID},
			check: func(t *testing.T, task *models.Task) {
				assert.True(t, task.DueDate.Equal(due))
				assert.True(t, task.IsClaimedBy(bob.ID))
				assert.Equal(t, models.TaskStatusOpen, task.Status)
			},
		},
		{
			name:      "completer cannot create",
			requester: bob.ID,
			input:     &CreateTaskInput{Title: "nope", Content: "nope"},
			wantErr:   ErrForbidden,
		},
		{
			name:      "deleted account",
			requester: uuid.New(),
			input:     &CreateTaskInput{Title: "ghost", Content: "ghost"},
			wantErr:   ErrUnauthenticated,
		},
		{
			name:      "missing title",
			requester: alice.ID,
			input:     &CreateTaskInput{Title: "  ", Content: "body"},
			wantField: "title",
		},
		{
			name:      "title too long",
			requester: alice.ID,
			input:     &CreateTaskInput{Title: strings.Repeat("x", 201), Content: "body"},
			wantField: "title",
		},
		{
			name:      "missing content",
			requester: alice.ID,
			input:     &CreateTaskInput{Title: "t"},
			wantField: "content",
		},
		{
			name:      "completer must have completer role",
			requester: alice.ID,
			input:     &CreateTaskInput{Title: "t", Content: "c", CompleterID: &dave.ID},
			wantField: "completer",
		},
		{
			name:      "completer must exist",
			requester: alice.ID,
			input:     &CreateTaskInput{Title: "t", Content: "c", CompleterID: &unknown},
			wantField: "completer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := svc.Create(ctx, tt.requester, tt.input)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantField != "":
				var ve *ValidationError
				require.True(t, errors.As(err, &ve), "expected validation error, got %v", err)
				assert.Equal(t, tt.wantField, ve.Field)
			default:
				require.NoError(t, err)
				tt.check(t, task)
			}
		})
	}

	title := strings.Repeat("x", 200)
	_, err := svc.Create(ctx, alice.ID, &CreateTaskInput{Title: title, Content: "c"})
	assert.NoError(t, err, "200 characters is the limit, not over it")
}

func TestTaskService_UpdateAndDelete(t *testing.T) {
	h := NewTestHelpers(t)
	svc := h.TaskService()
	ctx := context.Background()

	alice := h.CreateCreator("alice")
	dave := h.CreateCreator("dave")
	bob := h.CreateCompleter("bob")
	task := h.CreateTask(alice, "draft")

	title := "final"
	_, err := svc.Update(ctx, task.ID, dave.ID, &UpdateTaskInput{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Update(ctx, task.ID, bob.ID, &UpdateTaskInput{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Update(ctx, uuid.New(), alice.ID, &UpdateTaskInput{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)

	empty := ""
	_, err = svc.Update(ctx, task.ID, alice.ID, &UpdateTaskInput{Title: &empty})
	assert.True(t, IsValidationError(err))

	updated, err := svc.Update(ctx, task.ID, alice.ID, &UpdateTaskInput{Title: &title, CompleterID: &bob.ID})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Title)
	assert.True(t, updated.IsClaimedBy(bob.ID))
	assert.Equal(t, models.TaskStatusOpen, updated.Status)

	updated, err = svc.Update(ctx, task.ID, alice.ID, &UpdateTaskInput{ClearCompleter: true})
	require.NoError(t, err)
	assert.Nil(t, updated.CompleterID)

	require.ErrorIs(t, svc.Delete(ctx, task.ID, dave.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, task.ID, alice.ID))
	assert.ErrorIs(t, svc.Delete(ctx, task.ID, alice.ID), ErrNotFound)

	_, err = svc.Get(ctx, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskService_CompleterIsFrozenAfterCompletion(t *testing.T) {
	h := NewTestHelpers(t)
	svc := h.TaskService()
	ctx := context.Background()

	alice := h.CreateCreator("alice")
	bob := h.CreateCompleter("bob")
	carol := h.CreateCompleter("carol")
	task := h.CreateTask(alice, "t")

	_, err := svc.Complete(ctx, task.ID, bob.ID, "done")
	require.NoError(t, err)

	_, err = svc.Update(ctx, task.ID, alice.ID, &UpdateTaskInput{CompleterID: &carol.ID})
	assert.True(t, IsValidationError(err))

	title := "renamed after completion"
	updated, err := svc.Update(ctx, task.ID, alice.ID, &UpdateTaskInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, models.TaskStatusCompleted, updated.Status)
}

func TestTaskService_Complete(t *testing.T) {
	h := NewTestHelpers(t)
	svc := h.TaskService()
	ctx := context.Background()

	alice := h.CreateCreator("alice")
	bob := h.CreateCompleter("bob")
	carol := h.CreateCompleter("carol")

	t.Run("author cannot complete", func(t *testing.T) {
		task := h.CreateTask(alice, "a")
		_, err := svc.Complete(ctx, task.ID, alice.ID, "")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("missing task", func(t *testing.T) {
		_, err := svc.Complete(ctx, uuid.New(), bob.ID, "")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("claim is respected", func(t *testing.T) {
		task, err := svc.Create(ctx, alice.ID, &CreateTaskInput{Title: "b", Content: "c", CompleterID: &bob.ID})
		require.NoError(t, err)

		_, err = svc.Complete(ctx, task.ID, carol.ID, "mine")
		assert.ErrorIs(t, err, ErrForbidden)

		done, err := svc.Complete(ctx, task.ID, bob.ID, "")
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusCompleted, done.Status)
		require.NotNil(t, done.CompletionComment)
		assert.Equal(t, "", *done.CompletionComment)
	})

	t.Run("completed is terminal", func(t *testing.T) {
		task := h.CreateTask(alice, "c")
		_, err := svc.Complete(ctx, task.ID, bob.ID, "once")
		require.NoError(t, err)

		_, err = svc.Complete(ctx, task.ID, bob.ID, "twice")
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

// Scenario: alice posts "fix bug", bob completes it, carol is too late.
func TestTaskService_CompletionScenario(t *testing.T) {
	h := NewTestHelpers(t)
	svc := h.TaskService()
	ctx := context.Background()

	alice := h.CreateCreator("alice")
	bob := h.CreateCompleter("bob")
	carol := h.CreateCompleter("carol")

	task, err := svc.Create(ctx, alice.ID, &CreateTaskInput{Title: "fix bug", Content: "the login page 500s"})
	require.NoError(t, err)
	assert.True(t, task.DueDate.Equal(task.DatePosted.Add(models.DefaultDueIn)))

	done, err := svc.Complete(ctx, task.ID, bob.ID, "done")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, done.Status)
	assert.True(t, done.IsClaimedBy(bob.ID))
	require.NotNil(t, done.CompleterUsername)
	assert.Equal(t, "bob", *done.CompleterUsername)
	require.NotNil(t, done.CompletionComment)
	assert.Equal(t, "done", *done.CompletionComment)
	require.NotNil(t, done.DateCompleted)
	assert.True(t, done.DateCompleted.After(done.DatePosted))

	_, err = svc.Complete(ctx, task.ID, carol.ID, "me too")
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := svc.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, got.IsClaimedBy(bob.ID))
	assert.Equal(t, "done", *got.CompletionComment)
}

func TestTaskService_ConcurrentCompletion(t *testing.T) {
	h := NewTestHelpers(t)
	svc := h.TaskService()
	ctx := context.Background()

	alice := h.CreateCreator("alice")
	task := h.CreateTask(alice, "race")

	completers := make([]*models.User, 8)
	for i := range completers {
		completers[i] = h.CreateCompleter("completer" + string(rune('a'+i)))
	}

	var won, lost atomic.Int32
	var g errgroup.Group
	for _, c := range completers {
		c := c
		g.Go(func() error {
			_, err := svc.Complete(ctx, task.ID, c.ID, "by "+c.Username)
			switch {
			case err == nil:
				won.Add(1)
			case errors.Is(err, ErrForbidden):
				lost.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), won.Load())
	assert.Equal(t, int32(len(completers)-1), lost.Load())

	got, err := svc.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, got.Status)
	require.NotNil(t, got.CompleterUsername)
	assert.Equal(t, "by "+*got.CompleterUsername, *got.CompletionComment)
}
