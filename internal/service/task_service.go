// internal/service/task_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/taskboard/internal/models"
	"github.com/gurkanbulca/taskboard/internal/repository"
)

// DefaultPageSize is the number of tasks per listing page.
const DefaultPageSize = 5

// TaskService owns the task lifecycle: creation, edits, deletion and the
// open to completed transition, each gated by CanPerform.
type TaskService struct {
	tasks      *repository.TaskRepository
	users      *repository.UserRepository
	security   *SecurityLogger
	validation *ValidationConfig
	pageSize   int
	now        func() time.Time
}

func NewTaskService(db *sqlx.DB, security *SecurityLogger, pageSize int) *TaskService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &TaskService{
		tasks:      repository.NewTaskRepository(db),
		users:      repository.NewUserRepository(db),
		security:   security,
		validation: DefaultValidationConfig(),
		pageSize:   pageSize,
		now:        time.Now,
	}
}

// CreateTaskInput is a new task as submitted by its author.
type CreateTaskInput struct {
	Title       string
	Content     string
	DueDate     *time.Time // nil: one day after posting
	CompleterID *uuid.UUID
}

// UpdateTaskInput lists the fields an author may edit; nil means unchanged.
type UpdateTaskInput struct {
	Title          *string
	Content        *string
	DueDate        *time.Time
	CompleterID    *uuid.UUID
	ClearCompleter bool
}

// Create posts a new open task authored by requesterID.
func (s *TaskService) Create(ctx context.Context, requesterID uuid.UUID, in *CreateTaskInput) (*models.Task, error) {
	requester, err := s.requester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if !CanPerform(ActionCreate, requester, nil) {
		s.security.LogPermissionDenied(ctx, requesterID, ActionCreate, uuid.Nil)
		return nil, fmt.Errorf("only creators can post tasks: %w", ErrForbidden)
	}

	if err := s.validation.validateCreateTask(in); err != nil {
		return nil, err
	}
	if in.CompleterID != nil {
		if err := s.checkCompleter(ctx, *in.CompleterID); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	due := now.Add(models.DefaultDueIn)
	if in.DueDate != nil {
		due = *in.DueDate
	}

	task, err := s.tasks.Create(ctx, &repository.TaskInput{
		Title:       in.Title,
		Content:     in.Content,
		DatePosted:  now,
		DueDate:     due,
		AuthorID:    requester.ID,
		CompleterID: in.CompleterID,
	})
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// Get returns a single task for the detail view.
func (s *TaskService) Get(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "task")
	}
	return task, nil
}

// Update edits a task on behalf of its author.
func (s *TaskService) Update(ctx context.Context, id, requesterID uuid.UUID, in *UpdateTaskInput) (*models.Task, error) {
	task, requester, err := s.load(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}
	if !CanPerform(ActionUpdate, requester, task) {
		s.security.LogPermissionDenied(ctx, requesterID, ActionUpdate, id)
		return nil, fmt.Errorf("only the author can edit a task: %w", ErrForbidden)
	}

	if err := s.validation.validateUpdateTask(task, in); err != nil {
		return nil, err
	}
	if in.CompleterID != nil {
		if err := s.checkCompleter(ctx, *in.CompleterID); err != nil {
			return nil, err
		}
	}

	updated, err := s.tasks.Update(ctx, id, &repository.TaskUpdateInput{
		Title:          in.Title,
		Content:        in.Content,
		DueDate:        in.DueDate,
		CompleterID:    in.CompleterID,
		ClearCompleter: in.ClearCompleter,
	})
	if err != nil {
		return nil, notFound(err, "task")
	}
	return updated, nil
}

// Delete removes a task on behalf of its author.
func (s *TaskService) Delete(ctx context.Context, id, requesterID uuid.UUID) error {
	task, requester, err := s.load(ctx, id, requesterID)
	if err != nil {
		return err
	}
	if !CanPerform(ActionDelete, requester, task) {
		s.security.LogPermissionDenied(ctx, requesterID, ActionDelete, id)
		return fmt.Errorf("only the author can delete a task: %w", ErrForbidden)
	}

	if err := s.tasks.Delete(ctx, id); err != nil {
		return notFound(err, "task")
	}
	return nil
}

// Complete moves an open task to completed. The write is conditional on the
// task still being open and unclaimed or claimed by the requester, so when
// several completers race exactly one succeeds and the rest get ErrForbidden.
func (s *TaskService) Complete(ctx context.Context, id, requesterID uuid.UUID, comment string) (*models.Task, error) {
	task, requester, err := s.load(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}
	if !CanPerform(ActionComplete, requester, task) {
		s.security.LogPermissionDenied(ctx, requesterID, ActionComplete, id)
		return nil, fmt.Errorf("cannot complete task %s: %w", id, ErrForbidden)
	}
	if err := s.validation.validateComment(comment); err != nil {
		return nil, err
	}

	ok, err := s.tasks.Complete(ctx, id, requester.ID, comment, s.now())
	if err != nil {
		return nil, fmt.Errorf("complete task: %w", err)
	}
	if !ok {
		s.security.LogPermissionDenied(ctx, requesterID, ActionComplete, id)
		return nil, fmt.Errorf("task %s was completed concurrently: %w", id, ErrForbidden)
	}
	s.security.LogTaskCompleted(ctx, requesterID, id)

	return s.Get(ctx, id)
}

// load fetches the task and the requesting user of a mutation.
func (s *TaskService) load(ctx context.Context, id, requesterID uuid.UUID) (*models.Task, *models.User, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, nil, notFound(err, "task")
	}
	requester, err := s.requester(ctx, requesterID)
	if err != nil {
		return nil, nil, err
	}
	return task, requester, nil
}

// requester resolves the authenticated user. A token that outlived its
// account is treated as unauthenticated.
func (s *TaskService) requester(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("user %s no longer exists: %w", id, ErrUnauthenticated)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// checkCompleter rejects completer assignments to unknown users and to
// users without the completer role.
func (s *TaskService) checkCompleter(ctx context.Context, id uuid.UUID) error {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return invalid("completer", "user %s does not exist", id)
	}
	if err != nil {
		return err
	}
	if user.Role != models.RoleCompleter || user.IsTombstone() {
		return invalid("completer", "%s is not a completer", user.Username)
	}
	return nil
}
