// internal/repository/task_repository.go
package repository

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/taskboard/internal/database"
	"github.com/gurkanbulca/taskboard/internal/filter"
	"github.com/gurkanbulca/taskboard/internal/models"
)

// Task columns that may be used for ordering and range filtering.
const (
	FieldDatePosted    = "date_posted"
	FieldDateCompleted = "date_completed"
	FieldDueDate       = "due_date"
)

var timeFields = map[string]bool{
	FieldDatePosted:    true,
	FieldDateCompleted: true,
	FieldDueDate:       true,
}

type TaskRepository struct {
	db      sqlx.ExtContext
	dialect string
}

func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{
		db:      db,
		dialect: database.Dialect(db),
	}
}

// WithTx returns a repository bound to tx.
func (r *TaskRepository) WithTx(tx *sqlx.Tx) *TaskRepository {
	return &TaskRepository{db: tx, dialect: r.dialect}
}

// TaskInput carries the values of a new task. Timestamps are stored in UTC.
type TaskInput struct {
	Title       string
	Content     string
	DatePosted  time.Time
	DueDate     time.Time
	AuthorID    uuid.UUID
	CompleterID *uuid.UUID
}

// TaskUpdateInput lists the editable fields; nil means unchanged.
type TaskUpdateInput struct {
	Title          *string
	Content        *string
	DueDate        *time.Time
	CompleterID    *uuid.UUID
	ClearCompleter bool
}

// ListFilter narrows and orders a task listing.
type ListFilter struct {
	Status      *models.TaskStatus
	AuthorID    *uuid.UUID
	CompleterID *uuid.UUID
	DateField   string // column DateRange applies to
	DateRange   filter.DateRange
	SortBy      string // column, always descending
	Limit       int
	Offset      int
}

func (r *TaskRepository) Create(ctx context.Context, in *TaskInput) (*models.Task, error) {
	id := uuid.New()

	query, args := sql.Dialect(r.dialect).
		Insert(tasksTable).
		Columns("id", "title", "content", "date_posted", "due_date", "author_id", "status", "completer_id").
		Values(id, in.Title, in.Content, in.DatePosted.UTC(), in.DueDate.UTC(), in.AuthorID, models.TaskStatusOpen, in.CompleterID).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert task: %w", translate(err))
	}

	return r.GetByID(ctx, id)
}

// selectTasks returns a selector over tasks joined with author and completer
// usernames. Task columns are qualified with the "t" alias.
func (r *TaskRepository) selectTasks() (*sql.Selector, *sql.SelectTable) {
	b := sql.Dialect(r.dialect)
	t := b.Table(tasksTable).As("t")
	a := b.Table(usersTable).As("a")
	c := b.Table(usersTable).As("c")

	s := b.Select(
		t.C("id"), t.C("title"), t.C("content"), t.C("date_posted"), t.C("due_date"),
		t.C("author_id"), t.C("status"), t.C("completer_id"), t.C("date_completed"),
		t.C("completion_comment"),
		sql.As(a.C("username"), "author_username"),
		sql.As(c.C("username"), "completer_username"),
	).
		From(t).
		Join(a).On(t.C("author_id"), a.C("id")).
		LeftJoin(c).On(t.C("completer_id"), c.C("id"))

	return s, t
}

func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	s, t := r.selectTasks()
	query, args := s.Where(sql.EQ(t.C("id"), id)).Query()

	var task models.Task
	if err := sqlx.GetContext(ctx, r.db, &task, query, args...); err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, translate(err))
	}
	normalize(&task)
	return &task, nil
}

func (f ListFilter) predicate(t *sql.SelectTable) (*sql.Predicate, error) {
	var preds []*sql.Predicate

	if f.Status != nil {
		if !f.Status.IsValid() {
			return nil, fmt.Errorf("unknown task status %q", *f.Status)
		}
		preds = append(preds, sql.EQ(t.C("status"), *f.Status))
	}
	if f.AuthorID != nil {
		preds = append(preds, sql.EQ(t.C("author_id"), *f.AuthorID))
	}
	if f.CompleterID != nil {
		preds = append(preds, sql.EQ(t.C("completer_id"), *f.CompleterID))
	}
	if !f.DateRange.IsZero() {
		if !timeFields[f.DateField] {
			return nil, fmt.Errorf("cannot filter tasks by %q", f.DateField)
		}
		if f.DateRange.From != nil {
			preds = append(preds, sql.GTE(t.C(f.DateField), f.DateRange.From.UTC()))
		}
		if f.DateRange.To != nil {
			preds = append(preds, sql.LTE(t.C(f.DateField), f.DateRange.To.UTC()))
		}
	}

	if len(preds) == 0 {
		return nil, nil
	}
	return sql.And(preds...), nil
}

// List returns one page of tasks and the total number of matches.
func (r *TaskRepository) List(ctx context.Context, f ListFilter) ([]*models.Task, int, error) {
	total, err := r.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	s, t := r.selectTasks()
	pred, err := f.predicate(t)
	if err != nil {
		return nil, 0, err
	}
	if pred != nil {
		s.Where(pred)
	}

	sortBy := f.SortBy
	if sortBy == "" {
		sortBy = FieldDatePosted
	}
	if !timeFields[sortBy] {
		return nil, 0, fmt.Errorf("cannot sort tasks by %q", sortBy)
	}
	s.OrderBy(sql.Desc(t.C(sortBy)), sql.Desc(t.C("id")))

	if f.Limit > 0 {
		s.Limit(f.Limit)
	}
	if f.Offset > 0 {
		s.Offset(f.Offset)
	}

	query, args := s.Query()
	var tasks []*models.Task
	if err := sqlx.SelectContext(ctx, r.db, &tasks, query, args...); err != nil {
		return nil, 0, fmt.Errorf("query tasks: %w", err)
	}
	for _, task := range tasks {
		normalize(task)
	}

	return tasks, total, nil
}

// Count returns the number of tasks matching f, ignoring paging.
func (r *TaskRepository) Count(ctx context.Context, f ListFilter) (int, error) {
	b := sql.Dialect(r.dialect)
	t := b.Table(tasksTable).As("t")

	s := b.Select(sql.Count("*")).From(t)
	pred, err := f.predicate(t)
	if err != nil {
		return 0, err
	}
	if pred != nil {
		s.Where(pred)
	}

	query, args := s.Query()
	var n int
	if err := sqlx.GetContext(ctx, r.db, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

func (r *TaskRepository) Update(ctx context.Context, id uuid.UUID, in *TaskUpdateInput) (*models.Task, error) {
	update := sql.Dialect(r.dialect).Update(tasksTable)
	changed := false

	if in.Title != nil {
		update.Set("title", *in.Title)
		changed = true
	}
	if in.Content != nil {
		update.Set("content", *in.Content)
		changed = true
	}
	if in.DueDate != nil {
		update.Set("due_date", in.DueDate.UTC())
		changed = true
	}
	switch {
	case in.ClearCompleter:
		update.SetNull("completer_id")
		changed = true
	case in.CompleterID != nil:
		update.Set("completer_id", *in.CompleterID)
		changed = true
	}

	if changed {
		query, args := update.Where(sql.EQ("id", id)).Query()
		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("update task %s: %w", id, translate(err))
		}
		if err := expectRows(res); err != nil {
			return nil, fmt.Errorf("update task %s: %w", id, err)
		}
	}

	return r.GetByID(ctx, id)
}

// Complete marks an open task completed in a single conditional statement.
// The row only changes while it is still open and unclaimed or claimed by
// completerID, so of several concurrent calls at most one reports true.
func (r *TaskRepository) Complete(ctx context.Context, id, completerID uuid.UUID, comment string, at time.Time) (bool, error) {
	query, args := sql.Dialect(r.dialect).
		Update(tasksTable).
		Set("status", models.TaskStatusCompleted).
		Set("completer_id", completerID).
		Set("date_completed", at.UTC()).
		Set("completion_comment", comment).
		Where(sql.And(
			sql.EQ("id", id),
			sql.EQ("status", models.TaskStatusOpen),
			sql.Or(
				sql.IsNull("completer_id"),
				sql.EQ("completer_id", completerID),
			),
		)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("complete task %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("complete task %s: %w", id, err)
	}
	return n == 1, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query, args := sql.Dialect(r.dialect).
		Delete(tasksTable).
		Where(sql.EQ("id", id)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	if err := expectRows(res); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

// ReassignUser moves authorship and completion of every task referencing
// from over to to.
func (r *TaskRepository) ReassignUser(ctx context.Context, from, to uuid.UUID) error {
	b := sql.Dialect(r.dialect)
	for _, column := range []string{"author_id", "completer_id"} {
		query, args := b.Update(tasksTable).
			Set(column, to).
			Where(sql.EQ(column, from)).
			Query()
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("reassign %s: %w", column, err)
		}
	}
	return nil
}

type rowsAffected interface {
	RowsAffected() (int64, error)
}

func expectRows(res rowsAffected) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// normalize converts timestamps read back from the driver to UTC.
func normalize(t *models.Task) {
	t.DatePosted = t.DatePosted.UTC()
	t.DueDate = t.DueDate.UTC()
	if t.DateCompleted != nil {
		dc := t.DateCompleted.UTC()
		t.DateCompleted = &dc
	}
}
