package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gurkanbulca/taskboard/internal/filter"
	"github.com/gurkanbulca/taskboard/internal/models"
	"github.com/gurkanbulca/taskboard/internal/repository"
)

// CompletedRangeField is the column the completed-task date range applies
// to. Completed listings are ordered by completion date but filtered by
// posting date.
const CompletedRangeField = repository.FieldDatePosted

// LastPage selects the final page of a listing.
const LastPage = -1

// Page is one page of a paginated listing.
type Page[T any] struct {
	Items       []T
	Number      int
	NumPages    int
	Total       int
	HasNext     bool
	HasPrevious bool
}

// ParsePage reads the page query parameter. Empty means the first page and
// "last" the final one; anything that is not a positive number is a missing
// page.
func ParsePage(raw string) (int, error) {
	switch raw {
	case "":
		return 1, nil
	case "last":
		return LastPage, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid page %q: %w", raw, ErrNotFound)
	}
	return n, nil
}

// OpenTasks lists open tasks, newest first, optionally limited to those
// posted within rng.
func (s *TaskService) OpenTasks(ctx context.Context, rng filter.DateRange, page int) (*Page[*models.Task], error) {
	status := models.TaskStatusOpen
	return s.paginate(ctx, repository.ListFilter{
		Status:    &status,
		DateField: repository.FieldDatePosted,
		DateRange: rng,
		SortBy:    repository.FieldDatePosted,
	}, page)
}

// CompletedTasks lists completed tasks, most recently completed first.
func (s *TaskService) CompletedTasks(ctx context.Context, rng filter.DateRange, page int) (*Page[*models.Task], error) {
	status := models.TaskStatusCompleted
	return s.paginate(ctx, repository.ListFilter{
		Status:    &status,
		DateField: CompletedRangeField,
		DateRange: rng,
		SortBy:    repository.FieldDateCompleted,
	}, page)
}

// TasksByAuthor lists every task posted by username, newest first.
func (s *TaskService) TasksByAuthor(ctx context.Context, username string, page int) (*Page[*models.Task], error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err, "user "+username)
	}
	return s.paginate(ctx, repository.ListFilter{
		AuthorID: &author.ID,
		SortBy:   repository.FieldDatePosted,
	}, page)
}

func (s *TaskService) paginate(ctx context.Context, f repository.ListFilter, page int) (*Page[*models.Task], error) {
	if page == LastPage {
		total, err := s.tasks.Count(ctx, f)
		if err != nil {
			return nil, err
		}
		page = numPages(total, s.pageSize)
	}
	if page < 1 {
		return nil, fmt.Errorf("invalid page %d: %w", page, ErrNotFound)
	}

	f.Limit = s.pageSize
	f.Offset = (page - 1) * s.pageSize
	tasks, total, err := s.tasks.List(ctx, f)
	if err != nil {
		return nil, err
	}

	pages := numPages(total, s.pageSize)
	if page > pages {
		return nil, fmt.Errorf("page %d of %d: %w", page, pages, ErrNotFound)
	}

	return &Page[*models.Task]{
		Items:       tasks,
		Number:      page,
		NumPages:    pages,
		Total:       total,
		HasNext:     page < pages,
		HasPrevious: page > 1,
	}, nil
}

// numPages never reports less than one page so that an empty listing still
// has a valid first page.
func numPages(total, size int) int {
	if total == 0 {
		return 1
	}
	return (total + size - 1) / size
}
