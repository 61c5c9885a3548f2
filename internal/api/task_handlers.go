package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/gurkanbulca/taskboard/internal/filter"
	"github.com/gurkanbulca/taskboard/internal/middleware"
	"github.com/gurkanbulca/taskboard/internal/service"
)

// TaskHandlers serves the task endpoints.
type TaskHandlers struct {
	tasks *service.TaskService
	loc   *time.Location
}

func NewTaskHandlers(tasks *service.TaskService, loc *time.Location) *TaskHandlers {
	if loc == nil {
		loc = time.UTC
	}
	return &TaskHandlers{tasks: tasks, loc: loc}
}

// listParams reads the page and date range of a listing. A malformed date
// range is ignored; a malformed page is a missing page.
func (h *TaskHandlers) listParams(c *fiber.Ctx) (filter.DateRange, int, error) {
	page, err := service.ParsePage(c.Query("page"))
	if err != nil {
		return filter.DateRange{}, 0, err
	}
	rng := filter.ParseDateRange(c.Query(filter.ParamAfter), c.Query(filter.ParamBefore), h.loc)
	return rng, page, nil
}

// ListOpen handles GET /tasks.
func (h *TaskHandlers) ListOpen(c *fiber.Ctx) error {
	rng, page, err := h.listParams(c)
	if err != nil {
		return err
	}
	p, err := h.tasks.OpenTasks(c.UserContext(), rng, page)
	if err != nil {
		return err
	}
	return c.JSON(toTaskPageResponse(p))
}

// ListCompleted handles GET /tasks/completed.
func (h *TaskHandlers) ListCompleted(c *fiber.Ctx) error {
	rng, page, err := h.listParams(c)
	if err != nil {
		return err
	}
	p, err := h.tasks.CompletedTasks(c.UserContext(), rng, page)
	if err != nil {
		return err
	}
	return c.JSON(toTaskPageResponse(p))
}

// ListByAuthor handles GET /users/:username/tasks.
func (h *TaskHandlers) ListByAuthor(c *fiber.Ctx) error {
	page, err := service.ParsePage(c.Query("page"))
	if err != nil {
		return err
	}
	p, err := h.tasks.TasksByAuthor(c.UserContext(), c.Params("username"), page)
	if err != nil {
		return err
	}
	return c.JSON(toTaskPageResponse(p))
}

// Get handles GET /tasks/:id.
func (h *TaskHandlers) Get(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	task, err := h.tasks.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(toTaskResponse(task))
}

// Create handles POST /tasks.
func (h *TaskHandlers) Create(c *fiber.Ctx) error {
	requester, err := requesterID(c)
	if err != nil {
		return err
	}

	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	in := &service.CreateTaskInput{Title: req.Title, Content: req.Content}
	if in.DueDate, err = h.dueDate(req.DueDate); err != nil {
		return err
	}
	if req.CompleterID != "" {
		id, err := parseUserID(req.CompleterID)
		if err != nil {
			return err
		}
		in.CompleterID = &id
	}

	task, err := h.tasks.Create(c.UserContext(), requester, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toTaskResponse(task))
}

// Update handles PATCH /tasks/:id.
func (h *TaskHandlers) Update(c *fiber.Ctx) error {
	requester, err := requesterID(c)
	if err != nil {
		return err
	}
	id, err := taskID(c)
	if err != nil {
		return err
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	in := &service.UpdateTaskInput{Title: req.Title, Content: req.Content}
	if in.DueDate, err = h.dueDate(req.DueDate); err != nil {
		return err
	}
	if req.CompleterID != nil {
		if *req.CompleterID == "" {
			in.ClearCompleter = true
		} else {
			cid, err := parseUserID(*req.CompleterID)
			if err != nil {
				return err
			}
			in.CompleterID = &cid
		}
	}

	task, err := h.tasks.Update(c.UserContext(), id, requester, in)
	if err != nil {
		return err
	}
	return c.JSON(toTaskResponse(task))
}

// Delete handles DELETE /tasks/:id.
func (h *TaskHandlers) Delete(c *fiber.Ctx) error {
	requester, err := requesterID(c)
	if err != nil {
		return err
	}
	id, err := taskID(c)
	if err != nil {
		return err
	}

	if err := h.tasks.Delete(c.UserContext(), id, requester); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Complete handles POST /tasks/:id/complete. The body is optional.
func (h *TaskHandlers) Complete(c *fiber.Ctx) error {
	requester, err := requesterID(c)
	if err != nil {
		return err
	}
	id, err := taskID(c)
	if err != nil {
		return err
	}

	var req CompleteTaskRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}

	task, err := h.tasks.Complete(c.UserContext(), id, requester, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(toTaskResponse(task))
}

func (h *TaskHandlers) dueDate(in *DueDateInput) (*time.Time, error) {
	if in == nil {
		return nil, nil
	}
	due, err := filter.ParseDueDate(in.Date, in.Time, h.loc)
	if errors.Is(err, filter.ErrInvalidDueDate) {
		return nil, &service.ValidationError{Field: "due_date", Message: err.Error()}
	}
	return due, err
}

// taskID parses the :id route parameter. Malformed IDs name no task.
func taskID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusNotFound, "task not found")
	}
	return id, nil
}

func parseUserID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, &service.ValidationError{Field: "completer_id", Message: "not a valid user id"}
	}
	return id, nil
}

func requesterID(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := middleware.RequesterID(c)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}
	return id, nil
}
