package api

import (
	"time"

	"github.com/gurkanbulca/taskboard/internal/models"
	"github.com/gurkanbulca/taskboard/internal/service"
)

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse represents an authentication token response.
type TokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token,omitempty"`
	ExpiresIn    int64         `json:"expires_in"`
	TokenType    string        `json:"token_type"`
	User         *UserResponse `json:"user,omitempty"`
}

// DueDateInput is the split date and time picker of the task form.
type DueDateInput struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// CreateTaskRequest represents a new task.
type CreateTaskRequest struct {
	Title       string        `json:"title"`
	Content     string        `json:"content"`
	DueDate     *DueDateInput `json:"due_date"`
	CompleterID string        `json:"completer_id"`
}

// UpdateTaskRequest carries the fields to change. An empty completer_id
// removes the claim.
type UpdateTaskRequest struct {
	Title       *string       `json:"title"`
	Content     *string       `json:"content"`
	DueDate     *DueDateInput `json:"due_date"`
	CompleterID *string       `json:"completer_id"`
}

// CompleteTaskRequest represents a completion.
type CompleteTaskRequest struct {
	Comment string `json:"comment"`
}

// UpdateAccountRequest represents a change to the caller's account.
type UpdateAccountRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Role     *string `json:"role"`
}

// TaskResponse represents a task.
type TaskResponse struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Content           string     `json:"content"`
	Status            string     `json:"status"`
	DatePosted        time.Time  `json:"date_posted"`
	DueDate           time.Time  `json:"due_date"`
	Author            string     `json:"author"`
	AuthorID          string     `json:"author_id"`
	Completer         *string    `json:"completer,omitempty"`
	CompleterID       *string    `json:"completer_id,omitempty"`
	DateCompleted     *time.Time `json:"date_completed,omitempty"`
	CompletionComment *string    `json:"completion_comment,omitempty"`
}

// TaskPageResponse represents one page of a task listing.
type TaskPageResponse struct {
	Tasks       []TaskResponse `json:"tasks"`
	Page        int            `json:"page"`
	NumPages    int            `json:"num_pages"`
	Total       int            `json:"total"`
	HasNext     bool           `json:"has_next"`
	HasPrevious bool           `json:"has_previous"`
}

// UserResponse represents a user.
type UserResponse struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email,omitempty"`
	Role       string    `json:"role"`
	DateJoined time.Time `json:"date_joined"`
}

// ProfileResponse represents a user together with its profile.
type ProfileResponse struct {
	User     UserResponse `json:"user"`
	Image    string       `json:"image"`
	ImageURL string       `json:"image_url"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func toTaskResponse(t *models.Task) TaskResponse {
	resp := TaskResponse{
		ID:                t.ID.String(),
		Title:             t.Title,
		Content:           t.Content,
		Status:            string(t.Status),
		DatePosted:        t.DatePosted,
		DueDate:           t.DueDate,
		Author:            t.AuthorUsername,
		AuthorID:          t.AuthorID.String(),
		Completer:         t.CompleterUsername,
		DateCompleted:     t.DateCompleted,
		CompletionComment: t.CompletionComment,
	}
	if t.CompleterID != nil {
		id := t.CompleterID.String()
		resp.CompleterID = &id
	}
	return resp
}

func toTaskPageResponse(p *service.Page[*models.Task]) TaskPageResponse {
	tasks := make([]TaskResponse, 0, len(p.Items))
	for _, t := range p.Items {
		tasks = append(tasks, toTaskResponse(t))
	}
	return TaskPageResponse{
		Tasks:       tasks,
		Page:        p.Number,
		NumPages:    p.NumPages,
		Total:       p.Total,
		HasNext:     p.HasNext,
		HasPrevious: p.HasPrevious,
	}
}

// toUserResponse hides the email unless withEmail is set.
func toUserResponse(u *models.User, withEmail bool) UserResponse {
	resp := UserResponse{
		ID:         u.ID.String(),
		Username:   u.Username,
		Role:       string(u.Role),
		DateJoined: u.DateJoined,
	}
	if withEmail {
		resp.Email = u.Email
	}
	return resp
}

func toProfileResponse(u *models.User, p *models.Profile, withEmail bool) ProfileResponse {
	return ProfileResponse{
		User:     toUserResponse(u, withEmail),
		Image:    p.Image,
		ImageURL: mediaPrefix + "/" + p.Image,
	}
}
