package service

import (
	"strings"
	"unicode/utf8"

	"github.com/gurkanbulca/taskboard/internal/models"
)

// ValidationConfig holds validation configuration
type ValidationConfig struct {
	MaxTitleLength   int
	MaxContentLength int
	MaxCommentLength int
}

// DefaultValidationConfig returns default validation configuration
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		MaxTitleLength:   200,
		MaxContentLength: 10000,
		MaxCommentLength: 5000,
	}
}

func (v *ValidationConfig) validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return invalid("title", "title is required")
	}
	if utf8.RuneCountInString(title) > v.MaxTitleLength {
		return invalid("title", "title too long (max %d characters)", v.MaxTitleLength)
	}
	return nil
}

func (v *ValidationConfig) validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return invalid("content", "content is required")
	}
	if utf8.RuneCountInString(content) > v.MaxContentLength {
		return invalid("content", "content too long (max %d characters)", v.MaxContentLength)
	}
	return nil
}

func (v *ValidationConfig) validateCreateTask(in *CreateTaskInput) error {
	if err := v.validateTitle(in.Title); err != nil {
		return err
	}
	return v.validateContent(in.Content)
}

func (v *ValidationConfig) validateUpdateTask(task *models.Task, in *UpdateTaskInput) error {
	if in.Title != nil {
		if err := v.validateTitle(*in.Title); err != nil {
			return err
		}
	}
	if in.Content != nil {
		if err := v.validateContent(*in.Content); err != nil {
			return err
		}
	}
	if in.CompleterID != nil && in.ClearCompleter {
		return invalid("completer", "cannot both set and clear the completer")
	}
	if (in.CompleterID != nil || in.ClearCompleter) && !task.IsOpen() {
		return invalid("completer", "completer of a %s task cannot change", task.Status)
	}
	return nil
}

func (v *ValidationConfig) validateComment(comment string) error {
	if utf8.RuneCountInString(comment) > v.MaxCommentLength {
		return invalid("comment", "comment too long (max %d characters)", v.MaxCommentLength)
	}
	return nil
}
