package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/gurkanbulca/taskboard/internal/service"
)

// errorHandler renders every error returned by a handler as an
// ErrorResponse with the status matching its kind.
func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, resp := classify(err)
		if status >= fiber.StatusInternalServerError {
			logger.ErrorContext(c.UserContext(), "request failed",
				"method", c.Method(),
				"path", c.Path(),
				"error", err,
			)
		}
		return c.Status(status).JSON(resp)
	}
}

func classify(err error) (int, ErrorResponse) {
	var ve *service.ValidationError
	var fe *fiber.Error

	switch {
	case errors.As(err, &ve):
		return fiber.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: ve.Error()}
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound, ErrorResponse{Error: "not_found", Message: err.Error()}
	case errors.Is(err, service.ErrForbidden):
		return fiber.StatusForbidden, ErrorResponse{Error: "forbidden", Message: err.Error()}
	case errors.Is(err, service.ErrConflict):
		return fiber.StatusConflict, ErrorResponse{Error: "conflict", Message: err.Error()}
	case errors.Is(err, service.ErrUnauthenticated):
		return fiber.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: err.Error()}
	case errors.As(err, &fe):
		return fe.Code, ErrorResponse{Error: errorCode(fe.Code), Message: fe.Message}
	default:
		return fiber.StatusInternalServerError, ErrorResponse{Error: "server_error", Message: "Internal Server Error"}
	}
}

func errorCode(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "bad_request"
	case fiber.StatusUnauthorized:
		return "unauthorized"
	case fiber.StatusForbidden:
		return "forbidden"
	case fiber.StatusNotFound:
		return "not_found"
	case fiber.StatusMethodNotAllowed:
		return "method_not_allowed"
	case fiber.StatusRequestEntityTooLarge:
		return "request_too_large"
	}
	if status >= fiber.StatusInternalServerError {
		return "server_error"
	}
	return "error"
}
