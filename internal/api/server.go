// Package api exposes the task board over HTTP with fiber.
package api

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/afero"

	"github.com/gurkanbulca/taskboard/internal/middleware"
	"github.com/gurkanbulca/taskboard/internal/service"
	"github.com/gurkanbulca/taskboard/pkg/auth"
)

const mediaPrefix = "/media"

// Config configures the HTTP server.
type Config struct {
	Location  *time.Location // time zone of date filters and due dates
	Media     afero.Fs       // served under /media
	Logger    *slog.Logger
	AccessLog io.Writer // nil disables access logging
	BodyLimit int
}

// Server is the HTTP API.
type Server struct {
	app    *fiber.App
	logger *slog.Logger
}

// New wires the handlers of all API routes.
func New(
	cfg Config,
	tasks *service.TaskService,
	accounts *service.AccountService,
	profiles *service.ProfileService,
	tokenManager *auth.TokenManager,
) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = service.MaxProfileImageBytes + 1<<20
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(cfg.Logger),
		BodyLimit:             cfg.BodyLimit,
		AppName:               "taskboard",
	})

	app.Use(recover.New())
	if cfg.AccessLog != nil {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
			Output: cfg.AccessLog,
		}))
	}
	app.Use(middleware.ClientInfoExtractor())

	s := &Server{app: app, logger: cfg.Logger}
	s.setupRoutes(
		NewTaskHandlers(tasks, cfg.Location),
		NewAccountHandlers(accounts, profiles),
		middleware.NewAuthMiddleware(tokenManager),
	)
	if cfg.Media != nil {
		app.Use(mediaPrefix, filesystem.New(filesystem.Config{
			Root: afero.NewHttpFs(cfg.Media),
		}))
	}

	return s
}

func (s *Server) setupRoutes(tasks *TaskHandlers, accounts *AccountHandlers, authMW *middleware.AuthMiddleware) {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "taskboard",
		})
	})

	v1 := s.app.Group("/api/v1")
	requireAuth := authMW.Required()

	authRoutes := v1.Group("/auth")
	authRoutes.Post("/register", accounts.Register)
	authRoutes.Post("/login", accounts.Login)
	authRoutes.Post("/refresh", accounts.Refresh)

	taskRoutes := v1.Group("/tasks")
	taskRoutes.Get("/", tasks.ListOpen)
	taskRoutes.Get("/completed", tasks.ListCompleted)
	taskRoutes.Get("/:id", tasks.Get)
	taskRoutes.Post("/", requireAuth, tasks.Create)
	taskRoutes.Patch("/:id", requireAuth, tasks.Update)
	taskRoutes.Delete("/:id", requireAuth, tasks.Delete)
	taskRoutes.Post("/:id/complete", requireAuth, tasks.Complete)

	userRoutes := v1.Group("/users/:username")
	userRoutes.Get("/tasks", tasks.ListByAuthor)
	userRoutes.Get("/profile", accounts.PublicProfile)

	profile := v1.Group("/profile", requireAuth)
	profile.Get("/", accounts.Me)
	profile.Patch("/", accounts.UpdateAccount)
	profile.Delete("/", accounts.DeleteAccount)
	profile.Post("/image", accounts.UploadImage)
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves HTTP on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("HTTP server listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
