package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/gurkanbulca/taskboard/internal/api"
	"github.com/gurkanbulca/taskboard/internal/database/dbtest"
	"github.com/gurkanbulca/taskboard/internal/filter"
	"github.com/gurkanbulca/taskboard/internal/service"
	"github.com/gurkanbulca/taskboard/pkg/auth"
)

func TestShutdownDrainsRequestsBeforeClosingDatabase(t *testing.T) {
	db := dbtest.Open(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewTokenManager("access", "refresh", 15*time.Minute, time.Hour)
	security := service.NewSecurityLogger(logger)
	media := afero.NewBasePathFs(afero.NewMemMapFs(), "/media")
	tasks := service.NewTaskService(db, security, service.DefaultPageSize)

	srv := api.New(
		api.Config{Location: time.UTC, Media: media, Logger: logger},
		tasks,
		service.NewAccountService(db, tokens, auth.NewPasswordManagerWithCost(bcrypt.MinCost), security),
		service.NewProfileService(db, media, 300, logger),
		tokens,
	)

	started := make(chan struct{})
	srv.App().Get("/slow", func(c *fiber.Ctx) error {
		close(started)
		time.Sleep(200 * time.Millisecond)
		page, err := tasks.OpenTasks(c.UserContext(), filter.DateRange{}, 1)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"total": page.Total})
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.App().Listener(ln) }()

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	type result struct {
		status int
		err    error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String() + "/slow")
		if err != nil {
			done <- result{err: err}
			return
		}
		_ = resp.Body.Close()
		done <- result{status: resp.StatusCode}
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("request never reached the handler")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ops := shutdownOperations(srv, grpcServer, healthServer, db)
	require.Len(t, ops, 1)
	for _, op := range ops {
		require.NoError(t, op(ctx))
	}

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, http.StatusOK, res.status)

	assert.Error(t, db.PingContext(context.Background()), "database should be closed after shutdown")
}
