package main

import (
	"context"
	"errors"
	"io"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"github.com/gurkanbulca/taskboard/internal/api"
)

// shutdownOperations drains the HTTP API and the gRPC probe together and
// closes the database only once both have stopped, so in-flight requests
// still reach it.
func shutdownOperations(
	httpServer *api.Server,
	grpcServer *grpc.Server,
	healthServer *health.Server,
	db io.Closer,
) map[string]gfshutdown.Operation {
	return map[string]gfshutdown.Operation{
		"servers": func(ctx context.Context) error {
			healthServer.Shutdown()

			var g errgroup.Group
			g.Go(func() error {
				return httpServer.Shutdown(ctx)
			})
			g.Go(func() error {
				grpcServer.GracefulStop()
				return nil
			})
			err := g.Wait()

			if cerr := db.Close(); cerr != nil {
				err = errors.Join(err, cerr)
			}
			return err
		},
	}
}
