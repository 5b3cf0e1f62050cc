// Package server runs the HTTP and gRPC listeners until ctx is done.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

type Listeners struct {
	HTTP     *http.Server
	GRPC     *grpc.Server
	GRPCAddr string
	// Metrics is nil when metrics are disabled.
	Metrics *http.Server
	// Workers run alongside the listeners and must return once ctx is done.
	Workers []func(ctx context.Context) error
}

// Run serves every listener and shuts all of them down when ctx is done or
// any of them fails.
func Run(ctx context.Context, log *slog.Logger, l Listeners, shutdownTimeout time.Duration) error {
	var lis net.Listener
	if l.GRPC != nil {
		var err error
		if lis, err = net.Listen("tcp", l.GRPCAddr); err != nil {
			return fmt.Errorf("grpc listen %s: %w", l.GRPCAddr, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	serveHTTP := func(name string, srv *http.Server) {
		g.Go(func() error {
			log.Info("http listen", "listener", name, "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("%s listener: %w", name, err)
			}
			return nil
		})
	}
	if l.HTTP != nil {
		serveHTTP("api", l.HTTP)
	}
	if l.Metrics != nil {
		serveHTTP("metrics", l.Metrics)
	}

	if l.GRPC != nil {
		g.Go(func() error {
			log.Info("grpc listen", "addr", l.GRPCAddr)
			if err := l.GRPC.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("grpc listener: %w", err)
			}
			return nil
		})
	}

	for _, w := range l.Workers {
		g.Go(func() error { return w(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, srv := range []*http.Server{l.HTTP, l.Metrics} {
			if srv == nil {
				continue
			}
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn("http shutdown", "addr", srv.Addr, "err", err)
			}
		}
		if l.GRPC != nil {
			stopGRPC(shutdownCtx, l.GRPC)
		}
		return nil
	})

	return g.Wait()
}

// stopGRPC drains in-flight streams, forcing a stop when ctx expires first.
func stopGRPC(ctx context.Context, s *grpc.Server) {
	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.Stop()
	}
}
