package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"google.golang.org/grpc"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	worker := func(ctx context.Context) error {
		<-ctx.Done()
		close(workerDone)
		return nil
	}
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, quiet, Listeners{
			HTTP:     &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()},
			GRPC:     grpc.NewServer(),
			GRPCAddr: "127.0.0.1:0",
			Workers:  []func(context.Context) error{worker},
		}, time.Second)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		<-workerDone
	case <-time.After(3 * time.Second):
		t.Fatalf("run did not return after cancel")
	}
}

func TestRun_BadGRPCAddr(t *testing.T) {
	err := Run(context.Background(), quiet, Listeners{
		GRPC:     grpc.NewServer(),
		GRPCAddr: "not-an-address",
	}, time.Second)
	if err == nil {
		t.Fatalf("expected listen error")
	}
}

func TestRun_WorkerFailureStopsListeners(t *testing.T) {
	boom := errors.New("consumer group closed")
	done := make(chan error, 1)
	go func() {
		done <- Run(context.Background(), quiet, Listeners{
			HTTP:    &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()},
			Workers: []func(context.Context) error{func(context.Context) error { return boom }},
		}, time.Second)
	}()
	select {
	case err := <-done:
		if !errors.Is(err, boom) {
			t.Fatalf("err=%v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("run did not return after worker failure")
	}
}
