package run

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestUntil_ExitCodes(t *testing.T) {
	r := New(zap.NewNop())

	if code := r.Until(context.Background(), func(context.Context) error { return nil }); code != 0 {
		t.Fatalf("expected 0 for clean exit, got %d", code)
	}
	if code := r.Until(context.Background(), func(context.Context) error { return http.ErrServerClosed }); code != 0 {
		t.Fatalf("expected 0 for closed server, got %d", code)
	}
	if code := r.Until(context.Background(), func(context.Context) error { return errors.New("bind: address in use") }); code != 1 {
		t.Fatalf("expected 1 for failure, got %d", code)
	}
}

func TestUntil_ContextCancel(t *testing.T) {
	r := New(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code := r.Until(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return errors.New("late")
	})
	if code != 0 {
		t.Fatalf("expected 0 on cancellation, got %d", code)
	}
}

func TestGraceful_BoundsContext(t *testing.T) {
	r := &Runner{Logger: zap.NewNop(), ShutdownTimeout: 20 * time.Millisecond}
	var sawDeadline bool
	r.Graceful("test", func(ctx context.Context) error {
		_, sawDeadline = ctx.Deadline()
		<-ctx.Done()
		return ctx.Err()
	})
	if !sawDeadline {
		t.Fatal("expected shutdown context to carry a deadline")
	}
}
