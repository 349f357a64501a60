package graceful

import (
	"context"
	"errors"
	"reflect"
	"syscall"
	"testing"
	"time"
)

func TestGracefulContext(t *testing.T) {
	ctx, cancel := Context(context.Background())
	defer cancel()

	go func() {
		time.Sleep(100 * time.Millisecond) // give the handler time to register
		if err := syscall.Kill(syscall.Getpid(), syscall.SIGINT); err != nil {
			t.Errorf("Failed to send SIGINT: %v", err)
		}
	}()

	select {
	case <-ctx.Done():
		if !errors.Is(ctx.Err(), context.Canceled) {
			t.Errorf("Expected context.Canceled error, got %v", ctx.Err())
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Test timed out waiting for context to be canceled.")
	}
}

func TestGracefulContext_ParentCancel(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := Context(parent)
	defer cancel()

	cancelParent()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("child context not canceled with its parent")
	}
}

func TestShutdown(t *testing.T) {
	var order []string
	step := func(name string, err error) Step {
		return Step{Name: name, Fn: func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				t.Errorf("%s: context has no deadline", name)
			}
			order = append(order, name)
			return err
		}}
	}
	boom := errors.New("boom")

	err := Shutdown(time.Second,
		step("http", nil),
		step("kafka", boom),
		step("sessions", nil),
	)

	if want := []string{"http", "kafka", "sessions"}; !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v; want %v", order, want)
	}
	if !errors.Is(err, boom) {
		t.Errorf("err = %v; want it to wrap boom", err)
	}
	if err := Shutdown(time.Second, step("only", nil)); err != nil {
		t.Errorf("clean shutdown err = %v", err)
	}
}
