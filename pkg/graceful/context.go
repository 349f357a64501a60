package graceful

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Context creates a context that is canceled when SIGINT or SIGTERM is
// received. Calling the returned cancel also releases the signal handler.
func Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Printf("Received %s, starting graceful shutdown...", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// Step is one named part of a shutdown sequence.
type Step struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Shutdown runs steps in order under a shared deadline. A failing step is
// logged and does not stop the ones after it.
func Shutdown(timeout time.Duration, steps ...Step) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	for _, step := range steps {
		if err := step.Fn(ctx); err != nil {
			log.Printf("Shutdown step %q failed: %v", step.Name, err)
			errs = append(errs, fmt.Errorf("%s: %w", step.Name, err))
		}
	}
	return errors.Join(errs...)
}
