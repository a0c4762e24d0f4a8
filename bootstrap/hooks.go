package bootstrap

import (
	"context"
	"errors"
	"fmt"
)

// Hook is a shutdown callback, e.g. draining an outbox or a consumer.
type Hook func(ctx context.Context) error

// OnStop registers hooks for Close. They run before the components stop,
// last registered first, so a hook may still use the database.
func (s *Services) OnStop(hooks ...Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStop = append(s.onStop, hooks...)
}

// runStopHooks runs every hook in reverse order. A failing hook does not
// prevent the others from running; all failures are returned joined.
func runStopHooks(ctx context.Context, hooks []Hook) error {
	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop hook %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
