package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/ecommerce-shared/logger"
)

const (
	// DefaultStopTimeout bounds the Stop call of each component.
	DefaultStopTimeout = 10 * time.Second
	// DefaultHealthTimeout bounds each Health call made by HealthAll.
	DefaultHealthTimeout = 2 * time.Second
)

type entry struct {
	c       Component
	started bool
}

// Registry owns the lifecycle of the infrastructure components of a
// service. Components start in registration order and stop in reverse.
type Registry struct {
	mu      sync.RWMutex
	entries []*entry
	byName  map[string]*entry
	log     *logger.Logger
}

// NewRegistry returns an empty registry logging through log, or through
// the global logger when log is nil.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Registry{
		byName: make(map[string]*entry),
		log:    log.WithComponent("registry"),
	}
}

// Register appends c. Register dependencies first: the database before the
// HTTP server that queries it.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("component %s already registered", name)
	}
	e := &entry{c: c}
	r.entries = append(r.entries, e)
	r.byName[name] = e
	r.log.Debug("Component registered", logger.Fields(logger.FieldOperation, "register", "name", name))
	return nil
}

// StartAll starts, in order, every component not yet started. It stops at
// the first failure and leaves the earlier components running for StopAll.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.started {
			continue
		}
		name := e.c.Name()
		begin := time.Now()
		if err := e.c.Start(ctx); err != nil {
			r.log.Error("Component start failed", logger.ErrorFields("start", err, logger.Fields("name", name)))
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		e.started = true

		fields := logger.Fields("name", name, logger.FieldDuration, time.Since(begin).Milliseconds())
		if d, ok := e.c.(Describable); ok {
			desc := d.Describe()
			if desc.Name != "" {
				fields["name"] = desc.Name
			}
			fields["type"] = desc.Type
			fields["details"] = desc.Details
		}
		r.log.Info("Component started", fields)
	}
	return nil
}

// StopAll stops the started components in reverse order, each within
// DefaultStopTimeout. Every one is stopped even when another fails.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if !e.started {
			continue
		}
		e.started = false
		if err := stopOne(ctx, e.c); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", e.c.Name(), err))
			r.log.Error("Component stop failed", logger.ErrorFields("stop", err, logger.Fields("name", e.c.Name())))
			continue
		}
		r.log.Info("Component stopped", logger.Fields("name", e.c.Name()))
	}
	return errors.Join(errs...)
}

func stopOne(ctx context.Context, c Component) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultStopTimeout)
	defer cancel()
	return c.Stop(ctx)
}

// HealthAll checks every component concurrently, each within
// DefaultHealthTimeout, and returns the results in registration order.
// Missing names and latencies are filled in.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	components := make([]Component, len(r.entries))
	for i, e := range r.entries {
		components[i] = e.c
	}
	r.mu.RUnlock()

	results := make([]Health, len(components))
	var wg sync.WaitGroup
	for i, c := range components {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hctx, cancel := context.WithTimeout(ctx, DefaultHealthTimeout)
			defer cancel()

			begin := time.Now()
			h := c.Health(hctx)
			if h.Name == "" {
				h.Name = c.Name()
			}
			if h.LatencyMs == 0 {
				h.LatencyMs = time.Since(begin).Milliseconds()
			}
			results[i] = h
		}()
	}
	wg.Wait()
	return results
}

// Names returns the registered component names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.c.Name()
	}
	return names
}

// Lookup returns the component registered under name when it has type T.
//
//	db, ok := component.Lookup[*database.DB](registry, "database")
func Lookup[T Component](r *Registry, name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var zero T
	e, ok := r.byName[name]
	if !ok {
		return zero, false
	}
	t, ok := e.c.(T)
	return t, ok
}
