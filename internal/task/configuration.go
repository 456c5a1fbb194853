package task

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Configurator is a pre-execution configuration surface. It receives the
// submitted task and returns the task to run, which may be a different
// value. Returning ErrConfigurationCancelled drops the task.
type Configurator interface {
	Configure(ctx context.Context, t Task) (Task, error)
}

// ConfiguratorFunc adapts a function to Configurator.
type ConfiguratorFunc func(ctx context.Context, t Task) (Task, error)

// Configure implements Configurator.
func (f ConfiguratorFunc) Configure(ctx context.Context, t Task) (Task, error) {
	return f(ctx, t)
}

// ConfiguratorFactory builds a configuration surface for one submission.
type ConfiguratorFactory func() (Configurator, error)

// Configurations maps task types to configurator factories.
// A type without an entry runs without a configuration step.
type Configurations struct {
	mu        sync.RWMutex
	factories map[string]ConfiguratorFactory
}

// NewConfigurations creates an empty table.
func NewConfigurations() *Configurations {
	return &Configurations{
		factories: make(map[string]ConfiguratorFactory),
	}
}

// Register associates taskType with f, replacing any previous entry.
func (c *Configurations) Register(taskType string, f ConfiguratorFactory) error {
	if taskType == "" {
		return ErrEmptyTaskType
	}
	if f == nil {
		return fmt.Errorf("task type %q: %w", taskType, ErrNilConfigurator)
	}

	c.mu.Lock()
	c.factories[taskType] = f
	c.mu.Unlock()
	return nil
}

// Lookup returns the factory registered for taskType.
func (c *Configurations) Lookup(taskType string) (ConfiguratorFactory, bool) {
	if taskType == "" {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.factories[taskType]
	return f, ok
}

// Types returns the registered task types, sorted.
func (c *Configurations) Types() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.factories))
	for typ := range c.factories {
		out = append(out, typ)
	}
	sort.Strings(out)
	return out
}

// build runs the factory with panic recovery.
func build(f ConfiguratorFactory) (cfg Configurator, err error) {
	defer func() {
		if r := recover(); r != nil {
			cfg, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	cfg, err = f()
	if err == nil && cfg == nil {
		err = ErrNilConfigurator
	}
	return cfg, err
}
