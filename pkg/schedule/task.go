package schedule

import (
	"context"
	"time"
)

// Task is a unit of work executed on its own fixed cadence.
type Task interface {
	Name() string
	Interval() time.Duration
	Run(ctx context.Context) error
}

// Registry tracks registered tasks.
type Registry struct {
	tasks []Task
}

// NewRegistry builds a registry preloaded with the provided tasks.
func NewRegistry(tasks ...Task) *Registry {
	registry := &Registry{}
	for _, task := range tasks {
		if task == nil {
			continue
		}
		registry.tasks = append(registry.tasks, task)
	}
	return registry
}

// Register adds a task to the registry.
func (r *Registry) Register(task Task) {
	if task == nil {
		return
	}
	r.tasks = append(r.tasks, task)
}

// Tasks returns the registered tasks in the order they were added.
func (r *Registry) Tasks() []Task {
	tasks := make([]Task, len(r.tasks))
	copy(tasks, r.tasks)
	return tasks
}

// TaskFunc adapts a function into a Task.
type TaskFunc struct {
	TaskName     string
	TaskInterval time.Duration
	Fn           func(ctx context.Context) error
}

func (t TaskFunc) Name() string            { return t.TaskName }
func (t TaskFunc) Interval() time.Duration { return t.TaskInterval }
func (t TaskFunc) Run(ctx context.Context) error {
	if t.Fn == nil {
		return nil
	}
	return t.Fn(ctx)
}
