package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"smarttask/internal/model"
	"smarttask/internal/query"
)

// TaskStore is the persistence contract the lifecycle controller writes through.
type TaskStore interface {
	Create(ctx context.Context, input model.TaskInput) (string, error)
	Get(ctx context.Context, id string) (*model.Task, bool, error)
	List(ctx context.Context) ([]model.Task, error)
	Search(ctx context.Context, text string) ([]model.Task, error)
	Update(ctx context.Context, id string, update model.TaskUpdate) error
	Delete(ctx context.Context, id string) error
}

// LifecycleObserver is told about successful writes. The reminder dispatcher
// uses it to schedule and cancel reminders.
type LifecycleObserver interface {
	TaskCreated(task model.Task)
	TaskUpdated(task model.Task)
	TaskDeleted(id string)
}

// TaskService wraps task lifecycle rules: validation, creation defaults,
// completion toggling and deletion.
type TaskService struct {
	store     TaskStore
	engine    *query.Engine
	observers []LifecycleObserver
}

func NewTaskService(store TaskStore, engine *query.Engine) *TaskService {
	return &TaskService{store: store, engine: engine}
}

// Observe registers an observer. Not safe to call concurrently with writes.
func (s *TaskService) Observe(o LifecycleObserver) {
	s.observers = append(s.observers, o)
}

func (s *TaskService) Engine() *query.Engine { return s.engine }

// CreateTask validates input and persists it, returning the new id. The id and
// due date are durable before this returns.
func (s *TaskService) CreateTask(ctx context.Context, input model.TaskInput) (string, error) {
	norm, err := input.Normalize()
	if err != nil {
		return "", err
	}
	id, err := s.store.Create(ctx, norm)
	if err != nil {
		return "", err
	}
	log.Printf("[info] task created id=%s priority=%s", id, norm.Priority)

	if len(s.observers) > 0 {
		if task, ok, err := s.store.Get(ctx, id); err == nil && ok {
			for _, o := range s.observers {
				o.TaskCreated(*task)
			}
		}
	}
	return id, nil
}

// GetTask returns a *model.NotFoundError for unknown ids.
func (s *TaskService) GetTask(ctx context.Context, id string) (*model.Task, error) {
	task, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &model.NotFoundError{ID: id}
	}
	return task, nil
}

// ResolveID accepts a full id or a unique prefix of one, the way ids are
// typed by hand. An ambiguous prefix is a validation error.
func (s *TaskService) ResolveID(ctx context.Context, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &model.ValidationError{Field: "id", Reason: "is required"}
	}
	if _, ok, err := s.store.Get(ctx, raw); err != nil {
		return "", err
	} else if ok {
		return raw, nil
	}

	tasks, err := s.store.List(ctx)
	if err != nil {
		return "", err
	}
	var match string
	for _, t := range tasks {
		if strings.HasPrefix(t.ID, raw) {
			if match != "" {
				return "", &model.ValidationError{Field: "id", Reason: fmt.Sprintf("prefix %q is ambiguous", raw)}
			}
			match = t.ID
		}
	}
	if match == "" {
		return "", &model.NotFoundError{ID: raw}
	}
	return match, nil
}

func (s *TaskService) ListTasks(ctx context.Context) ([]model.Task, error) {
	return s.store.List(ctx)
}

func (s *TaskService) SearchTasks(ctx context.Context, text string) ([]model.Task, error) {
	return s.store.Search(ctx, text)
}

// QueryTasks loads every task then filters and sorts the snapshot.
func (s *TaskService) QueryTasks(ctx context.Context, view query.View) ([]model.Task, error) {
	tasks, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.Apply(tasks, view), nil
}

// UpdateTask applies a partial update; absent fields are left unchanged.
func (s *TaskService) UpdateTask(ctx context.Context, id string, update model.TaskUpdate) error {
	norm, err := update.Normalize()
	if err != nil {
		return err
	}
	if err := s.store.Update(ctx, id, norm); err != nil {
		return err
	}
	if !norm.IsEmpty() {
		log.Printf("[info] task updated id=%s", id)
		s.notifyUpdated(ctx, id)
	}
	return nil
}

// SetCompleted marks a task done or reopens it. Setting the current value again is allowed.
func (s *TaskService) SetCompleted(ctx context.Context, id string, completed bool) error {
	if err := s.store.Update(ctx, id, model.TaskUpdate{IsCompleted: &completed}); err != nil {
		return fmt.Errorf("set completed: %w", err)
	}
	log.Printf("[info] task completed=%t id=%s", completed, id)
	s.notifyUpdated(ctx, id)
	return nil
}

// DeleteTask removes a task permanently. Unknown ids are not an error.
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	log.Printf("[info] task deleted id=%s", id)
	for _, o := range s.observers {
		o.TaskDeleted(id)
	}
	return nil
}

func (s *TaskService) notifyUpdated(ctx context.Context, id string) {
	if len(s.observers) == 0 {
		return
	}
	task, ok, err := s.store.Get(ctx, id)
	if err != nil || !ok {
		return
	}
	for _, o := range s.observers {
		o.TaskUpdated(*task)
	}
}
