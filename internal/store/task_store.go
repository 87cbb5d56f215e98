// Package store keeps a viewing session's task collection in sync with the
// remote API. Failed requests leave the collection as it was.
package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ldi/taskake/internal/taskview"
	"github.com/ldi/taskake/pkg/models"
)

// ErrSuperseded is returned by Load when a newer load was issued before this
// one completed. Its response was discarded.
var ErrSuperseded = errors.New("load superseded by a newer request")

// TaskService is the subset of the API client the store needs.
type TaskService interface {
	ListTasks(ctx context.Context, params models.TaskListParams) (*models.TaskList, error)
	GetTask(ctx context.Context, id string) (*models.Task, error)
	CreateTask(ctx context.Context, req models.TaskRequest) (*models.Task, error)
	UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error)
	UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus) (*models.Task, error)
	AssignTask(ctx context.Context, id, userID string) (*models.Task, error)
	UnassignTask(ctx context.Context, id string) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

type listFunc func(ctx context.Context, params models.TaskListParams) (*models.TaskList, error)

// TaskStore owns one engine plus the request state around it.
type TaskStore struct {
	svc    TaskService
	list   listFunc
	engine *taskview.Engine
	logger *slog.Logger

	mu         sync.Mutex
	params     models.TaskListParams
	pagination models.Pagination
	current    *models.Task
	inFlight   int
	lastErr    string
	issued     uint64

	// applyMu orders the version check and SetCollection of concurrent loads.
	applyMu sync.Mutex
}

// NewTaskStore returns a store with an empty collection.
func NewTaskStore(svc TaskService, logger *slog.Logger) *TaskStore {
	return newTaskStore(svc, svc.ListTasks, logger)
}

func newTaskStore(svc TaskService, list listFunc, logger *slog.Logger) *TaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{
		svc:        svc,
		list:       list,
		engine:     taskview.NewEngine(),
		logger:     logger,
		pagination: models.DefaultPagination(),
	}
}

// Engine returns the engine holding the collection.
func (s *TaskStore) Engine() *taskview.Engine {
	return s.engine
}

func (s *TaskStore) begin() {
	s.mu.Lock()
	s.inFlight++
	s.lastErr = ""
	s.mu.Unlock()
}

func (s *TaskStore) end(op string, err error) {
	s.mu.Lock()
	s.inFlight--
	if err != nil {
		s.lastErr = err.Error()
	}
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("error "+op, "error", err)
	}
}

// Load fetches one page and replaces the collection with it. When several
// loads overlap, only the most recently issued one is applied; earlier ones
// return ErrSuperseded.
func (s *TaskStore) Load(ctx context.Context, params models.TaskListParams) error {
	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.params = params
	s.inFlight++
	s.lastErr = ""
	s.mu.Unlock()

	list, err := s.list(ctx, params)

	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.Lock()
	s.inFlight--
	if seq != s.issued {
		s.mu.Unlock()
		s.logger.Debug("discarding superseded load", "seq", seq)
		return ErrSuperseded
	}
	if err != nil {
		s.lastErr = err.Error()
		s.mu.Unlock()
		s.logger.Error("error fetching tasks", "error", err)
		return err
	}
	s.pagination = list.Pagination.Normalize()
	s.mu.Unlock()

	s.engine.SetCollection(list.Tasks)
	s.logger.Debug("tasks loaded", "count", len(list.Tasks), "total", list.Pagination.Total)
	return nil
}

// Refresh repeats the most recent Load with the same parameters.
func (s *TaskStore) Refresh(ctx context.Context) error {
	return s.Load(ctx, s.Params())
}

// Fetch loads a single task and makes it the current task.
func (s *TaskStore) Fetch(ctx context.Context, id string) (*models.Task, error) {
	s.begin()
	task, err := s.svc.GetTask(ctx, id)
	s.end("fetching task", err)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	current := *task
	s.current = &current
	s.mu.Unlock()
	return task, nil
}

// Create creates a task remotely and appends it to the collection.
func (s *TaskStore) Create(ctx context.Context, req models.TaskRequest) (*models.Task, error) {
	s.begin()
	task, err := s.svc.CreateTask(ctx, req)
	s.end("creating task", err)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.pagination.Total++
	s.mu.Unlock()
	s.engine.ApplyCreate(*task)
	return task, nil
}

// Update sends a partial update and merges the server's copy locally.
func (s *TaskStore) Update(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	s.begin()
	task, err := s.svc.UpdateTask(ctx, id, patch)
	s.end("updating task", err)
	if err != nil {
		return nil, err
	}
	s.applyServerCopy(id, task)
	return task, nil
}

// UpdateStatus moves a task to a new status.
func (s *TaskStore) UpdateStatus(ctx context.Context, id string, status models.TaskStatus) (*models.Task, error) {
	s.begin()
	task, err := s.svc.UpdateTaskStatus(ctx, id, status)
	s.end("updating task status", err)
	if err != nil {
		return nil, err
	}
	s.applyServerCopy(id, task)
	return task, nil
}

// Assign assigns a task to a user.
func (s *TaskStore) Assign(ctx context.Context, id, userID string) (*models.Task, error) {
	s.begin()
	task, err := s.svc.AssignTask(ctx, id, userID)
	s.end("assigning task", err)
	if err != nil {
		return nil, err
	}
	s.applyServerCopy(id, task)
	return task, nil
}

// Unassign removes a task's assignee.
func (s *TaskStore) Unassign(ctx context.Context, id string) (*models.Task, error) {
	s.begin()
	task, err := s.svc.UnassignTask(ctx, id)
	s.end("unassigning task", err)
	if err != nil {
		return nil, err
	}
	s.applyServerCopy(id, task)
	return task, nil
}

func (s *TaskStore) applyServerCopy(id string, task *models.Task) {
	patch := models.PatchFromTask(*task)
	s.mu.Lock()
	if s.current != nil && s.current.ID == id {
		patch.Apply(s.current)
	}
	s.mu.Unlock()
	s.engine.ApplyUpdate(id, patch)
}

// Delete deletes a task remotely, removes it locally and decrements the
// pagination total.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	s.begin()
	err := s.svc.DeleteTask(ctx, id)
	s.end("deleting task", err)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.pagination.Total--
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	s.mu.Unlock()
	s.engine.ApplyDelete(id)
	return nil
}

// Close tears the session down and empties the collection.
func (s *TaskStore) Close() {
	s.mu.Lock()
	s.issued++
	s.current = nil
	s.pagination = models.DefaultPagination()
	s.lastErr = ""
	s.mu.Unlock()
	s.engine.Clear()
}

// Params returns the parameters of the most recent Load.
func (s *TaskStore) Params() models.TaskListParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

func (s *TaskStore) Pagination() models.Pagination {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pagination
}

// Current returns a copy of the current task, or nil.
func (s *TaskStore) Current() *models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	current := *s.current
	return &current
}

// Loading reports whether any request is in flight.
func (s *TaskStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight > 0
}

// Err returns the message of the most recent failure, or "" if the most
// recent request succeeded.
func (s *TaskStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
