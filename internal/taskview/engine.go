// Package taskview holds a session's task collection and derives the board
// views (groupings, completion, overdue and upcoming deadlines) from it.
package taskview

import (
	"sync"
	"time"

	"github.com/ldi/taskake/pkg/models"
)

// Snapshot is every derived view computed from one version of the
// collection at one instant.
type Snapshot struct {
	Version            uint64
	At                 time.Time
	Tasks              []models.Task
	ByStatus           map[models.TaskStatus][]models.Task
	ByPriority         map[models.TaskPriority][]models.Task
	ByAssignee         map[models.Assignee][]models.Task
	Completion         int
	Overdue            []models.Task
	Upcoming           []models.Task
	UpcomingWindowDays int
}

// Listener receives a snapshot after every effective mutation.
type Listener func(Snapshot)

type subscriber struct {
	fn   Listener
	last uint64
}

// Engine owns an ordered task collection. It is safe for concurrent use.
// Mutators notify subscribers synchronously before returning.
type Engine struct {
	mu         sync.RWMutex
	tasks      []models.Task
	version    uint64
	now        func() time.Time
	windowDays int

	// notifyMu serializes delivery so each subscriber sees versions in order.
	notifyMu    sync.Mutex
	subscribers map[int]*subscriber
	nextSubID   int
}

// NewEngine returns an engine with an empty collection.
func NewEngine() *Engine {
	return &Engine{
		tasks:       []models.Task{},
		now:         time.Now,
		windowDays:  DefaultUpcomingWindowDays,
		subscribers: make(map[int]*subscriber),
	}
}

// SetClock replaces the time source used by date-based views.
func (e *Engine) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if now == nil {
		now = time.Now
	}
	e.now = now
}

// SetUpcomingWindow sets the window used for Snapshot.Upcoming.
func (e *Engine) SetUpcomingWindow(days int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.windowDays = days
}

// Subscribe registers fn and immediately calls it with the current snapshot.
// Listeners may read from the engine but must not call its mutators or
// Subscribe.
func (e *Engine) Subscribe(fn Listener) (unsubscribe func()) {
	e.notifyMu.Lock()
	id := e.nextSubID
	e.nextSubID++
	sub := &subscriber{fn: fn}
	e.subscribers[id] = sub

	snap := e.Snapshot()
	sub.last = snap.Version
	fn(snap)
	e.notifyMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.notifyMu.Lock()
			defer e.notifyMu.Unlock()
			delete(e.subscribers, id)
		})
	}
}

// SetCollection replaces the whole collection.
func (e *Engine) SetCollection(tasks []models.Task) {
	e.mu.Lock()
	e.tasks = append(make([]models.Task, 0, len(tasks)), tasks...)
	e.commitLocked()
}

// ApplyCreate appends a task.
func (e *Engine) ApplyCreate(task models.Task) {
	e.mu.Lock()
	e.tasks = append(e.tasks, task)
	e.commitLocked()
}

// ApplyUpdate merges patch into the task with the given id.
// An unknown id is a no-op and notifies nobody.
func (e *Engine) ApplyUpdate(id string, patch models.TaskPatch) {
	e.mu.Lock()
	found := false
	for i := range e.tasks {
		if e.tasks[i].ID == id {
			patch.Apply(&e.tasks[i])
			found = true
		}
	}
	if !found {
		e.mu.Unlock()
		return
	}
	e.commitLocked()
}

// ApplyDelete removes the task with the given id.
// An unknown id is a no-op and notifies nobody.
func (e *Engine) ApplyDelete(id string) {
	e.mu.Lock()
	kept := make([]models.Task, 0, len(e.tasks))
	for _, t := range e.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(e.tasks) {
		e.mu.Unlock()
		return
	}
	e.tasks = kept
	e.commitLocked()
}

// Clear empties the collection at session teardown.
func (e *Engine) Clear() {
	e.mu.Lock()
	e.tasks = []models.Task{}
	e.commitLocked()
}

// commitLocked bumps the version, releases e.mu and notifies subscribers.
func (e *Engine) commitLocked() {
	e.version++
	tasks := append([]models.Task(nil), e.tasks...)
	version := e.version
	now := e.now()
	window := e.windowDays
	e.mu.Unlock()

	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()
	if len(e.subscribers) == 0 {
		return
	}
	snap := buildSnapshot(tasks, version, now, window)
	for _, sub := range e.subscribers {
		if snap.Version <= sub.last {
			continue
		}
		sub.last = snap.Version
		sub.fn(snap)
	}
}

// Snapshot computes every view from the current collection at one instant.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	tasks := append([]models.Task(nil), e.tasks...)
	version := e.version
	now := e.now()
	window := e.windowDays
	e.mu.RUnlock()

	return buildSnapshot(tasks, version, now, window)
}

func buildSnapshot(tasks []models.Task, version uint64, now time.Time, window int) Snapshot {
	return Snapshot{
		Version:            version,
		At:                 now,
		Tasks:              tasks,
		ByStatus:           GroupByStatus(tasks),
		ByPriority:         GroupByPriority(tasks),
		ByAssignee:         GroupByAssignee(tasks),
		Completion:         CompletionPercentage(tasks),
		Overdue:            OverdueTasks(tasks, now),
		Upcoming:           UpcomingDeadlines(tasks, now, window),
		UpcomingWindowDays: window,
	}
}

// Tasks returns a copy of the collection in insertion order.
func (e *Engine) Tasks() []models.Task {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]models.Task(nil), e.tasks...)
}

// Len returns the number of tasks in the collection.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.tasks)
}

// Get returns the first task with the given id.
func (e *Engine) Get(id string) (models.Task, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, t := range e.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

// Version counts effective mutations since the engine was created.
func (e *Engine) Version() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.version
}

func (e *Engine) GroupByStatus() map[models.TaskStatus][]models.Task {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return GroupByStatus(e.tasks)
}

func (e *Engine) GroupByPriority() map[models.TaskPriority][]models.Task {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return GroupByPriority(e.tasks)
}

func (e *Engine) GroupByAssignee() map[models.Assignee][]models.Task {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return GroupByAssignee(e.tasks)
}

func (e *Engine) CompletionPercentage() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return CompletionPercentage(e.tasks)
}

// OverdueTasks evaluates every task against a single reading of the clock.
func (e *Engine) OverdueTasks() []models.Task {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return OverdueTasks(e.tasks, e.now())
}

// UpcomingDeadlines evaluates every task against a single reading of the clock.
func (e *Engine) UpcomingDeadlines(windowDays int) []models.Task {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return UpcomingDeadlines(e.tasks, e.now(), windowDays)
}
