package models

import (
	"net/url"
	"strconv"
	"time"
)

// TaskStatus defines the workflow state of a task.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// ValidTaskStatuses lists every status in board column order.
var ValidTaskStatuses = []TaskStatus{
	TaskStatusTodo,
	TaskStatusInProgress,
	TaskStatusReview,
	TaskStatusDone,
	TaskStatusCancelled,
}

// IsValidTaskStatus checks if a status string is a valid TaskStatus
func IsValidTaskStatus(s string) bool {
	for _, status := range ValidTaskStatuses {
		if string(status) == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further work is expected on a task in this status.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusDone || s == TaskStatusCancelled
}

// TaskPriority defines how urgent a task is.
type TaskPriority string

const (
	TaskPriorityLow      TaskPriority = "low"
	TaskPriorityMedium   TaskPriority = "medium"
	TaskPriorityHigh     TaskPriority = "high"
	TaskPriorityCritical TaskPriority = "critical"
)

// ValidTaskPriorities lists every priority from least to most urgent.
var ValidTaskPriorities = []TaskPriority{
	TaskPriorityLow,
	TaskPriorityMedium,
	TaskPriorityHigh,
	TaskPriorityCritical,
}

// IsValidTaskPriority checks if a priority string is a valid TaskPriority
func IsValidTaskPriority(s string) bool {
	for _, p := range ValidTaskPriorities {
		if string(p) == s {
			return true
		}
	}
	return false
}

// Task is a task record as returned by the Taskodex API.
type Task struct {
	ID             string       `json:"id"`
	ProjectID      string       `json:"project_id,omitempty"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Status         TaskStatus   `json:"status"`
	Priority       TaskPriority `json:"priority"`
	DueDate        *time.Time   `json:"due_date,omitempty"`
	CreatedBy      string       `json:"created_by,omitempty"`
	AssignedTo     *string      `json:"assigned_to,omitempty"`
	EstimatedHours *float64     `json:"estimated_hours,omitempty"`
	ActualHours    *float64     `json:"actual_hours,omitempty"`
	Tags           []string     `json:"tags"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`

	Creator  *UserSummary `json:"creator,omitempty"`
	Assignee *UserSummary `json:"assignee,omitempty"`
}

// AssigneeKey returns the grouping key for the task's assignee.
// A missing or empty assigned_to means the task is unassigned.
func (t Task) AssigneeKey() Assignee {
	if t.AssignedTo == nil || *t.AssignedTo == "" {
		return Unassigned()
	}
	return Assigned(*t.AssignedTo)
}

// TaskRequest is the body for creating a task.
type TaskRequest struct {
	ProjectID      string       `json:"project_id,omitempty" validate:"omitempty,uuid"`
	Title          string       `json:"title" validate:"required,min=3,max=255"`
	Description    string       `json:"description" validate:"max=5000"`
	Status         TaskStatus   `json:"status" validate:"required,oneof=todo in_progress review done cancelled"`
	Priority       TaskPriority `json:"priority" validate:"required,oneof=low medium high critical"`
	DueDate        *time.Time   `json:"due_date,omitempty"`
	AssignedTo     *string      `json:"assigned_to,omitempty" validate:"omitempty,uuid"`
	EstimatedHours *float64     `json:"estimated_hours,omitempty" validate:"omitempty,min=0"`
	Tags           []string     `json:"tags,omitempty" validate:"omitempty,dive,max=50"`
}

// TaskPatch is a partial task update. Nil fields are left untouched.
// ClearDueDate and Unassign only affect the local copy; the API expresses
// unassignment through its own endpoint.
type TaskPatch struct {
	ProjectID      *string       `json:"project_id,omitempty" validate:"omitempty,uuid"`
	Title          *string       `json:"title,omitempty" validate:"omitempty,min=3,max=255"`
	Description    *string       `json:"description,omitempty" validate:"omitempty,max=5000"`
	Status         *TaskStatus   `json:"status,omitempty" validate:"omitempty,oneof=todo in_progress review done cancelled"`
	Priority       *TaskPriority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high critical"`
	DueDate        *time.Time    `json:"due_date,omitempty"`
	AssignedTo     *string       `json:"assigned_to,omitempty" validate:"omitempty,uuid"`
	EstimatedHours *float64      `json:"estimated_hours,omitempty" validate:"omitempty,min=0"`
	ActualHours    *float64      `json:"actual_hours,omitempty" validate:"omitempty,min=0"`
	Tags           []string      `json:"tags,omitempty" validate:"omitempty,dive,max=50"`

	ClearDueDate bool `json:"-"`
	Unassign     bool `json:"-"`

	// UpdatedAt is only set by PatchFromTask.
	UpdatedAt *time.Time `json:"-"`
}

// Apply merges the patch into t. The id is never changed.
func (p TaskPatch) Apply(t *Task) {
	if p.ProjectID != nil {
		t.ProjectID = *p.ProjectID
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		due := *p.DueDate
		t.DueDate = &due
	}
	if p.Unassign {
		t.AssignedTo = nil
		t.Assignee = nil
	} else if p.AssignedTo != nil {
		id := *p.AssignedTo
		t.AssignedTo = &id
	}
	if p.EstimatedHours != nil {
		h := *p.EstimatedHours
		t.EstimatedHours = &h
	}
	if p.ActualHours != nil {
		h := *p.ActualHours
		t.ActualHours = &h
	}
	if p.Tags != nil {
		t.Tags = append([]string(nil), p.Tags...)
	}
	if p.UpdatedAt != nil {
		t.UpdatedAt = *p.UpdatedAt
	}
}

// PatchFromTask builds a patch that overwrites every mutable field of a task
// with the values of u, including clearing fields that u leaves empty.
func PatchFromTask(u Task) TaskPatch {
	p := TaskPatch{
		ProjectID:      &u.ProjectID,
		Title:          &u.Title,
		Description:    &u.Description,
		Status:         &u.Status,
		Priority:       &u.Priority,
		DueDate:        u.DueDate,
		AssignedTo:     u.AssignedTo,
		EstimatedHours: u.EstimatedHours,
		ActualHours:    u.ActualHours,
		Tags:           u.Tags,
		ClearDueDate:   u.DueDate == nil,
		Unassign:       u.AssignedTo == nil,
	}
	if !u.UpdatedAt.IsZero() {
		p.UpdatedAt = &u.UpdatedAt
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return p
}

// TaskListParams filters and pages a task listing.
type TaskListParams struct {
	Status     TaskStatus
	Priority   TaskPriority
	AssignedTo string
	ProjectID  string
	Search     string
	SortBy     string `validate:"omitempty,oneof=title status priority due_date created_at updated_at"`
	SortOrder  string `validate:"omitempty,oneof=asc desc"`
	Page       int    `validate:"min=0"`
	PageSize   int    `validate:"min=0,max=100"`
}

// Query encodes the non-zero parameters as URL query values.
func (p TaskListParams) Query() url.Values {
	q := url.Values{}
	if p.Status != "" {
		q.Set("status", string(p.Status))
	}
	if p.Priority != "" {
		q.Set("priority", string(p.Priority))
	}
	if p.AssignedTo != "" {
		q.Set("assigned_to", p.AssignedTo)
	}
	if p.ProjectID != "" {
		q.Set("project_id", p.ProjectID)
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.SortBy != "" {
		q.Set("sort_by", p.SortBy)
	}
	if p.SortOrder != "" {
		q.Set("sort_order", p.SortOrder)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(p.PageSize))
	}
	return q
}

// Pagination describes one page of a listing.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// DefaultPagination is the state before the first successful fetch.
func DefaultPagination() Pagination {
	return Pagination{Total: 0, Page: 1, PageSize: 20, TotalPages: 1}
}

// Normalize fills zero fields with their defaults.
func (p Pagination) Normalize() Pagination {
	d := DefaultPagination()
	if p.Page == 0 {
		p.Page = d.Page
	}
	if p.PageSize == 0 {
		p.PageSize = d.PageSize
	}
	if p.TotalPages == 0 {
		p.TotalPages = d.TotalPages
	}
	return p
}

// TaskList is the list endpoint response.
type TaskList struct {
	Tasks      []Task     `json:"tasks"`
	Pagination Pagination `json:"pagination"`
}
