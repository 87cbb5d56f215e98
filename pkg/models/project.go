package models

import (
	"net/url"
	"strconv"
	"time"
)

type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "planning"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

type Project struct {
	ID             string        `json:"id"`
	OrganizationID string        `json:"organization_id"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Status         ProjectStatus `json:"status"`
	StartDate      *time.Time    `json:"start_date,omitempty"`
	EndDate        *time.Time    `json:"end_date,omitempty"`
	CreatedBy      string        `json:"created_by"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`

	Creator *UserSummary `json:"creator,omitempty"`
}

type ProjectListParams struct {
	Status    ProjectStatus
	CreatedBy string
	Search    string
	SortBy    string `validate:"omitempty,oneof=name status start_date end_date created_at updated_at"`
	SortOrder string `validate:"omitempty,oneof=asc desc"`
	Page      int    `validate:"min=0"`
	PageSize  int    `validate:"min=0,max=100"`
}

func (p ProjectListParams) Query() url.Values {
	q := url.Values{}
	if p.Status != "" {
		q.Set("status", string(p.Status))
	}
	if p.CreatedBy != "" {
		q.Set("created_by", p.CreatedBy)
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

type ProjectList struct {
	Projects   []Project  `json:"projects"`
	Pagination Pagination `json:"pagination"`
}

// ProjectStats is the server-computed summary of a project. The client
// derives the same figures locally from the task collection; the server
// copy covers tasks beyond the fetched page.
type ProjectStats struct {
	TasksByStatus []struct {
		Status string `json:"status"`
		Count  int    `json:"count"`
	} `json:"tasksByStatus"`
	TasksByPriority []struct {
		Priority string `json:"priority"`
		Count    int    `json:"count"`
	} `json:"tasksByPriority"`
	TasksByAssignee []struct {
		AssigneeID   string `json:"assignee_id"`
		AssigneeName string `json:"assignee_name"`
		Count        int    `json:"count"`
	} `json:"tasksByAssignee"`
	CompletionPercentage int    `json:"completionPercentage"`
	TotalTasks           int    `json:"totalTasks"`
	CompletedTasks       int    `json:"completedTasks"`
	OverdueTasks         int    `json:"overdueTasks"`
	UpcomingDeadlines    []Task `json:"upcomingDeadlines"`
}

type ProjectActivity struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	EntityName string    `json:"entity_name"`
	CreatedAt  time.Time `json:"created_at"`
}

type ProjectActivityList struct {
	Activities []ProjectActivity `json:"activities"`
}
