package taskview

import (
	"cmp"
	"slices"
	"time"

	"github.com/ldi/taskake/pkg/models"
)

// AssigneeGroup is one assignee bucket in wire form. AssigneeID is nil for the
// unassigned bucket.
type AssigneeGroup struct {
	AssigneeID *string       `json:"assignee_id"`
	Tasks      []models.Task `json:"tasks"`
}

// AssigneeGroups flattens assignee buckets into a list ordered by id, with the
// unassigned bucket last.
func AssigneeGroups(groups map[models.Assignee][]models.Task) []AssigneeGroup {
	out := make([]AssigneeGroup, 0, len(groups))
	var unassigned []models.Task
	hasUnassigned := false
	for key, tasks := range groups {
		id, ok := key.ID()
		if !ok {
			unassigned, hasUnassigned = tasks, true
			continue
		}
		out = append(out, AssigneeGroup{AssigneeID: &id, Tasks: tasks})
	}
	slices.SortFunc(out, func(a, b AssigneeGroup) int {
		return cmp.Compare(*a.AssigneeID, *b.AssigneeID)
	})
	if hasUnassigned {
		out = append(out, AssigneeGroup{Tasks: unassigned})
	}
	return out
}

// Completion is the completion figure together with its inputs.
type Completion struct {
	Percentage int `json:"percentage"`
	Done       int `json:"done"`
	Total      int `json:"total"`
}

// Board is a Snapshot in wire form.
type Board struct {
	Version            uint64                                `json:"version"`
	GeneratedAt        time.Time                             `json:"generated_at"`
	Tasks              []models.Task                         `json:"tasks"`
	ByStatus           map[models.TaskStatus][]models.Task   `json:"by_status"`
	ByPriority         map[models.TaskPriority][]models.Task `json:"by_priority"`
	ByAssignee         []AssigneeGroup                       `json:"by_assignee"`
	Completion         Completion                            `json:"completion"`
	Overdue            []models.Task                         `json:"overdue"`
	Upcoming           []models.Task                         `json:"upcoming"`
	UpcomingWindowDays int                                   `json:"upcoming_window_days"`
}

// CompletionSummary returns the completion percentage and the counts behind it.
func (s Snapshot) CompletionSummary() Completion {
	return Completion{
		Percentage: s.Completion,
		Done:       len(s.ByStatus[models.TaskStatusDone]),
		Total:      len(s.Tasks),
	}
}

// Board converts the snapshot for JSON output. Empty lists encode as [].
func (s Snapshot) Board() Board {
	return Board{
		Version:            s.Version,
		GeneratedAt:        s.At,
		Tasks:              NonNil(s.Tasks),
		ByStatus:           s.ByStatus,
		ByPriority:         s.ByPriority,
		ByAssignee:         AssigneeGroups(s.ByAssignee),
		Completion:         s.CompletionSummary(),
		Overdue:            NonNil(s.Overdue),
		Upcoming:           NonNil(s.Upcoming),
		UpcomingWindowDays: s.UpcomingWindowDays,
	}
}

// NonNil returns tasks, or an empty slice when tasks is nil.
func NonNil(tasks []models.Task) []models.Task {
	if tasks == nil {
		return []models.Task{}
	}
	return tasks
}
