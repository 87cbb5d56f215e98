package taskview

import (
	"slices"
	"time"

	"github.com/ldi/taskake/pkg/models"
)

// DefaultUpcomingWindowDays is the forward window used for upcoming deadlines.
const DefaultUpcomingWindowDays = 7

// GroupByStatus buckets tasks by status. Each bucket keeps collection order.
func GroupByStatus(tasks []models.Task) map[models.TaskStatus][]models.Task {
	groups := make(map[models.TaskStatus][]models.Task)
	for _, t := range tasks {
		groups[t.Status] = append(groups[t.Status], t)
	}
	return groups
}

// GroupByPriority buckets tasks by priority. Each bucket keeps collection order.
func GroupByPriority(tasks []models.Task) map[models.TaskPriority][]models.Task {
	groups := make(map[models.TaskPriority][]models.Task)
	for _, t := range tasks {
		groups[t.Priority] = append(groups[t.Priority], t)
	}
	return groups
}

// GroupByAssignee buckets tasks by assignee, with models.Unassigned() as the
// key for tasks that have none.
func GroupByAssignee(tasks []models.Task) map[models.Assignee][]models.Task {
	groups := make(map[models.Assignee][]models.Task)
	for _, t := range tasks {
		key := t.AssigneeKey()
		groups[key] = append(groups[key], t)
	}
	return groups
}

// CompletionPercentage returns round(100 * done / total), rounding halves up.
// An empty collection is 0% complete.
func CompletionPercentage(tasks []models.Task) int {
	total := len(tasks)
	if total == 0 {
		return 0
	}
	done := 0
	for _, t := range tasks {
		if t.Status == models.TaskStatusDone {
			done++
		}
	}
	// floor(100*done/total + 1/2) without floating point.
	return (200*done + total) / (2 * total)
}

// OverdueTasks returns open tasks whose due date is strictly before now.
func OverdueTasks(tasks []models.Task, now time.Time) []models.Task {
	var out []models.Task
	for _, t := range tasks {
		if t.DueDate == nil || t.Status.IsTerminal() {
			continue
		}
		if t.DueDate.Before(now) {
			out = append(out, t)
		}
	}
	return out
}

// UpcomingDeadlines returns open tasks due within [now, now+windowDays],
// ordered by due date. Tasks with the same due date keep collection order.
// The window end is computed in calendar days in now's location.
func UpcomingDeadlines(tasks []models.Task, now time.Time, windowDays int) []models.Task {
	end := now.AddDate(0, 0, windowDays)

	var out []models.Task
	for _, t := range tasks {
		if t.DueDate == nil || t.Status.IsTerminal() {
			continue
		}
		due := *t.DueDate
		if due.Before(now) || due.After(end) {
			continue
		}
		out = append(out, t)
	}

	slices.SortStableFunc(out, func(a, b models.Task) int {
		return a.DueDate.Compare(*b.DueDate)
	})
	return out
}
