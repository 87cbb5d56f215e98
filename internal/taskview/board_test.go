package taskview

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ldi/taskake/pkg/models"
)

func TestAssigneeGroups(t *testing.T) {
	tasks := []models.Task{
		task("1", models.TaskStatusTodo, nil),
		task("2", models.TaskStatusTodo, nil),
		task("3", models.TaskStatusTodo, nil),
		task("4", models.TaskStatusTodo, nil),
	}
	tasks[0].AssignedTo = strPtr("zed")
	tasks[1].AssignedTo = strPtr("unassigned")
	tasks[3].AssignedTo = strPtr("zed")

	groups := AssigneeGroups(GroupByAssignee(tasks))
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if *groups[0].AssigneeID != "unassigned" || !sameIDs(groups[0].Tasks, "2") {
		t.Errorf("expected literal \"unassigned\" id as its own group, got %+v", groups[0])
	}
	if *groups[1].AssigneeID != "zed" || !sameIDs(groups[1].Tasks, "1", "4") {
		t.Errorf("unexpected zed group %+v", groups[1])
	}
	if groups[2].AssigneeID != nil || !sameIDs(groups[2].Tasks, "3") {
		t.Errorf("expected unassigned bucket last with a nil id, got %+v", groups[2])
	}

	data, err := json.Marshal(groups[2])
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"assignee_id":null`) {
		t.Errorf("expected null assignee_id, got %s", data)
	}
}

func TestAssigneeGroupsEmpty(t *testing.T) {
	groups := AssigneeGroups(GroupByAssignee(nil))
	if groups == nil || len(groups) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", groups)
	}
}

func TestSnapshotBoard(t *testing.T) {
	tasks := []models.Task{
		task("1", models.TaskStatusDone, nil),
		task("2", models.TaskStatusTodo, timePtr(fixedNow.Add(-time.Hour))),
		task("3", models.TaskStatusTodo, timePtr(fixedNow.Add(time.Hour))),
	}
	board := buildSnapshot(tasks, 4, fixedNow, DefaultUpcomingWindowDays).Board()

	if board.Version != 4 || !board.GeneratedAt.Equal(fixedNow) {
		t.Errorf("unexpected header %d %v", board.Version, board.GeneratedAt)
	}
	if board.Completion != (Completion{Percentage: 33, Done: 1, Total: 3}) {
		t.Errorf("unexpected completion %+v", board.Completion)
	}
	if !sameIDs(board.Overdue, "2") || !sameIDs(board.Upcoming, "3") {
		t.Errorf("unexpected deadlines %v %v", ids(board.Overdue), ids(board.Upcoming))
	}

	empty, err := json.Marshal(buildSnapshot(nil, 0, fixedNow, 7).Board())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	for _, want := range []string{`"tasks":[]`, `"overdue":[]`, `"upcoming":[]`, `"by_assignee":[]`} {
		if !strings.Contains(string(empty), want) {
			t.Errorf("expected %s in %s", want, empty)
		}
	}
}
