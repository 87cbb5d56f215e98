package dashboard

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ldi/taskake/internal/store"
	"github.com/ldi/taskake/pkg/models"
)

type fakeAPI struct {
	store.TaskService
	tasks []models.Task
	err   error
	calls int
}

func (f *fakeAPI) ListTasks(ctx context.Context, params models.TaskListParams) (*models.TaskList, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.TaskList{Tasks: f.tasks, Pagination: models.Pagination{Total: len(f.tasks)}}, nil
}

func strPtr(s string) *string { return &s }

func boardTasks() []models.Task {
	now := time.Now()
	past := now.Add(-48 * time.Hour)
	soon := now.Add(24 * time.Hour)
	return []models.Task{
		{ID: "1", Title: "Write docs", Status: models.TaskStatusTodo, Priority: models.TaskPriorityLow, DueDate: &past},
		{ID: "2", Title: "Ship release", Status: models.TaskStatusDone, Priority: models.TaskPriorityCritical,
			AssignedTo: strPtr("u1"), Assignee: &models.UserSummary{ID: "u1", FirstName: "Grace", LastName: "Hopper"}},
		{ID: "3", Title: "Triage bugs", Status: models.TaskStatusInProgress, Priority: models.TaskPriorityHigh, DueDate: &soon,
			AssignedTo: strPtr("u2"), Assignee: &models.UserSummary{ID: "u2", Email: "ada@example.com"}},
	}
}

// newLoadedModel returns a sized model that has consumed the snapshot of a
// completed load.
func newLoadedModel(t *testing.T, api *fakeAPI) *Model {
	t.Helper()
	st := store.NewTaskStore(api, nil)
	m := NewModel(st, Options{})
	t.Cleanup(m.Close)

	if err := st.Load(context.Background(), models.TaskListParams{}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	m.Update(tea.WindowSizeMsg{Width: 160, Height: 50})
	deliver(t, m)
	return m
}

func deliver(t *testing.T, m *Model) {
	t.Helper()
	msg := m.pollSnapshots()()
	if _, ok := msg.(SnapshotMsg); !ok {
		t.Fatalf("expected SnapshotMsg, got %T", msg)
	}
	m.Update(msg)
}

func columnTitles(m *Model) []string {
	var titles []string
	for _, c := range m.columns {
		titles = append(titles, c.Title)
	}
	return titles
}

func TestNewModelReceivesInitialSnapshot(t *testing.T) {
	st := store.NewTaskStore(&fakeAPI{}, nil)
	m := NewModel(st, Options{})
	defer m.Close()

	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	if !m.ready {
		t.Fatal("expected model to be ready after WindowSizeMsg")
	}
	deliver(t, m)

	if len(m.columns) != len(models.ValidTaskStatuses) {
		t.Errorf("expected one column per status, got %d", len(m.columns))
	}
	if m.completion.Percent() != 0 {
		t.Errorf("expected 0%% for an empty board, got %d", m.completion.Percent())
	}
}

func TestModelAppliesSnapshot(t *testing.T) {
	m := newLoadedModel(t, &fakeAPI{tasks: boardTasks()})

	if m.snap.Completion != 33 || m.completion.Percent() != 33 {
		t.Errorf("expected 33%% completion, got %d", m.completion.Percent())
	}
	if len(m.overdue.Tasks) != 1 || m.overdue.Tasks[0].ID != "1" {
		t.Errorf("expected task 1 overdue, got %v", m.overdue.Tasks)
	}
	if len(m.upcoming.Tasks) != 1 || m.upcoming.Tasks[0].ID != "3" {
		t.Errorf("expected task 3 upcoming, got %v", m.upcoming.Tasks)
	}
	if m.upcoming.Title != "Due in 7 days" {
		t.Errorf("unexpected upcoming title %q", m.upcoming.Title)
	}

	counts := map[string]int{}
	for _, c := range m.columns {
		counts[c.Title] = len(c.Tasks)
	}
	if counts["Todo"] != 1 || counts["In Progress"] != 1 || counts["Done"] != 1 || counts["Review"] != 0 {
		t.Errorf("unexpected status columns %v", counts)
	}

	view := m.View()
	for _, want := range []string{"Taskake", "By Status", "3 tasks", "Write docs", "Completion"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view", want)
		}
	}
}

func TestModelModes(t *testing.T) {
	m := newLoadedModel(t, &fakeAPI{tasks: boardTasks()})

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.mode != ModePriority {
		t.Fatalf("expected priority mode, got %v", m.mode)
	}
	if got := strings.Join(columnTitles(m), ","); got != "Critical,High,Medium,Low" {
		t.Errorf("unexpected priority columns %s", got)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.mode != ModeAssignee {
		t.Fatalf("expected assignee mode, got %v", m.mode)
	}
	if got := strings.Join(columnTitles(m), ","); got != "Grace Hopper,ada@example.com,Unassigned" {
		t.Errorf("unexpected assignee columns %s", got)
	}
	if last := m.columns[len(m.columns)-1]; len(last.Tasks) != 1 || last.Tasks[0].ID != "1" {
		t.Errorf("expected task 1 in the unassigned column")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.mode != ModeStatus {
		t.Errorf("expected tab to wrap back to status mode, got %v", m.mode)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.mode != ModeAssignee {
		t.Errorf("expected shift+tab to go back to assignee mode, got %v", m.mode)
	}
}

func TestModelUnknownStatusGetsColumn(t *testing.T) {
	tasks := append(boardTasks(), models.Task{ID: "4", Title: "Odd", Status: "blocked"})
	m := newLoadedModel(t, &fakeAPI{tasks: tasks})

	titles := columnTitles(m)
	if last := titles[len(titles)-1]; last != "Blocked" {
		t.Errorf("expected a trailing column for the unknown status, got %v", titles)
	}
}

func TestModelNavigation(t *testing.T) {
	m := newLoadedModel(t, &fakeAPI{tasks: boardTasks()})

	if m.focused != 0 || !m.columns[0].IsFocused() {
		t.Fatalf("expected first column focused initially")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("h")})
	if m.focused != len(m.columns)-1 {
		t.Errorf("expected focus to wrap to the last column, got %d", m.focused)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
	if m.focused != 0 {
		t.Errorf("expected focus back on the first column, got %d", m.focused)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	if !m.columns[1].IsExpanded() {
		t.Fatal("expected focused column to expand")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
	if m.focused != 1 {
		t.Errorf("expected focus locked while expanded, got %d", m.focused)
	}

	view := m.View()
	if strings.Contains(view, "Todo (") {
		t.Error("expected other columns hidden while one is expanded")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	if m.isAnyColumnExpanded() {
		t.Error("expected column to collapse")
	}
}

func TestModelKeepsColumnsAcrossSnapshots(t *testing.T) {
	api := &fakeAPI{tasks: boardTasks()}
	m := newLoadedModel(t, api)
	first := m.columns[0]

	api.tasks = api.tasks[:2]
	if err := m.store.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	deliver(t, m)

	if m.columns[0] != first {
		t.Error("expected columns reused when the key set is unchanged")
	}
	if len(m.snap.Tasks) != 2 {
		t.Errorf("expected 2 tasks after refresh, got %d", len(m.snap.Tasks))
	}
}

func TestModelRefresh(t *testing.T) {
	api := &fakeAPI{tasks: boardTasks()}
	m := newLoadedModel(t, api)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd == nil || !m.refreshing {
		t.Fatal("expected refresh command")
	}
	if _, again := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")}); again != nil {
		t.Error("expected no second refresh while one is running")
	}

	msg := cmd()
	m.Update(msg)
	if m.refreshing {
		t.Error("expected refreshing cleared")
	}
	if api.calls != 2 {
		t.Errorf("expected 2 list calls, got %d", api.calls)
	}

	api.err = errors.New("boom")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m.Update(cmd())
	if !strings.Contains(m.View(), "Error: boom") {
		t.Error("expected refresh error in header")
	}
	if len(m.snap.Tasks) != 3 {
		t.Error("expected failed refresh to keep the board")
	}
}

func TestModelQuit(t *testing.T) {
	m := newLoadedModel(t, &fakeAPI{})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if m.View() != "" {
		t.Error("expected empty view after quitting")
	}
	if msg := m.pollSnapshots()(); msg != nil {
		t.Errorf("expected no more snapshots after close, got %T", msg)
	}
}

func TestModelLayout(t *testing.T) {
	m := newLoadedModel(t, &fakeAPI{tasks: boardTasks()})

	if m.sidebarWidth != 40 {
		t.Errorf("expected sidebar of a quarter width, got %d", m.sidebarWidth)
	}
	if m.boardWidth != 120 {
		t.Errorf("expected board width 120, got %d", m.boardWidth)
	}

	m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	if m.sidebarWidth != 28 {
		t.Errorf("expected minimum sidebar width, got %d", m.sidebarWidth)
	}
}
