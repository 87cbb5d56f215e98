// Package dashboard is the interactive terminal board for one task store.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ldi/taskake/internal/store"
	"github.com/ldi/taskake/internal/taskview"
	"github.com/ldi/taskake/internal/ui"
	"github.com/ldi/taskake/internal/ui/components"
	"github.com/ldi/taskake/pkg/models"
)

var (
	orbStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#2196F3")).
			Bold(true)

	headerTextStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F44336"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	headerStyle = lipgloss.NewStyle().
			Padding(1, 2)
)

// Mode selects how the board groups tasks into columns.
type Mode int

const (
	ModeStatus Mode = iota
	ModePriority
	ModeAssignee
	modeCount
)

func (m Mode) String() string {
	switch m {
	case ModePriority:
		return "By Priority"
	case ModeAssignee:
		return "By Assignee"
	default:
		return "By Status"
	}
}

// SnapshotMsg carries an engine notification into the program.
type SnapshotMsg struct {
	Snapshot taskview.Snapshot
}

type refreshDoneMsg struct {
	err error
}

type tickMsg time.Time

// Options configures the dashboard.
type Options struct {
	Title string
	// RefreshInterval reloads the store periodically when positive.
	RefreshInterval time.Duration
	// LoadOnStart triggers a refresh from Init.
	LoadOnStart bool
}

type Model struct {
	store       *store.TaskStore
	snapshots   chan taskview.Snapshot
	unsubscribe func()
	closed      chan struct{}
	closeOnce   sync.Once
	opts        Options

	mode       Mode
	columns    []*components.Column
	columnKeys []string
	focused    int
	snap       taskview.Snapshot

	completion *components.CompletionBar
	overdue    *components.DeadlineList
	upcoming   *components.DeadlineList

	width        int
	height       int
	sidebarWidth int
	boardWidth   int
	ready        bool
	quitting     bool
	refreshing   bool
	lastErr      string
}

// NewModel subscribes to the store's engine. Call Close when done.
func NewModel(st *store.TaskStore, opts Options) *Model {
	if opts.Title == "" {
		opts.Title = "Taskake"
	}
	m := &Model{
		store:      st,
		snapshots:  make(chan taskview.Snapshot, 1),
		closed:     make(chan struct{}),
		opts:       opts,
		completion: components.NewCompletionBar(0),
		overdue:    components.NewDeadlineList(components.DeadlineOverdue, 0),
		upcoming:   components.NewDeadlineList(components.DeadlineUpcoming, 0),
	}
	m.overdue.Limit = 8
	m.upcoming.Limit = 8
	m.unsubscribe = st.Engine().Subscribe(m.forward)
	return m
}

// forward keeps only the newest pending snapshot so a slow UI never blocks
// the engine.
func (m *Model) forward(s taskview.Snapshot) {
	select {
	case m.snapshots <- s:
		return
	default:
	}
	select {
	case <-m.snapshots:
	default:
	}
	select {
	case m.snapshots <- s:
	default:
	}
}

func (m *Model) Close() {
	m.closeOnce.Do(func() {
		m.unsubscribe()
		close(m.closed)
	})
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.pollSnapshots()}
	if m.opts.LoadOnStart {
		m.refreshing = true
		cmds = append(cmds, m.refresh())
	}
	if m.opts.RefreshInterval > 0 {
		cmds = append(cmds, m.tick())
	}
	return tea.Batch(cmds...)
}

func (m *Model) pollSnapshots() tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-m.snapshots:
			return SnapshotMsg{Snapshot: s}
		case <-m.closed:
			return nil
		}
	}
}

func (m *Model) refresh() tea.Cmd {
	return func() tea.Msg {
		err := m.store.Refresh(context.Background())
		if errors.Is(err, store.ErrSuperseded) {
			err = nil
		}
		return refreshDoneMsg{err: err}
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.opts.RefreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.Close()
			return m, tea.Quit
		case "tab":
			m.setMode((m.mode + 1) % modeCount)
			return m, nil
		case "shift+tab":
			m.setMode((m.mode + modeCount - 1) % modeCount)
			return m, nil
		case "l", "right":
			if !m.isAnyColumnExpanded() {
				m.moveFocus(1)
			}
			return m, nil
		case "h", "left":
			if !m.isAnyColumnExpanded() {
				m.moveFocus(-1)
			}
			return m, nil
		case "e", "enter":
			m.toggleExpanded()
			return m, nil
		case "r":
			if m.refreshing {
				return m, nil
			}
			m.refreshing = true
			return m, m.refresh()
		}
		if c := m.focusedColumn(); c != nil {
			cmds = append(cmds, c.Update(msg))
		}

	case tea.MouseMsg:
		if c := m.focusedColumn(); c != nil {
			cmds = append(cmds, c.Update(msg))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.recalculateLayout()

	case SnapshotMsg:
		m.applySnapshot(msg.Snapshot)
		cmds = append(cmds, m.pollSnapshots())

	case refreshDoneMsg:
		m.refreshing = false
		if msg.err != nil {
			m.lastErr = msg.err.Error()
		} else {
			m.lastErr = ""
		}

	case tickMsg:
		if !m.refreshing {
			m.refreshing = true
			cmds = append(cmds, m.refresh())
		}
		cmds = append(cmds, m.tick())
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) applySnapshot(s taskview.Snapshot) {
	m.snap = s
	m.rebuildColumns()

	c := s.CompletionSummary()
	m.completion.Set(c.Percentage, c.Done, c.Total)
	m.overdue.Set(s.Overdue, s.At)
	m.upcoming.Set(s.Upcoming, s.At)
	m.upcoming.Title = fmt.Sprintf("Due in %d days", s.UpcomingWindowDays)
}

func (m *Model) setMode(mode Mode) {
	m.mode = mode
	m.focused = 0
	m.columnKeys = nil
	m.rebuildColumns()
}

type columnSpec struct {
	key   string
	title string
	color lipgloss.Color
	tasks []models.Task
}

// columnSpecs lists the columns for the current mode. Known keys come first in
// their canonical order; values outside the enums follow so no task is hidden.
func (m *Model) columnSpecs() []columnSpec {
	s := m.snap
	var specs []columnSpec

	switch m.mode {
	case ModePriority:
		order := slices.Clone(models.ValidTaskPriorities)
		slices.Reverse(order)
		for _, p := range order {
			specs = append(specs, columnSpec{string(p), ui.PriorityLabel(p), ui.PriorityColor(p), s.ByPriority[p]})
		}
		for _, p := range sortedExtraKeys(s.ByPriority, order) {
			specs = append(specs, columnSpec{string(p), ui.PriorityLabel(p), ui.MutedColor, s.ByPriority[p]})
		}

	case ModeAssignee:
		var assigned []columnSpec
		for key, tasks := range s.ByAssignee {
			id, ok := key.ID()
			if !ok {
				continue
			}
			assigned = append(assigned, columnSpec{"@" + id, assigneeTitle(id, tasks), lipgloss.Color("39"), tasks})
		}
		slices.SortFunc(assigned, func(a, b columnSpec) int {
			if c := strings.Compare(a.title, b.title); c != 0 {
				return c
			}
			return strings.Compare(a.key, b.key)
		})
		specs = append(assigned, columnSpec{"unassigned", "Unassigned", ui.MutedColor, s.ByAssignee[models.Unassigned()]})

	default:
		for _, st := range models.ValidTaskStatuses {
			specs = append(specs, columnSpec{string(st), ui.StatusLabel(st), ui.StatusColor(st), s.ByStatus[st]})
		}
		for _, st := range sortedExtraKeys(s.ByStatus, models.ValidTaskStatuses) {
			specs = append(specs, columnSpec{string(st), ui.StatusLabel(st), ui.MutedColor, s.ByStatus[st]})
		}
	}
	return specs
}

func sortedExtraKeys[K ~string](groups map[K][]models.Task, known []K) []K {
	var extra []K
	for k := range groups {
		if !slices.Contains(known, k) {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	return extra
}

func assigneeTitle(id string, tasks []models.Task) string {
	for _, t := range tasks {
		if t.Assignee != nil {
			if name := t.Assignee.DisplayName(); name != "" {
				return name
			}
		}
	}
	return id
}

// rebuildColumns reuses the existing columns when the set of keys is unchanged
// so scroll positions survive a refresh.
func (m *Model) rebuildColumns() {
	specs := m.columnSpecs()
	keys := make([]string, len(specs))
	for i, s := range specs {
		keys[i] = s.key
	}

	if !slices.Equal(keys, m.columnKeys) {
		expandedKey := ""
		if c := m.focusedColumn(); c != nil && c.IsExpanded() && m.focused < len(m.columnKeys) {
			expandedKey = m.columnKeys[m.focused]
		}
		m.columns = make([]*components.Column, len(specs))
		for i, s := range specs {
			m.columns[i] = components.NewColumn(s.title, s.color)
			if s.key == expandedKey {
				m.columns[i].SetExpanded(true)
			}
		}
		m.columnKeys = keys
		if m.focused >= len(m.columns) {
			m.focused = len(m.columns) - 1
		}
		if m.focused < 0 {
			m.focused = 0
		}
	}

	for i, s := range specs {
		m.columns[i].Title = s.title
		m.columns[i].SetTasks(s.tasks)
		m.columns[i].SetFocused(i == m.focused)
	}
	m.recalculateLayout()
}

func (m *Model) focusedColumn() *components.Column {
	if m.focused < 0 || m.focused >= len(m.columns) {
		return nil
	}
	return m.columns[m.focused]
}

func (m *Model) moveFocus(direction int) {
	if len(m.columns) == 0 {
		return
	}
	m.focused = (m.focused + direction + len(m.columns)) % len(m.columns)
	for i, c := range m.columns {
		c.SetFocused(i == m.focused)
	}
}

func (m *Model) toggleExpanded() {
	c := m.focusedColumn()
	if c == nil {
		return
	}
	expanded := !c.IsExpanded()
	for _, other := range m.columns {
		other.SetExpanded(false)
	}
	c.SetExpanded(expanded)
	m.recalculateLayout()
}

func (m *Model) isAnyColumnExpanded() bool {
	for _, c := range m.columns {
		if c.IsExpanded() {
			return true
		}
	}
	return false
}

func (m *Model) availableHeight() int {
	h := m.height - lipgloss.Height(m.renderHeader()) - lipgloss.Height(m.renderHelp())
	if h < 6 {
		h = 6
	}
	return h
}

func (m *Model) recalculateLayout() {
	if !m.ready {
		return
	}

	m.sidebarWidth = m.width / 4
	if m.sidebarWidth < 28 {
		m.sidebarWidth = 28
	}
	m.boardWidth = m.width - m.sidebarWidth
	if m.boardWidth < 0 {
		m.boardWidth = 0
	}

	m.completion.Width = m.sidebarWidth - 2
	m.overdue.Width = m.sidebarWidth - 2
	m.upcoming.Width = m.sidebarWidth - 2

	height := m.availableHeight()
	if len(m.columns) == 0 {
		return
	}
	if m.isAnyColumnExpanded() {
		for _, c := range m.columns {
			if c.IsExpanded() {
				c.SetSize(m.boardWidth, height)
			}
		}
		return
	}
	colWidth := m.boardWidth / len(m.columns)
	for _, c := range m.columns {
		c.SetSize(colWidth, height)
	}
}

func (m *Model) View() string {
	if !m.ready {
		return "Loading board..."
	}
	if m.quitting {
		return ""
	}

	header := m.renderHeader()
	help := m.renderHelp()
	height := m.availableHeight()

	sidebarContent := lipgloss.JoinVertical(lipgloss.Left,
		m.completion.View(),
		"",
		m.overdue.View(),
		"",
		m.upcoming.View(),
	)
	sidebar := lipgloss.NewStyle().
		Width(m.sidebarWidth-1).
		Height(height).
		MaxHeight(height).
		Border(lipgloss.NormalBorder(), false, true, false, false).
		BorderForeground(lipgloss.Color("240")).
		Render(sidebarContent)

	var views []string
	for _, c := range m.columns {
		if m.isAnyColumnExpanded() && !c.IsExpanded() {
			continue
		}
		views = append(views, c.View())
	}
	board := lipgloss.NewStyle().
		Width(m.boardWidth).
		Height(height).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, views...))

	mainContent := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, board)
	return header + "\n" + mainContent + "\n" + help
}

func (m *Model) renderHeader() string {
	status := fmt.Sprintf("%d tasks", len(m.snap.Tasks))
	if m.refreshing {
		status += " | refreshing..."
	}
	p := m.store.Pagination()
	if p.TotalPages > 1 {
		status += fmt.Sprintf(" | page %d/%d of %d", p.Page, p.TotalPages, p.Total)
	}

	headerText := fmt.Sprintf("%s | %s | %s", m.opts.Title, m.mode, status)
	orb := orbStyle.Render("⬤")
	text := headerTextStyle.Render(headerText)
	header := lipgloss.JoinHorizontal(lipgloss.Center, orb, "  ", text)
	if m.lastErr != "" {
		header = lipgloss.JoinVertical(lipgloss.Left, header, errorStyle.Render("Error: "+m.lastErr))
	}

	width := m.width - 4
	if width < 0 {
		width = 0
	}
	return headerStyle.Width(width).Render(header)
}

func (m *Model) renderHelp() string {
	return helpStyle.Render("'q' quit • 'tab' switch view • 'h'/'l' move • 'e' expand • 'r' refresh")
}

// Run starts the dashboard and blocks until the user quits or ctx is done.
func Run(ctx context.Context, st *store.TaskStore, opts Options) error {
	m := NewModel(st, opts)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			p.Quit()
		case <-done:
		}
	}()

	_, err := p.Run()
	return err
}
