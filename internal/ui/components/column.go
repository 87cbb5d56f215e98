package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ldi/taskake/internal/ui"
	"github.com/ldi/taskake/pkg/models"
)

var (
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)

	columnFocusedStyle = lipgloss.NewStyle().
				Border(lipgloss.ThickBorder()).
				BorderForeground(lipgloss.Color("12")).
				Padding(0, 1)

	taskTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	taskMetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// Column is one board column: a header and a scrollable list of task cards.
type Column struct {
	Title string
	Color lipgloss.Color
	Tasks []models.Task
	List  *ScrollView

	width    int
	height   int
	expanded bool
	focused  bool
	ready    bool
}

func NewColumn(title string, color lipgloss.Color) *Column {
	return &Column{
		Title: title,
		Color: color,
		List:  NewScrollView(0, 0),
	}
}

// SetSize sets the outer size of the column, borders included.
func (c *Column) SetSize(width, height int) {
	c.width = width
	c.height = height
	c.ready = true
	c.updateListSize()
}

func (c *Column) updateListSize() {
	// borders (2) + padding (2) horizontally; borders (2) + header + underline vertically
	listHeight := c.height - 4
	if listHeight < 1 {
		listHeight = 1
	}
	listWidth := c.width - 4
	if listWidth < 1 {
		listWidth = 1
	}
	c.List.SetSize(listWidth, listHeight)
	c.renderTasks()
}

func (c *Column) SetTasks(tasks []models.Task) {
	c.Tasks = tasks
	c.renderTasks()
}

func (c *Column) renderTasks() {
	if len(c.Tasks) == 0 {
		c.List.SetContent(placeholderStyle.Render("No tasks"))
		return
	}
	cards := make([]string, 0, len(c.Tasks))
	for _, t := range c.Tasks {
		cards = append(cards, RenderTaskCard(t))
	}
	c.List.SetContent(strings.Join(cards, "\n\n"))
}

// RenderTaskCard renders a task as a title line and a muted metadata line.
func RenderTaskCard(t models.Task) string {
	marker := lipgloss.NewStyle().Foreground(ui.PriorityColor(t.Priority)).Render("■")
	title := taskTitleStyle.Render(t.Title)

	meta := []string{
		lipgloss.NewStyle().Foreground(ui.StatusColor(t.Status)).Render(ui.StatusLabel(t.Status)),
		ui.PriorityLabel(t.Priority),
	}
	if t.DueDate != nil {
		meta = append(meta, "due "+t.DueDate.Local().Format("Jan 2"))
	}
	if t.Assignee != nil {
		meta = append(meta, "@"+t.Assignee.DisplayName())
	}
	return fmt.Sprintf("%s %s\n  %s", marker, title, taskMetaStyle.Render(strings.Join(meta, " · ")))
}

func (c *Column) SetFocused(focused bool) {
	c.focused = focused
}

func (c *Column) SetExpanded(expanded bool) {
	c.expanded = expanded
}

func (c *Column) IsExpanded() bool {
	return c.expanded
}

func (c *Column) IsFocused() bool {
	return c.focused
}

func (c *Column) renderHeader() string {
	width := c.width - 4
	if width < 0 {
		width = 0
	}
	header := fmt.Sprintf("%s (%d)", c.Title, len(c.Tasks))
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(c.Color).
		Width(width).
		MaxHeight(1).
		Render(header)
}

func (c *Column) renderUnderline() string {
	width := c.width - 4
	if width < 0 {
		width = 0
	}
	return lipgloss.NewStyle().Foreground(c.Color).Render(strings.Repeat("─", width))
}

func (c *Column) View() string {
	if !c.ready {
		return "Initializing..."
	}

	style := columnStyle
	if c.focused {
		style = columnFocusedStyle
	}

	content := fmt.Sprintf("%s\n%s\n%s", c.renderHeader(), c.renderUnderline(), c.List.View())

	height := c.height - 2
	if height < 0 {
		height = 0
	}
	return style.
		Width(c.width - 2).
		Height(height).
		MaxHeight(c.height).
		Render(content)
}

// Update scrolls the list. Keys only reach a focused column.
func (c *Column) Update(msg tea.Msg) tea.Cmd {
	if _, ok := msg.(tea.KeyMsg); ok && !c.focused {
		return nil
	}
	return c.List.Update(msg)
}
