package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/ldi/taskake/pkg/models"
)

var (
	overdueBoxStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F44336")).
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#F44336")).
			Padding(0, 1)

	upcomingBoxStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FF9800")).
				Border(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("#FF9800")).
				Padding(0, 1)

	sectionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("252")).
				Padding(0, 1)

	placeholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Italic(true).
				Padding(0, 1)
)

// DeadlineKind selects the styling and wording of a DeadlineList.
type DeadlineKind int

const (
	DeadlineOverdue DeadlineKind = iota
	DeadlineUpcoming
)

// DeadlineList renders date-ordered tasks with their due time relative to Now.
type DeadlineList struct {
	Kind  DeadlineKind
	Title string
	Tasks []models.Task
	Now   time.Time
	Width int
	// Limit caps the number of rendered tasks; 0 means no cap.
	Limit int
}

func NewDeadlineList(kind DeadlineKind, width int) *DeadlineList {
	title := "Overdue"
	if kind == DeadlineUpcoming {
		title = "Upcoming Deadlines"
	}
	return &DeadlineList{
		Kind:  kind,
		Title: title,
		Width: width,
	}
}

func (d *DeadlineList) Set(tasks []models.Task, now time.Time) {
	d.Tasks = tasks
	d.Now = now
}

func (d *DeadlineList) View() string {
	var content string
	if len(d.Tasks) == 0 {
		msg := "No overdue tasks"
		if d.Kind == DeadlineUpcoming {
			msg = "Nothing due soon"
		}
		content = placeholderStyle.Render(msg)
	} else {
		content = d.renderBox()
	}

	if d.Title == "" {
		return content
	}
	return sectionHeaderStyle.Render(fmt.Sprintf("%s (%d)", d.Title, len(d.Tasks))) + "\n" + content
}

func (d *DeadlineList) renderBox() string {
	style, icon := overdueBoxStyle, "!"
	if d.Kind == DeadlineUpcoming {
		style, icon = upcomingBoxStyle, "◷"
	}

	innerWidth := d.Width - 4
	if innerWidth < 0 {
		innerWidth = 0
	}
	nameWidth := innerWidth - 2
	if nameWidth < 0 {
		nameWidth = 0
	}

	tasks := d.Tasks
	hidden := 0
	if d.Limit > 0 && len(tasks) > d.Limit {
		hidden = len(tasks) - d.Limit
		tasks = tasks[:d.Limit]
	}

	var lines []string
	for _, t := range tasks {
		wrapped := lipgloss.NewStyle().Width(nameWidth).Render(t.Title)
		for i, line := range strings.Split(wrapped, "\n") {
			if i == 0 {
				lines = append(lines, fmt.Sprintf("%s %s", icon, line))
			} else {
				lines = append(lines, fmt.Sprintf("  %s", line))
			}
		}
		lines = append(lines, "  "+taskMetaStyle.Render(RelativeDue(*t.DueDate, d.Now)))
	}
	if hidden > 0 {
		lines = append(lines, taskMetaStyle.Render(fmt.Sprintf("+%d more", hidden)))
	}

	return style.Width(d.Width - 2).Render(strings.Join(lines, "\n"))
}

// RelativeDue describes a due date relative to now, e.g. "due 3 days from now".
func RelativeDue(due, now time.Time) string {
	return "due " + humanize.RelTime(due, now, "ago", "from now")
}
