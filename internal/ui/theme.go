package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ldi/taskake/pkg/models"
)

// StatusColors and PriorityColors match the web client's palette.
var StatusColors = map[models.TaskStatus]lipgloss.Color{
	models.TaskStatusTodo:       lipgloss.Color("#9E9E9E"),
	models.TaskStatusInProgress: lipgloss.Color("#2196F3"),
	models.TaskStatusReview:     lipgloss.Color("#FF9800"),
	models.TaskStatusDone:       lipgloss.Color("#4CAF50"),
	models.TaskStatusCancelled:  lipgloss.Color("#F44336"),
}

var PriorityColors = map[models.TaskPriority]lipgloss.Color{
	models.TaskPriorityLow:      lipgloss.Color("#4CAF50"),
	models.TaskPriorityMedium:   lipgloss.Color("#FFC107"),
	models.TaskPriorityHigh:     lipgloss.Color("#FF9800"),
	models.TaskPriorityCritical: lipgloss.Color("#F44336"),
}

// MutedColor is used for anything without a palette entry.
var MutedColor = lipgloss.Color("241")

func StatusColor(s models.TaskStatus) lipgloss.Color {
	if c, ok := StatusColors[s]; ok {
		return c
	}
	return MutedColor
}

func PriorityColor(p models.TaskPriority) lipgloss.Color {
	if c, ok := PriorityColors[p]; ok {
		return c
	}
	return MutedColor
}

// StatusLabel turns "in_progress" into "In Progress".
func StatusLabel(s models.TaskStatus) string {
	return titleCase(string(s))
}

func PriorityLabel(p models.TaskPriority) string {
	return titleCase(string(p))
}

func titleCase(s string) string {
	if s == "" {
		return "Unknown"
	}
	words := strings.Split(s, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
