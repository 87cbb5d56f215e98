package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	logoStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#2196F3"))
	itemStyle         = lipgloss.NewStyle().PaddingLeft(2)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("#2196F3")).Bold(true)
	descStyle         = lipgloss.NewStyle().Foreground(MutedColor)
)

const logo = `
 _              _         _
| |_  __ _  ___| | __ __ _| | _____
| __|/ _' |/ __| |/ // _' | |/ / _ \
| |_| (_| |\__ \   <| (_| |   <  __/
 \__|\__,_||___/_|\_\\__,_|_|\_\___|
`

// MenuChoice is one entry of the start menu.
type MenuChoice struct {
	Command     string
	Description string
}

var defaultChoices = []MenuChoice{
	{"board", "interactive task board"},
	{"status", "completion and deadline summary"},
	{"list-tasks", "print the current task page"},
	{"overdue", "open tasks past their due date"},
	{"upcoming", "open tasks due within the window"},
	{"web", "serve the board views as JSON"},
	{"mcp", "serve the board views as MCP tools"},
	{"projects", "list organization projects"},
	{"whoami", "show the authenticated user"},
	{"config", "show effective configuration"},
}

type MenuModel struct {
	choices  []MenuChoice
	cursor   int
	selected string
	quitting bool
}

func NewMenuModel() MenuModel {
	return MenuModel{
		choices: defaultChoices,
	}
}

func (m MenuModel) Init() tea.Cmd {
	return nil
}

func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.choices)-1 {
				m.cursor++
			}

		case "enter":
			m.selected = m.choices[m.cursor].Command
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m MenuModel) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder

	s.WriteString(logoStyle.Render(logo))
	s.WriteString("\n\n")

	for i, choice := range m.choices {
		line := fmt.Sprintf("%-12s %s", choice.Command, descStyle.Render(choice.Description))
		if m.cursor == i {
			s.WriteString(selectedItemStyle.Render("> " + line))
		} else {
			s.WriteString(itemStyle.Render("  " + line))
		}
		s.WriteString("\n")
	}

	s.WriteString("\n(use arrow keys or j/k to navigate, enter to select, q to quit)\n")

	return s.String()
}

func (m MenuModel) Selected() string {
	return m.selected
}

func RunMenu() (string, error) {
	m := NewMenuModel()
	p := tea.NewProgram(m)
	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}
	return finalModel.(MenuModel).Selected(), nil
}
