package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	scrollbarTrackStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("236"))

	scrollbarHandleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))
)

// ScrollView renders wrapped content in a viewport with a scrollbar when the
// content is taller than the view.
type ScrollView struct {
	viewport viewport.Model
	content  string
	ready    bool
}

func NewScrollView(width, height int) *ScrollView {
	return &ScrollView{
		viewport: viewport.New(width, height),
	}
}

// SetSize reserves one column for the scrollbar and re-wraps the content.
func (s *ScrollView) SetSize(width, height int) {
	vpWidth := width
	if width > 0 {
		vpWidth = width - 1
	}
	if !s.ready {
		s.viewport = viewport.New(vpWidth, height)
		s.ready = true
	} else {
		s.viewport.Width = vpWidth
		s.viewport.Height = height
	}
	s.render()
}

// SetContent replaces the content, keeping the scroll position where possible.
func (s *ScrollView) SetContent(content string) {
	s.content = content
	s.render()
}

func (s *ScrollView) render() {
	width := s.viewport.Width
	content := s.content
	if width > 0 {
		content = lipgloss.NewStyle().Width(width).Render(content)
	}
	s.viewport.SetContent(content)
	if maxOffset := s.viewport.TotalLineCount() - s.viewport.Height; maxOffset >= 0 && s.viewport.YOffset > maxOffset {
		s.viewport.GotoBottom()
	}
}

func (s *ScrollView) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	s.viewport, cmd = s.viewport.Update(msg)
	return cmd
}

func (s *ScrollView) View() string {
	if !s.ready {
		return ""
	}

	if s.viewport.TotalLineCount() <= s.viewport.Height {
		return s.viewport.View()
	}

	h := s.viewport.Height
	handlePos := int(float64(h-1) * s.viewport.ScrollPercent())

	var sb strings.Builder
	for i := 0; i < h; i++ {
		if i == handlePos {
			sb.WriteString(scrollbarHandleStyle.Render("┃"))
		} else {
			sb.WriteString(scrollbarTrackStyle.Render("│"))
		}
		if i < h-1 {
			sb.WriteString("\n")
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, s.viewport.View(), sb.String())
}

func (s *ScrollView) GotoTop() {
	s.viewport.GotoTop()
}

func (s *ScrollView) Height() int {
	return s.viewport.Height
}
