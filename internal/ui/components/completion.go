package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// CompletionBar shows the completion percentage as a progress bar.
type CompletionBar struct {
	bar     progress.Model
	percent int
	total   int
	done    int
	Width   int
}

func NewCompletionBar(width int) *CompletionBar {
	return &CompletionBar{
		bar:   progress.New(progress.WithSolidFill("#4CAF50"), progress.WithoutPercentage()),
		Width: width,
	}
}

// Set records the percentage and the counts it was derived from.
func (c *CompletionBar) Set(percent, done, total int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	c.percent = percent
	c.done = done
	c.total = total
}

func (c *CompletionBar) Percent() int {
	return c.percent
}

func (c *CompletionBar) View() string {
	label := fmt.Sprintf("%d%% complete (%d/%d done)", c.percent, c.done, c.total)

	barWidth := c.Width - 2
	if barWidth < 1 {
		barWidth = 1
	}
	c.bar.Width = barWidth

	header := sectionHeaderStyle.Render("Completion")
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		" "+c.bar.ViewAs(float64(c.percent)/100),
		placeholderStyle.UnsetItalic().Render(label),
	)
}
