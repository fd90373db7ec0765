package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/timesflying/internal/clock"
	"github.com/charmbracelet/lipgloss"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		Padding(1, 2)

	if title != "" {
		return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// HumanTimestampFrom formats t relative to now: clock time for today,
// "Yesterday 15:04", otherwise "Mon Jan 2 15:04".
func HumanTimestampFrom(t, now time.Time) string {
	t = t.In(now.Location())
	y1, m1, d1 := now.Date()
	y2, m2, d2 := t.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return t.Format("15:04")
	}
	y3, m3, d3 := now.AddDate(0, 0, -1).Date()
	if y2 == y3 && m2 == m3 && d2 == d3 {
		return "Yesterday " + t.Format("15:04")
	}
	return t.Format("Mon Jan 2 15:04")
}

// TruncID shortens a UUID for display.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

// Elapsed renders a duration the way the tracker shows it, green while running.
func Elapsed(d time.Duration, running, showSeconds bool) string {
	s := clock.FormatDuration(d, showSeconds)
	if running {
		return StyleGreen.Render(s)
	}
	return StyleFg.Render(s)
}

// Truncate cuts s to width visible cells, ending in an ellipsis when cut.
func Truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// Pager renders "page N" with the visible range, e.g. "page 2 · 31–60".
func Pager(page, perPage, shown int) string {
	if shown == 0 {
		return Dim(fmt.Sprintf("page %d · empty", page+1))
	}
	first := page*perPage + 1
	return Dim(fmt.Sprintf("page %d · %d–%d", page+1, first, first+shown-1))
}
