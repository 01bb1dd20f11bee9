package tracker

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/airdate/internal/schedule"
	"github.com/zjrosen/airdate/internal/ui/styles"
)

const (
	minWidth    = 40
	titleColumn = 28
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.TextPrimaryColor).Padding(0, 1)

// View renders the schedule.
func (m Model) View() string {
	width := max(m.width, minWidth)

	var b strings.Builder
	b.WriteString(m.renderHeader(width))
	b.WriteString("\n")

	if m.showStats {
		b.WriteString(styles.RenderSection([]string{" " + m.statsLine()}, "Stats", "", width, false))
		b.WriteString("\n")
	}

	b.WriteString(m.renderGroups(width))
	b.WriteString("\n")
	if m.showHistory {
		b.WriteString(styles.RenderSection(m.historyLines(), "History", "h to close", width, false))
		b.WriteString("\n")
	}
	if m.showLog {
		b.WriteString(styles.RenderSection(m.logPaneLines(), "Debug log", "L to close", width, false))
		b.WriteString("\n")
	}
	b.WriteString(m.renderStatusBar(width))

	out := b.String()
	if m.showHelp {
		return m.help.Overlay(out)
	}
	return out
}

func (m Model) renderHeader(width int) string {
	query, status := m.tracker.Filter()

	if m.filtering {
		return styles.RenderSection([]string{" " + m.input.View()}, "Filter", "enter to apply", width, true)
	}

	parts := []string{headerStyle.Render("airdate")}
	if query != "" {
		parts = append(parts, styles.SecondaryStyle.Render(fmt.Sprintf("query %q", query)))
	}
	if status != "" {
		parts = append(parts, styles.StatusStyle(string(status)).Render(string(status)))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderGroups(width int) string {
	if len(m.rows) == 0 {
		query, status := m.tracker.Filter()
		if query != "" || status != "" {
			return styles.MutedStyle.Render("  No shows match the filter (x to clear)")
		}
		return styles.MutedStyle.Render("  No shows yet. Add one with: airdate add <title>")
	}

	now := m.now()
	var lines []string
	index := 0
	for _, g := range m.groups {
		label := g.Label
		if m.showCounts {
			label = fmt.Sprintf("%s (%d)", label, len(g.Shows))
		}
		lines = append(lines, styles.DayHeaderStyle.Render(label))
		for _, show := range g.Shows {
			lines = append(lines, m.renderRow(show, index == m.cursor, width, now))
			index++
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRow(show schedule.Show, selected bool, width int, now time.Time) string {
	indicator := "  "
	titleStyle := styles.TitleStyle
	if selected {
		indicator = styles.SelectionIndicatorStyle.Render("> ")
		titleStyle = styles.SelectedRowStyle
	}

	title := styles.TruncateString(show.Title, titleColumn)
	title += strings.Repeat(" ", max(titleColumn-lipgloss.Width(title), 0))

	details := []string{show.Progress()}
	if show.AirTime != "" {
		details = append(details, show.AirTime)
	}
	if show.Network != "" {
		details = append(details, show.Network)
	}
	if left := styles.FormatRemaining(show.Remaining()); left != "" {
		details = append(details, left)
	}
	if next, ok := schedule.NextAirDate(show, now); ok {
		details = append(details, "next "+formatNext(next, now))
	}

	row := indicator +
		titleStyle.Render(title) + " " +
		styles.StatusStyle(string(show.Status)).Render(fmt.Sprintf("%-9s", show.Status)) + " " +
		styles.SecondaryStyle.Render(strings.Join(details, " · "))
	return styles.TruncateString(row, width)
}

func (m Model) statsLine() string {
	s := m.stats
	return fmt.Sprintf("%d shows · %d watching · %d planned · %d completed · %d dropped · %d episodes watched · %d to go",
		s.Total,
		s.ByStatus[schedule.StatusWatching],
		s.ByStatus[schedule.StatusPlanned],
		s.ByStatus[schedule.StatusCompleted],
		s.ByStatus[schedule.StatusDropped],
		s.EpisodesWatched,
		s.EpisodesRemaining,
	)
}

// historyLines lists the newest undo entries; the current one is marked and
// entries that redo would re-apply are muted.
func (m Model) historyLines() []string {
	entries := m.tracker.Store().History()
	start := max(len(entries)-historyRows, 0)

	lines := make([]string, 0, len(entries)-start)
	afterCurrent := false
	for _, e := range entries[:start] {
		if e.Current {
			afterCurrent = true
		}
	}
	for _, e := range entries[start:] {
		marker := "  "
		if e.Current {
			marker = styles.SelectionIndicatorStyle.Render("* ")
		}
		text := fmt.Sprintf("%s  %-24s %s", e.Timestamp.Format("15:04:05"), e.Label, e.ID.String()[:8])
		if afterCurrent {
			text = styles.MutedStyle.Render(text)
		}
		lines = append(lines, " "+marker+text)
		if e.Current {
			afterCurrent = true
		}
	}
	return lines
}

func (m Model) logPaneLines() []string {
	if m.logs == nil && len(m.logLines) == 0 {
		return []string{styles.MutedStyle.Render(" Logging is off (run with --debug)")}
	}
	if len(m.logLines) == 0 {
		return []string{styles.MutedStyle.Render(" No log entries yet")}
	}
	lines := make([]string, len(m.logLines))
	for i, l := range m.logLines {
		lines[i] = " " + l
	}
	return lines
}

func (m Model) renderStatusBar(width int) string {
	var left string
	switch {
	case m.message != "" && m.messageErr:
		left = styles.ErrorStyle.Render(m.message)
	case m.message != "":
		left = styles.SuccessStyle.Render(m.message)
	default:
		info := m.tracker.Store().HistoryInfo()
		left = styles.MutedStyle.Render(fmt.Sprintf("%d/%d in history", info.CurrentIndex+1, info.Size))
	}

	bindings := m.keys.ShortHelp()
	if m.filtering {
		bindings = m.filterKeys.ShortHelp()
	}
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		hints = append(hints, renderHint(b))
	}
	return styles.StatusBarStyle.Render(styles.TruncateString(left+"  "+strings.Join(hints, " "), width-2))
}

func renderHint(b key.Binding) string {
	h := b.Help()
	return styles.SecondaryStyle.Render(h.Key) + " " + styles.MutedStyle.Render(h.Desc)
}

// formatNext renders an upcoming air date relative to now.
func formatNext(next, now time.Time) string {
	days := int(math.Round(startOfDay(next).Sub(startOfDay(now)).Hours() / 24))
	switch days {
	case 0:
		return "today " + next.Format("15:04")
	case 1:
		return "tomorrow"
	default:
		return next.Format("Mon Jan 2")
	}
}

func startOfDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}
