// Package help contains the help overlay component.
package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/airdate/internal/keys"
	"github.com/zjrosen/airdate/internal/ui/styles"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.TextPrimaryColor).
			PaddingLeft(2)

	dividerStyle = lipgloss.NewStyle().
			Foreground(styles.BorderDefaultColor)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.TextPrimaryColor).
			MarginTop(1)

	keyStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondaryColor).
			Width(9)

	descStyle = lipgloss.NewStyle().
			Foreground(styles.TextMutedColor)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(styles.BorderDefaultColor)

	contentStyle = lipgloss.NewStyle().
			Padding(0, 2)

	footerStyle = lipgloss.NewStyle().
			Foreground(styles.TextMutedColor).
			MarginTop(1)
)

// sectionTitles names the groups returned by KeyMap.FullHelp, in order.
var sectionTitles = []string{"Navigation", "Editing", "Filtering", "General"}

// Model holds the help view state.
type Model struct {
	keys   keys.KeyMap
	width  int
	height int
}

// New creates a help view for the default keymap.
func New() Model {
	return Model{keys: keys.DefaultKeyMap()}
}

// SetSize updates dimensions.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	return m
}

// View renders the help overlay (standalone, no background).
func (m Model) View() string {
	return m.Overlay("")
}

// Overlay renders the help box centered on top of a background view.
func (m Model) Overlay(background string) string {
	box := m.renderContent()
	if background == "" {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}
	return place(box, background, m.width, m.height)
}

func (m Model) renderContent() string {
	columnStyle := lipgloss.NewStyle().MarginRight(4)

	groups := m.keys.FullHelp()
	cols := make([]string, 0, len(groups))
	for i, group := range groups {
		var col strings.Builder
		col.WriteString(sectionStyle.Render(sectionTitles[i]))
		col.WriteString("\n")
		for _, b := range group {
			col.WriteString(renderBinding(b))
		}
		if i < len(groups)-1 {
			cols = append(cols, columnStyle.Render(col.String()))
		} else {
			cols = append(cols, col.String())
		}
	}
	columns := lipgloss.JoinHorizontal(lipgloss.Top, cols...)

	boxWidth := lipgloss.Width(columns) + 4
	body := contentStyle.Render(columns + "\n" + footerStyle.Render("Press ? or Esc to close"))
	divider := dividerStyle.Render(strings.Repeat("─", boxWidth))

	var content strings.Builder
	content.WriteString(titleStyle.Render("Keybindings"))
	content.WriteString("\n")
	content.WriteString(divider)
	content.WriteString("\n")
	content.WriteString(body)

	return boxStyle.Width(boxWidth).Render(content.String())
}

func renderBinding(b key.Binding) string {
	h := b.Help()
	return keyStyle.Render(h.Key) + descStyle.Render(h.Desc) + "\n"
}

// place splices fg into the center of bg, keeping the styling of both.
func place(fg, bg string, width, height int) string {
	fgLines := strings.Split(fg, "\n")
	bgLines := strings.Split(bg, "\n")
	for len(bgLines) < height {
		bgLines = append(bgLines, strings.Repeat(" ", width))
	}

	x := max((width-lipgloss.Width(fg))/2, 0)
	y := max((height-len(fgLines))/2, 0)

	for i, fgLine := range fgLines {
		row := y + i
		if row >= len(bgLines) {
			break
		}
		bgLine := bgLines[row]

		left := ansi.Truncate(bgLine, x, "")
		if w := ansi.StringWidth(left); w < x {
			left += strings.Repeat(" ", x-w)
		}
		var right string
		if end := x + ansi.StringWidth(fgLine); end < ansi.StringWidth(bgLine) {
			right = ansi.TruncateLeft(bgLine, end, "")
		}
		bgLines[row] = left + fgLine + right
	}
	return strings.Join(bgLines, "\n")
}
