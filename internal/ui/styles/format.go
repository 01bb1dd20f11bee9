package styles

import (
	"fmt"

	"github.com/charmbracelet/x/ansi"
)

// TruncateString truncates a string to fit within maxWidth, adding ellipsis if needed.
// Width is measured in terminal cells and styled input keeps its escape codes.
func TruncateString(s string, maxWidth int) string {
	if maxWidth < 1 {
		return ""
	}
	if ansi.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return ansi.Truncate(s, maxWidth, "")
	}
	return ansi.Truncate(s, maxWidth, "...")
}

// FormatRemaining returns the "N left" indicator for a show.
// Returns empty string when the total is unknown or nothing is left.
func FormatRemaining(remaining int) string {
	if remaining <= 0 {
		return ""
	}
	return fmt.Sprintf("%d left", remaining)
}
