package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		width    int
		expected string
	}{
		{"fits", "Severance", 20, "Severance"},
		{"exact", "Severance", 9, "Severance"},
		{"truncated", "The Last of Us", 10, "The Las..."},
		{"tiny width", "Severance", 2, "Se"},
		{"zero width", "Severance", 0, ""},
		{"wide runes", "進撃の巨人", 7, "進撃..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, TruncateString(tt.input, tt.width))
		})
	}
}

func TestTruncateString_KeepsEscapeCodes(t *testing.T) {
	lipgloss.SetColorProfile(termenv.ANSI256)
	t.Cleanup(func() { lipgloss.SetColorProfile(termenv.Ascii) })

	styled := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Render("Andor season two")
	got := TruncateString(styled, 8)

	require.Equal(t, 8, lipgloss.Width(got))
	require.Contains(t, got, "\x1b[")
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		name      string
		remaining int
		expected  string
	}{
		{"nothing left", 0, ""},
		{"unknown", -1, ""},
		{"one", 1, "1 left"},
		{"many", 12, "12 left"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, FormatRemaining(tt.remaining), "FormatRemaining(%d)", tt.remaining)
		})
	}
}

func TestStatusStyle_RendersLabel(t *testing.T) {
	for _, status := range []string{"watching", "completed", "planned", "dropped", "unknown"} {
		require.Contains(t, StatusStyle(status).Render(status), status)
	}
}
