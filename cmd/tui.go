package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zjrosen/airdate/internal/ui/tracker"
)

func newTUICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}
}

func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	return withApp(cmd.Context(), opts, func(a *app) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		model := tracker.New(ctx, a.tracker, tracker.Options{
			ShowCounts: a.cfg.UI.ShowCounts,
			ShowStats:  a.cfg.UI.ShowStats,
		})
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running program: %w", err)
		}
		return nil
	})
}
