package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/zjrosen/airdate/internal/schedule"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		day    string
		query  string
		status string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List shows grouped by the day they air",
		Long: `List shows grouped by weekday, earliest air time first.

Without flags the saved filter from the interactive view applies.
--query and --status filter this listing only and leave the saved filter alone.

Examples:
  airdate list
  airdate list --day fri
  airdate list --query sev --status watching`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				groups, err := listGroups(a.tracker, cmd, query, status)
				if err != nil {
					return err
				}
				if day != "" {
					canonical, ok := schedule.NormalizeDay(day)
					if !ok {
						return fmt.Errorf("unknown day %q", day)
					}
					groups = onlyDay(groups, canonical)
				}
				return renderGroups(cmd.OutOrStdout(), groups)
			})
		},
	}

	cmd.Flags().StringVar(&day, "day", "", "only shows airing on this weekday (mon..sun)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "match title or network")
	cmd.Flags().StringVarP(&status, "status", "s", "", "watching, completed, planned or dropped")
	return cmd
}

func listGroups(t *schedule.Tracker, cmd *cobra.Command, query, status string) ([]schedule.DayGroup, error) {
	if !cmd.Flags().Changed("query") && !cmd.Flags().Changed("status") {
		return t.ByDay(), nil
	}
	st := schedule.Status(strings.ToLower(status))
	if st != "" && !st.Valid() {
		return nil, fmt.Errorf("unknown status %q", status)
	}
	shows, err := t.Shows()
	if err != nil {
		return nil, err
	}
	return schedule.GroupByDay(schedule.Filter(shows, query, st)), nil
}

func onlyDay(groups []schedule.DayGroup, day string) []schedule.DayGroup {
	for _, g := range groups {
		if g.Day == day {
			return []schedule.DayGroup{g}
		}
	}
	return nil
}

func renderGroups(w io.Writer, groups []schedule.DayGroup) error {
	if len(groups) == 0 {
		_, err := fmt.Fprintln(w, "No shows.")
		return err
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("DAY", "TIME", "TITLE", "NETWORK", "PROGRESS", "STATUS", "ID")
	for _, g := range groups {
		for _, s := range g.Shows {
			t.Row(g.Label, s.AirTime, s.Title, s.Network, s.Progress(), string(s.Status), shortID(s.ID))
		}
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// shortID is the prefix shown in listings; Find accepts it as a reference.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var show schedule.Show
	var status string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a show",
		Example: `  airdate add "Severance" --network "Apple TV+" --day fri --time 21:00 --episodes 10
  airdate add "Shogun" --status watching`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			show.Title = args[0]
			show.Status = schedule.Status(status)
			return withApp(cmd.Context(), opts, func(a *app) error {
				added, err := a.tracker.Add(show)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", added.Title, shortID(added.ID))
				return err
			})
		},
	}

	cmd.Flags().StringVar(&show.Network, "network", "", "network or streaming service")
	cmd.Flags().StringVar(&show.Day, "day", "", "weekday it airs (mon..sun)")
	cmd.Flags().StringVar(&show.AirTime, "time", "", "air time, HH:MM")
	cmd.Flags().IntVar(&show.Season, "season", 1, "current season")
	cmd.Flags().IntVar(&show.TotalEpisodes, "episodes", 0, "episodes in the season")
	cmd.Flags().StringVar(&status, "status", "", "watching, completed, planned (default) or dropped")
	return cmd
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <id|title>",
		Short: "Mark the next episode of a show as watched",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				show, err := a.tracker.MarkWatched(args[0])
				if err != nil {
					return err
				}
				msg := fmt.Sprintf("%s now at %s", show.Title, show.Progress())
				if show.Status == schedule.StatusCompleted {
					msg += " (completed)"
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), msg)
				return err
			})
		},
	}
}

func newRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id|title>",
		Aliases: []string{"rm"},
		Short:   "Remove a show",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				show, err := a.tracker.Remove(args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", show.Title)
				return err
			})
		},
	}
}
