package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/airdate/internal/config"
	"github.com/zjrosen/airdate/internal/persist"
	"github.com/zjrosen/airdate/internal/schedule"
	"github.com/zjrosen/airdate/internal/store"
)

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the show list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				st := a.tracker.Stats()
				var b strings.Builder
				fmt.Fprintf(&b, "Shows:              %d\n", st.Total)
				for _, status := range schedule.Statuses {
					fmt.Fprintf(&b, "  %-17s %d\n", string(status)+":", st.ByStatus[status])
				}
				fmt.Fprintf(&b, "Episodes watched:   %d\n", st.EpisodesWatched)
				fmt.Fprintf(&b, "Episodes remaining: %d\n", st.EpisodesRemaining)
				_, err := fmt.Fprint(cmd.OutOrStdout(), b.String())
				return err
			})
		},
	}
}

func newClearCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the saved show list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("clear removes every saved show; run again with --yes to confirm")
			}
			return withApp(cmd.Context(), opts, func(a *app) error {
				if err := a.adapter.Clear(cmd.Context()); err != nil {
					return fmt.Errorf("clearing saved state: %w", err)
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "Cleared saved state.")
				return err
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deletion")
	return cmd
}

func newStorageCmd(opts *rootOptions) *cobra.Command {
	var (
		path     string
		key      string
		copyData bool
	)

	cmd := &cobra.Command{
		Use:   "storage <file|sqlite|memory>",
		Short: "Switch the storage backend in the config file",
		Long: `Switch the storage backend recorded in the config file, keeping its
comments and other sections. The current show list is copied into the new
backend unless --copy=false is given.

Examples:
  airdate storage sqlite
  airdate storage file --path ~/shows`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				next := config.StorageConfig{Backend: args[0], Path: path, Key: key}
				if next.Key == "" {
					next.Key = a.cfg.Storage.Key
				}
				if err := config.ValidateStorage(next); err != nil {
					return err
				}

				if copyData && next.Backend != config.BackendMemory {
					if err := copyState(cmd, a, next); err != nil {
						return err
					}
				}

				configPath := a.configPath
				if configPath == "" {
					configPath = config.LocalConfigPath
				}
				if err := config.SaveStorage(configPath, next); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Storage set to %s in %s\n", next.Backend, configPath)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "directory (file) or database file (sqlite)")
	cmd.Flags().StringVar(&key, "key", "", "name of the stored snapshot")
	cmd.Flags().BoolVar(&copyData, "copy", true, "copy the current show list into the new backend")
	return cmd
}

// copyState saves the open store's raw state through a second adapter.
func copyState(cmd *cobra.Command, a *app, target config.StorageConfig) error {
	cfg := a.cfg
	cfg.Storage = target
	dst := &app{cfg: cfg}
	defer func() { _ = dst.Close(cmd.Context()) }()

	blobs, err := dst.openBackend()
	if err != nil {
		return err
	}
	adapter := persist.NewAdapter(blobs, persist.WithKey(target.Key))
	if err := adapter.Save(cmd.Context(), store.Snapshot(a.store.GetAll())); err != nil {
		return fmt.Errorf("copying state to %s: %w", target.Backend, err)
	}
	return nil
}
