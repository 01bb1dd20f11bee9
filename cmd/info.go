package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newInfoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show where state is kept and what the store holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				saved, ok, err := a.adapter.LastSaved(cmd.Context())
				if err != nil {
					return fmt.Errorf("reading saved state: %w", err)
				}
				lastSaved := "never"
				if ok {
					lastSaved = saved.Local().Format(time.DateTime)
				}

				configPath := a.configPath
				if configPath == "" {
					configPath = "(defaults)"
				}

				var b strings.Builder
				fmt.Fprintf(&b, "Config:      %s\n", configPath)
				fmt.Fprintf(&b, "Backend:     %s\n", a.adapter.Backend())
				fmt.Fprintf(&b, "Key:         %s\n", a.cfg.Storage.Key)
				if a.adapter.Backend() != "memory" {
					fmt.Fprintf(&b, "Path:        %s\n", a.cfg.ResolvedStoragePath())
				}
				fmt.Fprintf(&b, "Last saved:  %s\n", lastSaved)

				history := a.store.History()
				fmt.Fprintf(&b, "History:     %d entries\n", len(history))
				for _, e := range history {
					marker := " "
					if e.Current {
						marker = "*"
					}
					fmt.Fprintf(&b, "  %s %s  %s\n", marker, e.ID.String()[:8], e.Label)
				}

				ci := a.store.ComputedInfo()
				fmt.Fprintf(&b, "Computed:    %d registered, %d cached, %d dirty\n", ci.Registered, ci.Cached, ci.Dirty)
				_, err = fmt.Fprint(cmd.OutOrStdout(), b.String())
				return err
			})
		},
	}
}
