package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/airdate/internal/schedule"
	"github.com/zjrosen/airdate/internal/snapshotdiff"
)

// Export formats.
const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// exportDocument is the shape written by export and accepted by import.
type exportDocument struct {
	Shows []schedule.Show `json:"shows" yaml:"shows"`
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	var replace, dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import shows from a JSON file",
		Long: `Import shows from a JSON file holding either an array of shows or an
object with a "shows" array, such as the output of "airdate export".

Shows are matched to existing ones by id, then by title; matches are updated
and the rest are added. --replace swaps the whole list instead. Use "-" to
read from stdin.

Examples:
  airdate import shows.json
  airdate import shows.json --dry-run
  airdate export | airdate import --replace -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			incoming, err := schedule.ParseImport(data)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", args[0], err)
			}

			return withApp(cmd.Context(), opts, func(a *app) error {
				out := cmd.OutOrStdout()
				if dryRun {
					return previewImport(out, a.tracker, incoming, replace)
				}
				res, err := a.tracker.Import(incoming, replace)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(out, "Imported %d added, %d updated, %d total\n", res.Added, res.Updated, res.Total)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "replace the whole list instead of merging")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would change without saving")
	return cmd
}

func previewImport(w io.Writer, t *schedule.Tracker, incoming []schedule.Show, replace bool) error {
	before, err := t.Shows()
	if err != nil {
		return err
	}
	after, res, err := t.PlanImport(incoming, replace)
	if err != nil {
		return err
	}

	diff, err := snapshotdiff.Compare(before, after)
	if err != nil {
		return err
	}
	if !diff.Changed() {
		_, err = fmt.Fprintln(w, "No changes.")
		return err
	}
	if _, err := fmt.Fprintln(w, diff.Unified(2)); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Would import %d added, %d updated, %d total (+%d -%d lines)\n",
		res.Added, res.Updated, res.Total, diff.Added, diff.Removed)
	return err
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: user-supplied import file
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every show as JSON or YAML",
		Example: `  airdate export > shows.json
  airdate export --format yaml -o shows.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != formatJSON && format != formatYAML {
				return fmt.Errorf("format must be %q or %q, got %q", formatJSON, formatYAML, format)
			}
			return withApp(cmd.Context(), opts, func(a *app) error {
				shows, err := a.tracker.Shows()
				if err != nil {
					return err
				}
				if shows == nil {
					shows = []schedule.Show{}
				}
				data, err := encodeExport(exportDocument{Shows: shows}, format)
				if err != nil {
					return err
				}
				if output == "" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				if err := os.WriteFile(output, data, 0o600); err != nil {
					return fmt.Errorf("writing %s: %w", output, err)
				}
				_, err = fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d shows to %s\n", len(shows), output)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	return cmd
}

func encodeExport(doc exportDocument, format string) ([]byte, error) {
	if format == formatYAML {
		data, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encoding yaml: %w", err)
		}
		return data, nil
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding json: %w", err)
	}
	return append(data, '\n'), nil
}
