package cmd

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var version = "dev"

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	debug      bool
	logLevel   string
	logFile    string
	ephemeral  bool
	errOut     io.Writer
}

// NewRootCmd builds the airdate command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "airdate",
		Short: "Track the shows you watch and when they air",
		Long: `airdate keeps a list of the shows you follow: the weekday they air,
the episode you are on, and whether you are watching, planning, done or
dropped. Run it without a subcommand to open the interactive schedule.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			opts.errOut = cmd.ErrOrStderr()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"config file (default: .airdate/config.yaml or ~/.config/airdate/config.yaml)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", os.Getenv("AIRDATE_DEBUG") != "",
		"write a debug log to the data directory")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "debug",
		"minimum level written to the debug log: debug, info, warn or error")
	root.PersistentFlags().StringVar(&opts.logFile, "log-file", "",
		`debug log path, or "-" for stderr (default: debug.log in the data directory)`)
	root.PersistentFlags().BoolVar(&opts.ephemeral, "ephemeral", false,
		"keep state in memory only for this run")

	root.AddCommand(
		newListCmd(opts),
		newAddCmd(opts),
		newWatchCmd(opts),
		newRemoveCmd(opts),
		newImportCmd(opts),
		newExportCmd(opts),
		newStatsCmd(opts),
		newClearCmd(opts),
		newStorageCmd(opts),
		newInfoCmd(opts),
		newTUICmd(opts),
	)
	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
}
