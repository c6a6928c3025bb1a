package cmd

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docsync/internal/logging"
)

type logsOptions struct {
	lines   int
	level   string
	filter  string
	logFile string
}

func newLogsCmd(root *rootOptions) *cobra.Command {
	var opts logsOptions

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent log entries",
		Long: `Print the last entries of the docsync log file. The file lives in
logging.dir (default ~/.docsync/logs).`,
		Example: `  docsync logs                    # last 50 lines
  docsync logs -n 200 --level warn
  docsync logs --filter "sync_pass"  # regex over the raw line`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir := logging.DefaultLogDir()
			if cfg, err := root.config(); err == nil {
				dir = cfg.Logging.Dir
			}
			return runLogs(cmd, root.noColor, dir, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.lines, "lines", "n", 50, "Number of lines to read")
	cmd.Flags().StringVar(&opts.level, "level", "", "Minimum level (debug|info|warn|error)")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "Only show lines matching this regex")
	cmd.Flags().StringVar(&opts.logFile, "file", "", "Log file to read")

	return cmd
}

func runLogs(cmd *cobra.Command, noColor bool, dir string, opts logsOptions) error {
	path, err := logging.FindLogFile(opts.logFile, dir)
	if err != nil {
		return err
	}

	var pattern *regexp.Regexp
	if opts.filter != "" {
		pattern, err = regexp.Compile(opts.filter)
		if err != nil {
			return fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	viewer := logging.NewViewer(logging.ViewerConfig{
		Level:   opts.level,
		Pattern: pattern,
		NoColor: noColor,
	}, cmd.OutOrStdout())

	entries, err := viewer.Tail(path, opts.lines)
	if err != nil {
		return err
	}
	viewer.Print(entries)
	return nil
}
