package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docsync/internal/app"
)

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent sync passes",
		Long: `List recorded passes, newest first. History is kept in a SQLite
database in the storage directory when history.enabled is set.`,
		Example: `  docsync history
  docsync history --limit 50 --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.config()
			if err != nil {
				return err
			}

			a, err := app.New(cfg, app.Options{})
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			passes, err := a.History(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(passes)
			}

			if !cfg.History.Enabled {
				_, err := fmt.Fprintln(out, "History is disabled (history.enabled: false)")
				return err
			}
			if len(passes) == 0 {
				_, err := fmt.Fprintln(out, "No passes recorded yet")
				return err
			}
			for _, p := range passes {
				line := fmt.Sprintf("%s  %-6s  %s  +%d ~%d -%d  %d failed  %s",
					p.StartedAt.Local().Format(time.DateTime), p.Status, shortPassID(p.ID),
					p.Added, p.Modified, p.Deleted, len(p.Failures), p.Duration.Round(time.Millisecond))
				if p.Error != "" {
					line += "  " + p.Error
				}
				if _, err := fmt.Fprintln(out, line); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of passes to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func shortPassID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
