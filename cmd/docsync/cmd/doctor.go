package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docsync/internal/preflight"
)

func newDoctorCmd(root *rootOptions) *cobra.Command {
	var (
		verbose    bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that sync can run",
		Long: `Check the data directory, the storage directory, the manifest and the
pass lock, plus free disk space and the open file limit.

Exits with an error when a required check fails.`,
		Example: `  docsync doctor
  docsync doctor --verbose
  docsync doctor --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.config()
			if err != nil {
				return err
			}

			checker := preflight.New(
				preflight.WithVerbose(verbose),
				preflight.WithOutput(cmd.OutOrStdout()),
			)
			results := checker.RunAll(cmd.Context(), preflight.Paths{
				DataDir:      cfg.Paths.DataDir,
				StorageDir:   cfg.Paths.StorageDir,
				ManifestPath: cfg.ManifestPath(),
				ScanWorkers:  scanWorkers(cfg.Scan.Workers),
			})

			if jsonOutput {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(map[string]any{
					"status": checker.SummaryStatus(results),
					"checks": results,
				}); err != nil {
					return err
				}
			} else {
				checker.PrintResults(results)
			}

			if checker.HasCriticalFailures(results) {
				return fmt.Errorf("doctor: required checks failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show check details")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

// scanWorkers resolves the configured worker count the way the scanner does.
func scanWorkers(n int) int {
	if n > 0 {
		return n
	}
	return runtime.NumCPU()
}
