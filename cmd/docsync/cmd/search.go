package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docsync/internal/app"
)

type searchResult struct {
	Identity string  `json:"identity"`
	Score    float64 `json:"score"`
	Path     string  `json:"path,omitempty"`
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed documents",
		Long: `Query the index. Useful to confirm that a document was indexed after
a pass.`,
		Example: `  docsync search "quarterly report"
  docsync search invoice --limit 5 --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.config()
			if err != nil {
				return err
			}

			a, err := app.New(cfg, app.Options{})
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			query := strings.Join(args, " ")
			hits, err := a.Search(cmd.Context(), query, limit)
			if err != nil {
				return err
			}

			results := make([]searchResult, 0, len(hits))
			for _, h := range hits {
				results = append(results, searchResult{
					Identity: h.Identity,
					Score:    h.Score,
					Path:     h.Metadata.SourcePath(),
				})
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}

			if len(results) == 0 {
				_, err := fmt.Fprintf(out, "No results found for %q\n", query)
				return err
			}
			for i, r := range results {
				if _, err := fmt.Fprintf(out, "%2d. %s (%.3f)\n", i+1, r.Identity, r.Score); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
