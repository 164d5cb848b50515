package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teamnsrg/covtab/internal/coverage"
)

var metajoinCmd = &cobra.Command{
	Use:   "metajoin",
	Short: "Append crawl region coverage to the metadata table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		job := coverage.MetaJoinJob{
			CrawlCSV:    cfg.MetaJoinCrawlCSV,
			MetadataCSV: cfg.MetaJoinMetadataCSV,
			OutCSV:      cfg.MetaJoinOutCSV,
			PathColumn:  cfg.MetaJoinPathColumn,
		}
		stats, err := job.Run(jobEnv(cmd))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s (%d rows, %d skipped)\n", job.OutCSV, stats.Written, stats.Skipped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(metajoinCmd)
}
