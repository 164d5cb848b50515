package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teamnsrg/covtab/internal/coverage"
)

var tallyCmd = &cobra.Command{
	Use:   "tally",
	Short: "Count rows per File, most frequent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		job := coverage.TallyJob{InputCSV: cfg.TallyInputCSV, OutCSV: cfg.TallyOutCSV}
		counts, err := job.Run(jobEnv(cmd))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s (%d files)\n", job.OutCSV, len(counts))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tallyCmd)
}
