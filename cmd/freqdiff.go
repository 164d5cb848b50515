package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teamnsrg/covtab/internal/coverage"
)

var freqdiffCmd = &cobra.Command{
	Use:   "freqdiff",
	Short: "Join positive and negative region frequencies and compute their difference",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		job := coverage.FreqDiffJob{
			PositiveCSV: cfg.FreqDiffPositiveCSV,
			NegativeCSV: cfg.FreqDiffNegativeCSV,
			OutCSV:      cfg.FreqDiffOutCSV,
			Options:     coverage.DiffOptions{TotalTrials: float64(cfg.FreqDiffTotalTrials)},
		}
		out, err := job.Run(jobEnv(cmd))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s (%d regions)\n", job.OutCSV, out.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(freqdiffCmd)
}
