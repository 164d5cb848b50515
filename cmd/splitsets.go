package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teamnsrg/covtab/internal/coverage"
)

var splitSeed int64

var splitsetsCmd = &cobra.Command{
	Use:   "splitsets",
	Short: "Select positive and balanced negative example sets by mask similarity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		seed := cfg.SplitSeed
		if cmd.Flags().Changed("seed") {
			seed = &splitSeed
		}
		job := coverage.SplitSetsJob{
			SimilaritiesCSV: cfg.SplitSimilaritiesCSV,
			CoverageCSV:     cfg.SplitCoverageCSV,
			PositivesCSV:    cfg.SplitPositivesCSV,
			NegativesCSV:    cfg.SplitNegativesCSV,
			Options: coverage.SplitOptions{
				PositiveThreshold: cfg.SplitPositiveThr,
				NegativeThreshold: cfg.SplitNegativeThr,
				MinRegions:        float64(cfg.SplitMinRegions),
				Rand:              coverage.NewRand(seed),
			},
		}
		res, err := job.Run(jobEnv(cmd))
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "✓ Wrote %s (%d positives)\n", job.PositivesCSV, res.Positives.Len())
		fmt.Fprintf(w, "✓ Wrote %s (%d negatives of %d candidates)\n", job.NegativesCSV, res.Negatives.Len(), res.Candidates.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(splitsetsCmd)
	splitsetsCmd.Flags().Int64Var(&splitSeed, "seed", 0, "seed for negative sampling (overrides splitsets_seed; default is the clock)")
}
