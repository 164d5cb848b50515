package cmd

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/teamnsrg/covtab/internal/analysis"
)

var (
	inspectRows    int
	inspectNoStats bool
	inspectColumns []string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.csv>",
	Short: "Preview a CSV and describe its numeric columns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := analysis.ReadCSV(args[0])
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		n := inspectRows
		if n <= 0 {
			n = analysis.DefaultPreviewRows
		}
		fmt.Fprint(w, analysis.Preview(f, n))
		if inspectNoStats {
			return nil
		}

		cols := inspectColumns
		if len(cols) == 0 {
			cols = numericColumns(f)
		}
		for _, c := range cols {
			s, err := analysis.DescribeColumn(f, c)
			if err != nil {
				return err
			}
			fmt.Fprint(w, s.Render())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().IntVarP(&inspectRows, "rows", "n", analysis.DefaultPreviewRows, "rows shown from each end of the table")
	inspectCmd.Flags().BoolVar(&inspectNoStats, "no-stats", false, "skip column statistics")
	inspectCmd.Flags().StringSliceVarP(&inspectColumns, "column", "c", nil, "describe only these columns (repeatable)")
}

// numericColumns lists the columns with at least one parseable number.
func numericColumns(f *analysis.Frame) []string {
	var out []string
	for _, name := range f.Header {
		vals, err := f.Floats(name)
		if err != nil {
			continue
		}
		for _, v := range vals {
			if !math.IsNaN(v) {
				out = append(out, name)
				break
			}
		}
	}
	return out
}
