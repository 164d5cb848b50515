package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teamnsrg/covtab/internal/sunburst"
	"github.com/teamnsrg/covtab/internal/utils"
)

var (
	sbOutput string
	sbNoOpen bool
)

var sunburstCmd = &cobra.Command{
	Use:   "sunburst <input_csv> <max_depth>",
	Short: "Render a names/parents coverage hierarchy as an interactive sunburst",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 {
			return sunburst.ErrUsage
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		path, depth, err := sunburst.ParseArgs(args)
		if err != nil {
			return err
		}
		tree, err := sunburst.LoadTree(path)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		for _, o := range tree.Orphans {
			fmt.Fprintf(w, "⚠ %s: parent not found, segment not drawn\n", o)
		}
		logger.Debug("loaded hierarchy", zap.String("path", path),
			zap.Int("nodes", len(tree.Nodes)), zap.Int("depth", tree.Depth), zap.Int("orphans", len(tree.Orphans)))

		fig := sunburst.BuildFigure(tree, sunburst.Options{
			MaxDepth:   depth,
			ColorMin:   cfg.SunburstColorMin,
			ColorMax:   cfg.SunburstColorMax,
			ColorScale: cfg.SunburstColorScale,
		})
		page, err := sunburst.Page(fig, sunburst.PageOptions{Title: filepath.Base(path), PlotlyURL: cfg.SunburstPlotlyURL})
		if err != nil {
			return err
		}

		if sbOutput != "" {
			if err := utils.SafeWriteFile(sbOutput, page); err != nil {
				return fmt.Errorf("write %s: %w", sbOutput, err)
			}
			fmt.Fprintf(w, "✓ Wrote %s\n", sbOutput)
			return nil
		}

		figJSON, err := fig.JSON()
		if err != nil {
			return err
		}
		v := &sunburst.Viewer{Page: page, Figure: figJSON, Log: logger}
		if !sbNoOpen {
			v.Open = sunburst.OpenInBrowser
		}
		ln, url, err := sunburst.Listen(cfg.SunburstListenAddr)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Serving %s (Ctrl+C to stop)\n", url)
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return v.Serve(ctx, ln, url)
	},
}

func init() {
	rootCmd.AddCommand(sunburstCmd)
	sunburstCmd.Flags().StringVarP(&sbOutput, "output", "o", "", "write the chart to an HTML file instead of serving it")
	sunburstCmd.Flags().BoolVar(&sbNoOpen, "no-open", false, "serve without launching a browser")
}
