package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	cfgpkg "github.com/teamnsrg/covtab/internal/config"
	"github.com/teamnsrg/covtab/internal/coverage"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	quiet   bool

	// Loaded configuration
	cfg *cfgpkg.Global
	// Structured logger for the current invocation
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "covtab",
	Short: "covtab: batch tools for crawl coverage tables",
	Long: `covtab post-processes the CSV outputs of the crawl coverage pipeline:
cohort frequency differences, metadata enrichment, positive/negative set
selection, file tallies, and an interactive sunburst of region coverage.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			// config init/set may name a file that does not exist yet
			if cmd.Parent() != configCmd || !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			c = cfgpkg.Default()
		}
		cfg = c
		l, err := newLogger(debug)
		if err != nil {
			return err
		}
		logger = l.With(zap.String("run", uuid.NewString()), zap.String("cmd", cmd.Name()))
		logger.Debug("config loaded", zap.String("file", cfgFile))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./covtab.yaml, then ~/.covtab/covtab.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging on stderr")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress table previews")
}

func newLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	l, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return l, nil
}

// jobEnv wires the command's output stream and logger into a job.
func jobEnv(cmd *cobra.Command) coverage.Env {
	return coverage.Env{Out: cmd.OutOrStdout(), Quiet: quiet, Log: logger}
}
