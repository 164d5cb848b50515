package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Defaults assumed by the upstream measurement pipeline.
const (
	// DefaultTotalTrials is the trial count of a cohort that never covered a region.
	DefaultTotalTrials = 7887
	// DefaultPositiveThreshold is the similarity above which a crawl is a positive example.
	DefaultPositiveThreshold = 0.4
	// DefaultNegativeThreshold is the similarity below which a crawl may be a negative example.
	DefaultNegativeThreshold = 0.3
	// DefaultMinRegions is the coverage a negative example must exceed.
	DefaultMinRegions = 765637
)

// Global configuration structure.
type Global struct {
	// FrequencyDiff
	FreqDiffPositiveCSV string `mapstructure:"freqdiff_positive_csv" yaml:"freqdiff_positive_csv"`
	FreqDiffNegativeCSV string `mapstructure:"freqdiff_negative_csv" yaml:"freqdiff_negative_csv"`
	FreqDiffOutCSV      string `mapstructure:"freqdiff_out_csv" yaml:"freqdiff_out_csv"`
	FreqDiffTotalTrials int    `mapstructure:"freqdiff_total_trials" yaml:"freqdiff_total_trials"`

	// MetadataRegionJoiner
	MetaJoinCrawlCSV    string `mapstructure:"metajoin_crawl_csv" yaml:"metajoin_crawl_csv"`
	MetaJoinMetadataCSV string `mapstructure:"metajoin_metadata_csv" yaml:"metajoin_metadata_csv"`
	MetaJoinOutCSV      string `mapstructure:"metajoin_out_csv" yaml:"metajoin_out_csv"`
	MetaJoinPathColumn  int    `mapstructure:"metajoin_path_column" yaml:"metajoin_path_column"`

	// SimilaritySetSplitter
	SplitSimilaritiesCSV string  `mapstructure:"splitsets_similarities_csv" yaml:"splitsets_similarities_csv"`
	SplitCoverageCSV     string  `mapstructure:"splitsets_coverage_csv" yaml:"splitsets_coverage_csv"`
	SplitPositivesCSV    string  `mapstructure:"splitsets_positives_csv" yaml:"splitsets_positives_csv"`
	SplitNegativesCSV    string  `mapstructure:"splitsets_negatives_csv" yaml:"splitsets_negatives_csv"`
	SplitPositiveThr     float64 `mapstructure:"splitsets_positive_threshold" yaml:"splitsets_positive_threshold"`
	SplitNegativeThr     float64 `mapstructure:"splitsets_negative_threshold" yaml:"splitsets_negative_threshold"`
	SplitMinRegions      int     `mapstructure:"splitsets_min_regions" yaml:"splitsets_min_regions"`
	// SplitSeed fixes the negative sampling; nil means seed from the clock.
	SplitSeed *int64 `mapstructure:"splitsets_seed" yaml:"splitsets_seed,omitempty"`

	// FileTally
	TallyInputCSV string `mapstructure:"tally_input_csv" yaml:"tally_input_csv"`
	TallyOutCSV   string `mapstructure:"tally_out_csv" yaml:"tally_out_csv"`

	// SunburstRenderer
	SunburstColorMin   float64 `mapstructure:"sunburst_color_min" yaml:"sunburst_color_min"`
	SunburstColorMax   float64 `mapstructure:"sunburst_color_max" yaml:"sunburst_color_max"`
	SunburstColorScale string  `mapstructure:"sunburst_colorscale" yaml:"sunburst_colorscale"`
	SunburstListenAddr string  `mapstructure:"sunburst_listen_addr" yaml:"sunburst_listen_addr"`
	SunburstPlotlyURL  string  `mapstructure:"sunburst_plotly_url" yaml:"sunburst_plotly_url"`
}

// Default returns the configuration used when no file or env override is present.
func Default() *Global {
	return &Global{
		FreqDiffPositiveCSV:  "output/positive_frequency.csv",
		FreqDiffNegativeCSV:  "output/negative_frequency.csv",
		FreqDiffOutCSV:       "output/differences_in_frequency.csv",
		FreqDiffTotalTrials:  DefaultTotalTrials,
		MetaJoinCrawlCSV:     "output/100k_crawl_out.csv",
		MetaJoinMetadataCSV:  "output/VVNN_100k-metadata_only.csv",
		MetaJoinOutCSV:       "output/VVNN_meta_coverage.csv",
		MetaJoinPathColumn:   1,
		SplitSimilaritiesCSV: "output/compare_mask_similarities.csv",
		SplitCoverageCSV:     "output/100k_crawl_out.csv",
		SplitPositivesCSV:    "output/positives.csv",
		SplitNegativesCSV:    "output/negatives.csv",
		SplitPositiveThr:     DefaultPositiveThreshold,
		SplitNegativeThr:     DefaultNegativeThreshold,
		SplitMinRegions:      DefaultMinRegions,
		TallyInputCSV:        "output/comparedBVFiles.csv",
		TallyOutCSV:          "out.csv",
		SunburstColorMin:     0.0,
		SunburstColorMax:     0.5,
		SunburstColorScale:   "RdYlGn",
		SunburstListenAddr:   "127.0.0.1:0",
		SunburstPlotlyURL:    "https://cdn.plot.ly/plotly-2.35.2.min.js",
	}
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes ./covtab.yaml.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		path = "covtab.yaml"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file (cfgFile, ./covtab.yaml, ~/.covtab/covtab.yaml) > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("COVTAB")
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("freqdiff_positive_csv", d.FreqDiffPositiveCSV)
	v.SetDefault("freqdiff_negative_csv", d.FreqDiffNegativeCSV)
	v.SetDefault("freqdiff_out_csv", d.FreqDiffOutCSV)
	v.SetDefault("freqdiff_total_trials", d.FreqDiffTotalTrials)
	v.SetDefault("metajoin_crawl_csv", d.MetaJoinCrawlCSV)
	v.SetDefault("metajoin_metadata_csv", d.MetaJoinMetadataCSV)
	v.SetDefault("metajoin_out_csv", d.MetaJoinOutCSV)
	v.SetDefault("metajoin_path_column", d.MetaJoinPathColumn)
	v.SetDefault("splitsets_similarities_csv", d.SplitSimilaritiesCSV)
	v.SetDefault("splitsets_coverage_csv", d.SplitCoverageCSV)
	v.SetDefault("splitsets_positives_csv", d.SplitPositivesCSV)
	v.SetDefault("splitsets_negatives_csv", d.SplitNegativesCSV)
	v.SetDefault("splitsets_positive_threshold", d.SplitPositiveThr)
	v.SetDefault("splitsets_negative_threshold", d.SplitNegativeThr)
	v.SetDefault("splitsets_min_regions", d.SplitMinRegions)
	v.SetDefault("tally_input_csv", d.TallyInputCSV)
	v.SetDefault("tally_out_csv", d.TallyOutCSV)
	v.SetDefault("sunburst_color_min", d.SunburstColorMin)
	v.SetDefault("sunburst_color_max", d.SunburstColorMax)
	v.SetDefault("sunburst_colorscale", d.SunburstColorScale)
	v.SetDefault("sunburst_listen_addr", d.SunburstListenAddr)
	v.SetDefault("sunburst_plotly_url", d.SunburstPlotlyURL)
	// AutomaticEnv only resolves keys viper already knows about.
	_ = v.BindEnv("splitsets_seed")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		v.SetConfigName("covtab")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".covtab"))
		}
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if v.IsSet("splitsets_seed") {
		seed := v.GetInt64("splitsets_seed")
		c.SplitSeed = &seed
	} else {
		c.SplitSeed = nil
	}
	return &c, nil
}
