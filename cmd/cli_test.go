package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamnsrg/covtab/internal/coverage"
	"github.com/teamnsrg/covtab/internal/sunburst"
)

func resetFlag(c *cobra.Command, name, def string) {
	fl := c.Flags().Lookup(name)
	if fl == nil {
		fl = c.PersistentFlags().Lookup(name)
	}
	if fl == nil {
		return
	}
	_ = fl.Value.Set(def)
	fl.Changed = false
}

// execCmd runs the root command with args and returns what it printed.
func execCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Reset sticky flags that may persist Changed state across invocations
	resetFlag(rootCmd, "config", "")
	resetFlag(rootCmd, "debug", "false")
	resetFlag(rootCmd, "quiet", "false")
	resetFlag(splitsetsCmd, "seed", "0")
	resetFlag(sunburstCmd, "output", "")
	resetFlag(sunburstCmd, "no-open", "false")
	resetFlag(inspectCmd, "rows", "5")
	resetFlag(inspectCmd, "no-stats", "false")
	resetFlag(configInitCmd, "force", "false")
	inspectColumns = nil
	if fl := inspectCmd.Flags().Lookup("column"); fl != nil {
		fl.Changed = false
	}
	cfg = nil

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

// workspace isolates HOME and the working directory, writes files relative to
// the new working directory, and returns the path of a config file listing cfgLines.
func workspace(t *testing.T, files map[string]string, cfgLines ...string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	for name, body := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	cfgPath := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(strings.Join(cfgLines, "\n")+"\n"), 0o644))
	return cfgPath
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestCLI_Tally(t *testing.T) {
	cfgPath := workspace(t, map[string]string{
		"output/comparedBVFiles.csv": "File,Line\nb.cc,1\na.cc,2\nb.cc,3\nc.cc,4\na.cc,5\n",
	})
	out := runCmd(t, "--config", cfgPath, "tally")
	assert.Contains(t, out, "comparedBVFiles.csv")
	assert.Contains(t, out, "✓ Wrote out.csv (3 files)")
	assert.Equal(t, "File,count\na.cc,2\nb.cc,2\nc.cc,1\n", readFile(t, "out.csv"))
}

func TestCLI_FreqDiffQuiet(t *testing.T) {
	header := "Region Index,Number of Times Covered,Total Trials,Percent Covered\n"
	cfgPath := workspace(t, map[string]string{
		"pos.csv": header + "1,5,10,0.5\n2,1,10,0.1\n",
		"neg.csv": header + "2,3,10,0.3\n3,4,10,0.4\n",
	},
		"freqdiff_positive_csv: pos.csv",
		"freqdiff_negative_csv: neg.csv",
		"freqdiff_out_csv: results/diff.csv",
		"freqdiff_total_trials: 100",
	)
	out := runCmd(t, "--config", cfgPath, "--quiet", "freqdiff")
	assert.Equal(t, "✓ Wrote results/diff.csv (3 regions)\n", out)

	got := readFile(t, filepath.Join("results", "diff.csv"))
	lines := strings.Split(strings.TrimSpace(got), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "Region Index,Number of Times Covered Positive,"))
	assert.Equal(t, "1,5.0,10.0,0.5,0.0,100.0,0.0,0.5", lines[1])
	assert.Equal(t, "3,0.0,100.0,0.0,4.0,10.0,0.4,-0.4", lines[3])
}

func TestCLI_MetaJoinReportsSkipped(t *testing.T) {
	cfgPath := workspace(t, map[string]string{
		"crawl.csv": "Results Path,Regions RegionsCovered\n/r/x/y/results/a.com/1/coverage.bv,100\n",
		"meta.csv":  "Site,Path\na,/m/x/y/meta/a.com/1/m.json\nb,/m/x/y/meta/b.com/1/m.json\n",
	},
		"metajoin_crawl_csv: crawl.csv",
		"metajoin_metadata_csv: meta.csv",
		"metajoin_out_csv: joined.csv",
	)
	out := runCmd(t, "--config", cfgPath, "metajoin")
	assert.Contains(t, out, "b.com/1  is not present\n")
	assert.Contains(t, out, "✓ Wrote joined.csv (1 rows, 1 skipped)")
	assert.Equal(t, "Site,Path,Regions Covered\r\na,/m/x/y/meta/a.com/1/m.json,100\r\n", readFile(t, "joined.csv"))
}

func TestCLI_SplitSetsSeedIsReproducible(t *testing.T) {
	var sim, cov strings.Builder
	sim.WriteString("Results Path,Percent\n")
	cov.WriteString("Results Path,Regions RegionsCovered\n")
	for _, r := range []struct{ path, pct string }{
		{"p1", "0.9"}, {"p2", "0.5"},
		{"n1", "0.1"}, {"n2", "0.2"}, {"n3", "0.0"}, {"n4", "0.25"},
	} {
		sim.WriteString(r.path + "," + r.pct + "\n")
		cov.WriteString(r.path + ",900000\n")
	}
	cfgPath := workspace(t, map[string]string{"sim.csv": sim.String(), "cov.csv": cov.String()},
		"splitsets_similarities_csv: sim.csv",
		"splitsets_coverage_csv: cov.csv",
		"splitsets_positives_csv: pos.csv",
		"splitsets_negatives_csv: neg.csv",
	)

	out := runCmd(t, "--config", cfgPath, "splitsets", "--seed", "11")
	assert.Contains(t, out, "Regions RegionsCovered")
	assert.Contains(t, out, "✓ Wrote neg.csv (2 negatives of 4 candidates)")
	assert.Equal(t, "p1\np2\n", readFile(t, "pos.csv"))
	first := readFile(t, "neg.csv")
	assert.Len(t, strings.Split(strings.TrimSpace(first), "\n"), 2)

	runCmd(t, "--config", cfgPath, "-q", "splitsets", "--seed", "11")
	assert.Equal(t, first, readFile(t, "neg.csv"))
}

func TestCLI_SplitSetsInsufficientPopulation(t *testing.T) {
	cfgPath := workspace(t, map[string]string{
		"sim.csv": "Results Path,Percent\np1,0.9\np2,0.8\nn1,0.1\n",
		"cov.csv": "Results Path,Regions RegionsCovered\np1,900000\np2,900000\nn1,900000\n",
	},
		"splitsets_similarities_csv: sim.csv",
		"splitsets_coverage_csv: cov.csv",
	)
	_, err := execCmd(t, "--config", cfgPath, "-q", "splitsets")
	assert.ErrorIs(t, err, coverage.ErrInsufficientPopulation)
	_, statErr := os.Stat(filepath.Join("output", "positives.csv"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCLI_SunburstUsage(t *testing.T) {
	cfgPath := workspace(t, nil)
	_, err := execCmd(t, "--config", cfgPath, "sunburst", "only-one.csv")
	assert.ErrorIs(t, err, sunburst.ErrUsage)
	assert.EqualError(t, err, "Need an input file and a depth")

	_, err = execCmd(t, "--config", cfgPath, "sunburst", "tree.csv", "two")
	assert.Error(t, err)
}

func TestCLI_SunburstWritesPage(t *testing.T) {
	cfgPath := workspace(t, map[string]string{
		"tree.csv": "names,parents,total,percentcovered\nroot,,10,0.2\nroot/a,root,6,0.4\nlost,ghost,1,0\n",
	}, "sunburst_plotly_url: plotly.js")
	out := runCmd(t, "--config", cfgPath, "sunburst", "tree.csv", "2", "--output", "chart/tree.html")
	assert.Contains(t, out, "⚠ lost: parent not found")
	assert.Contains(t, out, "✓ Wrote chart/tree.html")

	html := readFile(t, filepath.Join("chart", "tree.html"))
	assert.Contains(t, html, `<script src="plotly.js"></script>`)
	assert.Contains(t, html, `"maxdepth":2`)
	assert.Contains(t, html, `"colorscale":[[0,"rgb(165,0,38)"],[0.1,"rgb(215,48,39)"]`)
	assert.NotContains(t, html, `"colorscale":"RdYlGn"`)
}

func TestCLI_Inspect(t *testing.T) {
	cfgPath := workspace(t, map[string]string{"t.csv": "name,score\na,1\nb,2\nc,3\n"})
	out := runCmd(t, "--config", cfgPath, "inspect", "t.csv")
	assert.Contains(t, out, "[3 rows x 2 columns]")
	assert.Contains(t, out, "mean")
	assert.Equal(t, 1, strings.Count(out, "count"), "only the numeric column is described")

	out = runCmd(t, "--config", cfgPath, "inspect", "t.csv", "--no-stats")
	assert.NotContains(t, out, "mean")
}

func TestCLI_ConfigInitSetShow(t *testing.T) {
	cfgPath := workspace(t, nil)
	require.NoError(t, os.Remove(cfgPath))

	runCmd(t, "--config", cfgPath, "config", "init")
	_, err := execCmd(t, "--config", cfgPath, "config", "init")
	assert.Error(t, err)

	runCmd(t, "--config", cfgPath, "config", "set", "tally_out_csv", "counts.csv")
	runCmd(t, "--config", cfgPath, "config", "set", "splitsets_seed", "5")
	_, err = execCmd(t, "--config", cfgPath, "config", "set", "freqdiff_total_trials", "many")
	assert.Error(t, err)
	_, err = execCmd(t, "--config", cfgPath, "config", "set", "no_such_key", "1")
	assert.ErrorContains(t, err, "unknown key")
	_, err = execCmd(t, "--config", cfgPath, "config", "set", "output_dir", "out")
	assert.ErrorContains(t, err, "unknown key")

	out := runCmd(t, "--config", cfgPath, "config", "show")
	assert.Contains(t, out, "tally_out_csv: counts.csv")
	assert.Contains(t, out, "splitsets_seed: 5")
	assert.Contains(t, out, "freqdiff_total_trials: 7887")
}
