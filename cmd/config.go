package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cfgpkg "github.com/teamnsrg/covtab/internal/config"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set covtab configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		updated, err := setKey(cfg, args[0], args[1])
		if err != nil {
			return err
		}
		if err := cfgpkg.Save(updated, cfgFile); err != nil {
			return err
		}
		cfg = updated
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default paths and thresholds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = "covtab.yaml"
		}
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if err := cfgpkg.Save(cfgpkg.Default(), path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")
}

// setKey returns a copy of c with key set to val. The value is parsed as a
// YAML scalar and must fit the key's type.
func setKey(c *cfgpkg.Global, key, val string) (*cfgpkg.Global, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	m := map[string]any{}
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if _, ok := m[key]; !ok && key != "splitsets_seed" {
		return nil, fmt.Errorf("unknown key: %s (known: %v)", key, knownKeys(m))
	}
	var v any
	if err := yaml.Unmarshal([]byte(val), &v); err != nil {
		return nil, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	m[key] = v

	if b, err = yaml.Marshal(m); err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	var out cfgpkg.Global
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("invalid value for %s: %q", key, val)
	}
	return &out, nil
}

func knownKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m)+1)
	for k := range m {
		keys = append(keys, k)
	}
	if _, ok := m["splitsets_seed"]; !ok {
		keys = append(keys, "splitsets_seed")
	}
	sort.Strings(keys)
	return keys
}
