package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/entirecontext/ec/internal/config"
	"github.com/entirecontext/ec/internal/paths"
	"github.com/entirecontext/ec/internal/syncbranch"
)

// configCmd implements spec.md §6's `config [key] [value]`: no
// arguments lists everything, one argument reads a key, two arguments
// sets it — one command rather than the teacher's set/get/list/unset
// subcommand group, per spec.md's table.
var configCmd = &cobra.Command{
	Use:     "config [key] [value]",
	GroupID: "setup",
	Short:   "Show or set a dotted config key (TOML-backed)",
	Args:    cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch len(args) {
		case 0:
			return runConfigList()
		case 1:
			return runConfigGet(args[0])
		default:
			return runConfigSet(args[0], args[1])
		}
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfigSet(key, value string) error {
	repoRoot := requireRepoRoot()

	if strings.TrimSpace(key) == syncbranch.ConfigKey {
		store := requireStore(repoRoot)
		defer store.Close()
		if err := syncbranch.Set(rootCtx, store, value); err != nil {
			return err
		}
	} else {
		config.Set(key, value)
	}

	if err := config.WriteTOMLKey(paths.ConfigPath(repoRoot), key, value); err != nil {
		return fmt.Errorf("persist %s to config.toml: %w", key, err)
	}

	if jsonOutput {
		outputJSON(map[string]string{"key": key, "value": value, "location": paths.ConfigFileName})
		return nil
	}
	fmt.Printf("Set %s = %s\n", key, value)
	return nil
}

func runConfigGet(key string) error {
	repoRoot := requireRepoRoot()

	var value string
	if strings.TrimSpace(key) == syncbranch.ConfigKey {
		store := requireStore(repoRoot)
		defer store.Close()
		v, err := syncbranch.Get(rootCtx, store)
		if err != nil {
			return err
		}
		value = v
	} else {
		value = config.GetString(key)
	}

	if jsonOutput {
		outputJSON(map[string]string{"key": key, "value": value})
		return nil
	}
	if value == "" {
		fmt.Printf("%s (not set)\n", key)
	} else {
		fmt.Println(value)
	}
	return nil
}

func runConfigList() error {
	repoRoot := requireRepoRoot()

	tomlSettings, err := config.ReadTOMLAll(paths.ConfigPath(repoRoot))
	if err != nil {
		return err
	}
	effective := config.AllSettings()

	if jsonOutput {
		outputJSON(map[string]any{
			"toml_settings":     tomlSettings,
			"effective_settings": effective,
		})
		return nil
	}

	keys := make(map[string]bool, len(tomlSettings))
	for k := range tomlSettings {
		keys[k] = true
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	fmt.Println("Configuration (config.toml):")
	if len(sorted) == 0 {
		fmt.Println("  No overrides set.")
	}
	for _, k := range sorted {
		fmt.Printf("  %s = %v\n", k, tomlSettings[k])
	}
	return nil
}
