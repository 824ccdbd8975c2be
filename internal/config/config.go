// Package config loads EntireContext's layered configuration: a
// per-repo .entirecontext/config.yaml, environment variables prefixed
// EC_, and command-line flags, in that increasing order of precedence.
// This mirrors the teacher's internal/config/config.go viper singleton
// with a project-directory walk-up, adapted from .beads/BD_ to
// .entirecontext/EC_.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/entirecontext/ec/internal/paths"
)

var v *viper.Viper

// Initialize sets up the viper configuration singleton. Should be
// called once at application startup.
func Initialize() error {
	v = viper.New()
	v.SetConfigType("yaml")

	configFileSet := false

	// 1. Walk up from CWD to find project .entirecontext/config.yaml, so
	//    commands work from any subdirectory.
	cwd, err := os.Getwd()
	if err == nil {
		for dir := cwd; dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
			configPath := filepath.Join(dir, paths.EntireContextDir, "config.yaml")
			if _, err := os.Stat(configPath); err == nil {
				v.SetConfigFile(configPath)
				configFileSet = true
				break
			}
		}
	}

	// 2. User config directory (~/.config/ec/config.yaml).
	if !configFileSet {
		if configDir, err := os.UserConfigDir(); err == nil {
			configPath := filepath.Join(configDir, "ec", "config.yaml")
			if _, err := os.Stat(configPath); err == nil {
				v.SetConfigFile(configPath)
				configFileSet = true
			}
		}
	}

	// 3. Home directory (~/.entirecontext/config.yaml).
	if !configFileSet {
		if home, err := os.UserHomeDir(); err == nil {
			configPath := filepath.Join(home, paths.GlobalDirName, "config.yaml")
			if _, err := os.Stat(configPath); err == nil {
				v.SetConfigFile(configPath)
				configFileSet = true
			}
		}
	}

	// Environment variables take precedence over the config file, e.g.
	// EC_CAPTURE_AUTO_CAPTURE, EC_SYNC_SHADOW_BRANCH, EC_BACKEND, EC_MODEL.
	v.SetEnvPrefix("EC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Capture defaults (spec.md §4.2).
	v.SetDefault("capture.auto_capture", true)
	v.SetDefault("capture.exclusions.enabled", false)
	v.SetDefault("capture.exclusions.content_patterns", []string{})
	v.SetDefault("capture.exclusions.file_patterns", []string{})
	v.SetDefault("capture.exclusions.tool_names", []string{})
	v.SetDefault("capture.exclusions.redact_patterns", []string{})

	// Filtering defaults (spec.md §4.2).
	v.SetDefault("filtering.query_redaction.enabled", false)
	v.SetDefault("filtering.query_redaction.patterns", []string{})
	v.SetDefault("filtering.query_redaction.replacement", "[FILTERED]")

	// Sync / shadow-branch defaults (spec.md §4.9).
	v.SetDefault("sync.shadow_branch", "entirecontext/shadow")
	v.SetDefault("sync.redact_exports", true)

	// Search defaults (spec.md §4.6).
	v.SetDefault("search.default_mode", "fts")

	// Storage defaults (spec.md §4.1).
	v.SetDefault("storage.busy_timeout", "5s")

	// Out-of-scope collaborator settings (spec.md §6): an LLM-backed
	// reviewer or MCP server reads these through the same config layer,
	// even though the core capture/search/sync pipeline never consumes
	// them.
	_ = v.BindEnv("backend", "EC_BACKEND")
	_ = v.BindEnv("model", "EC_MODEL")
	_ = v.BindEnv("openai_api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("comment_on_neutral", "COMMENT_ON_NEUTRAL")
	v.SetDefault("backend", "")
	v.SetDefault("model", "")
	v.SetDefault("comment_on_neutral", false)

	if configFileSet {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault    ConfigSource = "default"
	SourceConfigFile ConfigSource = "config_file"
	SourceEnvVar     ConfigSource = "env_var"
	SourceFlag       ConfigSource = "flag"
)

// GetValueSource returns the source of a configuration value. Priority
// (highest to lowest): env var > config file > default. Flag overrides
// are handled separately by the cobra command layer.
func GetValueSource(key string) ConfigSource {
	if v == nil {
		return SourceDefault
	}

	envKey := "EC_" + strings.ToUpper(strings.ReplaceAll(strings.ReplaceAll(key, "-", "_"), ".", "_"))
	if os.Getenv(envKey) != "" {
		return SourceEnvVar
	}
	if v.InConfig(key) {
		return SourceConfigFile
	}
	return SourceDefault
}

// GetString retrieves a string configuration value.
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool retrieves a boolean configuration value.
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// GetInt retrieves an integer configuration value.
func GetInt(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

// GetDuration retrieves a duration configuration value.
func GetDuration(key string) time.Duration {
	if v == nil {
		return 0
	}
	return v.GetDuration(key)
}

// GetStringSlice retrieves a string slice configuration value.
func GetStringSlice(key string) []string {
	if v == nil {
		return []string{}
	}
	return v.GetStringSlice(key)
}

// Set sets a configuration value, used by `ec config set`.
func Set(key string, value interface{}) {
	if v != nil {
		v.Set(key, value)
	}
}

// AllSettings returns all configuration settings as a map, used by
// `ec config list`.
func AllSettings() map[string]interface{} {
	if v == nil {
		return map[string]interface{}{}
	}
	return v.AllSettings()
}

// ConfigFileUsed returns the path of the config file viper loaded, or
// "" if none was found.
func ConfigFileUsed() string {
	if v == nil {
		return ""
	}
	return v.ConfigFileUsed()
}

// WriteConfigAs persists the current settings to path, creating parent
// directories as needed. `ec config set` does not use it; it persists a
// single key with WriteTOMLKey instead.
func WriteConfigAs(path string) error {
	if v == nil {
		return fmt.Errorf("config: not initialized")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return v.WriteConfigAs(path)
}
