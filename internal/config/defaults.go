// Package config provides configuration defaults, path resolution, and the
// file watcher for live limit reloads. All default values live here to keep a
// single source of truth.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config file defaults
const (
	// ConfigDirName is the per-project and global config directory name
	ConfigDirName = ".chatwing"

	// ConfigName is the config file base name (.chatwing.yaml)
	ConfigName = ".chatwing"

	// EnvPrefix namespaces environment variables (CHATWING_LLM_APIKEY etc.)
	EnvPrefix = "CHATWING"
)

// Default budget tuning
const (
	// DefaultDebounceMs coalesces budget recomputation bursts
	DefaultDebounceMs = 300

	// DefaultSystemPromptTokens is the fixed per-request token overhead
	DefaultSystemPromptTokens = 2_000
)

// DefaultSessionDBFile is the session database file name under the data dir.
const DefaultSessionDBFile = "sessions.db"

// GetGlobalConfigDir returns the global configuration directory (~/.chatwing).
// A variable so tests can override it.
var GetGlobalConfigDir = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigDirName), nil
}

// GetDataPath resolves where mutable data (the session DB) lives.
// Resolution order: explicit "data.dir" config, local project .chatwing/ if
// present, XDG_DATA_HOME, then the global config dir.
func GetDataPath() string {
	if path := viper.GetString("data.dir"); path != "" {
		return path
	}
	if info, err := os.Stat(ConfigDirName); err == nil && info.IsDir() {
		return ConfigDirName
	}
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "chatwing")
	}
	dir, err := GetGlobalConfigDir()
	if err != nil {
		return "."
	}
	return dir
}
