// Config loading for the listings CLI.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/listings/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend            = "backend"
	cfgKeyDataDir            = "data_dir"
	cfgKeyDatabaseFile       = "database_file"
	cfgKeyLogLevel           = "log_level"
	cfgKeyMediaDir           = "media_dir"
	cfgKeyDestructiveUpgrade = "destructive_upgrade"

	defaultLogLevel = "warn"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# listings CLI configuration

# Backend selection
backend: sqlite

# Data directory (optional; overridable by --data-dir or LISTINGS_DATA_DIR).
# ":memory:" opens a throwaway in-memory store.
# data_dir:

# Database file name inside the data directory.
# database_file: listings.db

# Upload directory for photo files (default: <data_dir>/media)
# media_dir:

# debug, info, warn or error
log_level: warn

# Drop and recreate every table when the database was written by a newer
# build. All data is lost when this fires.
destructive_upgrade: false
`

// loadConfig reads config.yaml from configDir using Viper, creating the
// directory and a default file on first run. A missing file is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetDefault(cfgKeyDestructiveUpgrade, false)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile writes defaultConfigYAML unless config.yaml exists.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// parseLogLevel maps a level name to slog.Level.
func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}
