// Package paths resolves configuration and data directory locations.
package paths

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/mesh-intelligence/listings/pkg/types"
)

// CWD-relative directory names.
const (
	DefaultConfigDirName = ".listings"
	DefaultDataDirName   = ".listings-db"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "LISTINGS_CONFIG_DIR"
	EnvDataDir   = "LISTINGS_DATA_DIR"
	EnvMediaDir  = "LISTINGS_MEDIA_DIR"
)

// MediaDirName is the uploads directory created inside the data directory.
const MediaDirName = "media"

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/listings (fallback ~/.config/listings)
// macOS:   ~/Library/Application Support/listings
// Windows: %APPDATA%/listings
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "listings"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "listings"), nil
	default:
		// macOS and Windows use os.UserConfigDir which returns
		// ~/Library/Application Support on macOS and %APPDATA% on Windows.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "listings"), nil
	}
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/listings (fallback ~/.local/share/listings)
// macOS:   ~/Library/Application Support/listings
// Windows: %APPDATA%/listings
func DefaultDataDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "listings"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", "listings"), nil
	default:
		// macOS and Windows: same as config dir.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "listings"), nil
	}
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > LISTINGS_CONFIG_DIR env > DefaultConfigDir().
//
// If flag is non-empty it wins. Otherwise the LISTINGS_CONFIG_DIR environment
// variable is checked. If neither is set, the platform default is returned.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > configYAMLValue > LISTINGS_DATA_DIR env > DefaultDataDir().
//
// With no override the store lives in $(CWD)/.listings-db.
//
// The value ":memory:" is passed through untouched so the store opens an
// in-memory database.
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	for _, v := range []string{flag, configYAMLValue, os.Getenv(EnvDataDir)} {
		if v == types.MemoryDataDir {
			return v, nil
		}
		if v != "" {
			return filepath.Abs(v)
		}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ResolveMediaDir returns the upload directory following the precedence
// chain: flag > configYAMLValue > LISTINGS_MEDIA_DIR env > dataDir/media.
// An in-memory store has no data directory, so its uploads go to a
// per-process temp directory.
func ResolveMediaDir(flag, configYAMLValue, dataDir string) (string, error) {
	for _, v := range []string{flag, configYAMLValue, os.Getenv(EnvMediaDir)} {
		if v != "" {
			return filepath.Abs(v)
		}
	}
	if dataDir == types.MemoryDataDir {
		return filepath.Join(os.TempDir(), "listings-"+MediaDirName), nil
	}
	return filepath.Join(dataDir, MediaDirName), nil
}
