package types

import "errors"

// Config holds backend selection and parameters for Store.Attach.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// DatabaseFile is the file name inside DataDir. Defaults to DefaultDatabaseFile.
	DatabaseFile string `json:"database_file,omitempty" yaml:"database_file,omitempty"`

	// DestructiveUpgrade allows Attach to drop and recreate every table when
	// the stored schema version is newer than this build understands.
	// All data is lost when it fires.
	DestructiveUpgrade bool `json:"destructive_upgrade,omitempty" yaml:"destructive_upgrade,omitempty"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// MemoryDataDir selects a private in-memory database instead of a file.
const MemoryDataDir = ":memory:"

// DefaultDatabaseFile is used when Config.DatabaseFile is empty.
const DefaultDatabaseFile = "listings.db"

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	return nil
}

// InMemory reports whether the config selects an in-memory database.
func (c Config) InMemory() bool {
	return c.DataDir == MemoryDataDir
}

// DatabaseFileName returns DatabaseFile or the default name.
func (c Config) DatabaseFileName() string {
	if c.DatabaseFile == "" {
		return DefaultDatabaseFile
	}
	return c.DatabaseFile
}
