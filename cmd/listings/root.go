// Root command for the listings CLI.
package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/listings/internal/paths"
)

// app carries the global flags and the state PersistentPreRunE prepares for
// every subcommand.
type app struct {
	flagConfigDir string
	flagDataDir   string
	flagMediaDir  string
	flagLogLevel  string
	flagJSON      bool

	flagMetricsFile string

	cfg    *viper.Viper
	logger *slog.Logger
}

// newRootCmd builds the command tree. Each call returns an independent tree.
func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "listings",
		Short:         "Manage the property listings store",
		Long:          "listings inspects and edits the embedded store behind the property listing app:\nusers, listings, photos, messages and favorites.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flagDataDir, "data-dir", "", "data directory (default: $(CWD)/.listings-db)")
	pf.StringVar(&a.flagMediaDir, "media-dir", "", "upload directory for photo files (default: <data-dir>/media)")
	pf.StringVar(&a.flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&a.flagJSON, "json", false, "output as JSON")
	pf.StringVar(&a.flagMetricsFile, "metrics-file", "", "write store operation metrics to this file after the command (Prometheus text format)")

	root.AddCommand(
		newVersionCmd(),
		a.initCmd(),
		a.resetCmd(),
		a.seedCmd(),
		a.exportCmd(),
		a.userCmd(),
		a.propertyCmd(),
		a.photoCmd(),
		a.messageCmd(),
		a.favoriteCmd(),
		a.chatsCmd(),
	)
	return root
}

// setup loads config.yaml and builds the logger. Logs go to stderr so JSON
// output on stdout stays parseable.
func (a *app) setup(cmd *cobra.Command) error {
	configDir, err := paths.ResolveConfigDir(a.flagConfigDir)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	a.cfg = cfg

	levelName := a.flagLogLevel
	if levelName == "" {
		levelName = cfg.GetString(cfgKeyLogLevel)
	}
	level, err := parseLogLevel(levelName)
	if err != nil {
		return err
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

func (a *app) resolveDataDir() (string, error) {
	return paths.ResolveDataDir(a.flagDataDir, a.cfg.GetString(cfgKeyDataDir))
}

func (a *app) resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(a.flagConfigDir)
}
