// Store lifecycle commands: version, init, reset, seed and export.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/listings/internal/seed"
	"github.com/mesh-intelligence/listings/internal/sqlite"
	"github.com/mesh-intelligence/listings/pkg/types"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the listings version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "listings", version)
		},
	}
}

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the config file and bring the database schema up to date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, err := a.resolveConfigDir()
			if err != nil {
				return err
			}
			dataDir, err := a.resolveDataDir()
			if err != nil {
				return err
			}
			return a.withStore(func(store *sqlite.Backend) error {
				v, err := store.SchemaVersion()
				if err != nil {
					return err
				}
				result := map[string]any{"config_dir": configDir, "data_dir": dataDir, "schema_version": v}
				return a.emit(cmd, result, func(w io.Writer) {
					fmt.Fprintln(w, "Store initialized")
					fmt.Fprintln(w, "  config:", configDir)
					fmt.Fprintln(w, "  data:  ", dataDir)
					fmt.Fprintln(w, "  schema:", v)
				})
			})
		},
	}
}

func (a *app) resetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop every table and recreate the schema (all data is lost)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset deletes all data; pass --yes to confirm")
			}
			return a.withStore(func(store *sqlite.Backend) error {
				if err := store.Reset(); err != nil {
					return err
				}
				return a.emit(cmd, map[string]bool{"reset": true}, func(w io.Writer) {
					fmt.Fprintln(w, "Store reset")
				})
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm that all data should be deleted")
	return cmd
}

func (a *app) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <fixture.yaml>",
		Short: "Load users, listings, photos, messages and favorites from a YAML fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			fixture, err := seed.Load(f)
			if err != nil {
				return err
			}
			return a.withStore(func(store *sqlite.Backend) error {
				report, err := seed.Apply(store, fixture)
				if err != nil {
					return err
				}
				return a.emit(cmd, report, func(w io.Writer) {
					fmt.Fprintf(w, "users: %d created, %d existing\n", report.UsersCreated, report.UsersSkipped)
					fmt.Fprintf(w, "properties: %d, photos: %d, messages: %d, favorites: %d\n",
						report.Properties, report.Photos, report.Messages, report.Favorites)
				})
			})
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write every table to <dir>/<table>.jsonl",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store *sqlite.Backend) error {
				counts, err := store.Export(args[0])
				if err != nil {
					return err
				}
				return a.emit(cmd, counts, func(w io.Writer) {
					table(w, "TABLE\tROWS", func(tw io.Writer) {
						for _, name := range types.StandardTableNames {
							fmt.Fprintf(tw, "%s\t%d\n", name, counts[name])
						}
					})
				})
			})
		},
	}
}
