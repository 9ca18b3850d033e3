// Photo commands. A photo is either a URL or a local file copied into the
// media directory once the store is attached.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/listings/internal/paths"
	"github.com/mesh-intelligence/listings/internal/sqlite"
	"github.com/mesh-intelligence/listings/internal/upload"
	"github.com/mesh-intelligence/listings/pkg/types"
)

func (a *app) photoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photo",
		Short: "Attach, list and remove listing photos",
	}
	cmd.AddCommand(a.photoAddCmd(), a.photoListCmd(), a.photoDeleteCmd())
	return cmd
}

// uploader returns the local uploader for the resolved media directory.
func (a *app) uploader() (*upload.Local, error) {
	dataDir, err := a.resolveDataDir()
	if err != nil {
		return nil, err
	}
	dir, err := paths.ResolveMediaDir(a.flagMediaDir, a.cfg.GetString(cfgKeyMediaDir), dataDir)
	if err != nil {
		return nil, err
	}
	return upload.NewLocal(dir, a.logger)
}

func printPhotos(w io.Writer, photos []*types.Photo) {
	table(w, "ID\tPROPERTY\tURL", func(tw io.Writer) {
		for _, p := range photos {
			fmt.Fprintf(tw, "%d\t%d\t%s\n", p.PhotoID, p.PropertyID, p.URL)
		}
	})
}

func (a *app) photoAddCmd() *cobra.Command {
	var url, file string
	cmd := &cobra.Command{
		Use:   "add <property-id>",
		Short: "Attach a photo by --url, or upload one with --file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			propertyID, err := parseID(args[0])
			if err != nil {
				return err
			}
			if (url == "") == (file == "") {
				return fmt.Errorf("exactly one of --url or --file is required: %w", types.ErrInvalidData)
			}

			return a.withStore(func(store *sqlite.Backend) error {
				if file == "" {
					photo, err := store.Photos().Insert(propertyID, url)
					if err != nil {
						return err
					}
					return a.emit(cmd, photo, func(w io.Writer) { printPhotos(w, []*types.Photo{photo}) })
				}

				up, err := a.uploader()
				if err != nil {
					return err
				}
				uploaded, err := up.Upload(context.Background(), file)
				if err != nil {
					return err
				}
				photo, err := store.Photos().Insert(propertyID, uploaded.URL)
				if err != nil {
					// The row was never written; do not leave an orphan file.
					return errors.Join(err, up.Remove(context.Background(), uploaded.DeleteURL))
				}
				return a.emit(cmd, photo, func(w io.Writer) { printPhotos(w, []*types.Photo{photo}) })
			})
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "photo URL")
	cmd.Flags().StringVar(&file, "file", "", "local image file to upload")
	return cmd
}

func (a *app) photoListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <property-id>",
		Short: "List a listing's photos in upload order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			propertyID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(func(store *sqlite.Backend) error {
				photos, err := store.Photos().ListByProperty(propertyID)
				if err != nil {
					return err
				}
				return a.emit(cmd, photos, func(w io.Writer) { printPhotos(w, photos) })
			})
		},
	}
}

func (a *app) photoDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <photo-id>",
		Short: "Remove a photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(func(store *sqlite.Backend) error {
				if err := store.Photos().Delete(id); err != nil {
					return err
				}
				return a.emit(cmd, map[string]int64{"deleted": id}, func(w io.Writer) {
					fmt.Fprintf(w, "deleted photo %d\n", id)
				})
			})
		},
	}
}
