// Favorite commands.
package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/listings/internal/sqlite"
)

func (a *app) favoriteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorite",
		Aliases: []string{"fav"},
		Short:   "Bookmark listings for a user",
	}
	cmd.AddCommand(a.favoriteAddCmd(), a.favoriteRemoveCmd(), a.favoriteListCmd())
	return cmd
}

func (a *app) favoriteAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <user-id> <property-id>",
		Short: "Bookmark a listing (no-op when already bookmarked)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return a.withStore(func(store *sqlite.Backend) error {
				if err := store.Favorites().Add(ids[0], ids[1]); err != nil {
					return err
				}
				return a.emit(cmd, map[string]int64{"user_id": ids[0], "property_id": ids[1]}, func(w io.Writer) {
					fmt.Fprintf(w, "user %d favorited property %d\n", ids[0], ids[1])
				})
			})
		},
	}
}

func (a *app) favoriteRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <user-id> <property-id>",
		Short: "Remove a bookmark",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return a.withStore(func(store *sqlite.Backend) error {
				if err := store.Favorites().Remove(ids[0], ids[1]); err != nil {
					return err
				}
				return a.emit(cmd, map[string]int64{"user_id": ids[0], "property_id": ids[1]}, func(w io.Writer) {
					fmt.Fprintf(w, "user %d unfavorited property %d\n", ids[0], ids[1])
				})
			})
		},
	}
}

func (a *app) favoriteListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <user-id>",
		Short: "List the property ids a user bookmarked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(func(store *sqlite.Backend) error {
				ids, err := store.Favorites().ListByUser(id)
				if err != nil {
					return err
				}
				return a.emit(cmd, ids, func(w io.Writer) {
					for _, pid := range ids {
						fmt.Fprintln(w, pid)
					}
				})
			})
		},
	}
}
