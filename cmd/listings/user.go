// User commands.
package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/listings/internal/sqlite"
	"github.com/mesh-intelligence/listings/pkg/types"
)

func (a *app) userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Register, inspect and edit users",
	}
	cmd.AddCommand(
		a.userRegisterCmd(),
		a.userGetCmd(),
		a.userUpdateCmd(),
		a.userDeleteCmd(),
		a.userListCmd(),
		a.userLoginCmd(),
	)
	return cmd
}

func printUsers(w io.Writer, users []*types.User) {
	table(w, "ID\tNAME\tEMAIL\tPHONE", func(tw io.Writer) {
		for _, u := range users {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.UserID, u.DisplayName, u.Email, orDash(u.Phone))
		}
	})
}

func (a *app) userRegisterCmd() *cobra.Command {
	var reg types.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a user unless the email is taken",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store *sqlite.Backend) error {
				u, outcome, err := store.Users().Register(reg)
				if err != nil {
					return fmt.Errorf("register %s: %s: %w", reg.Email, outcome, err)
				}
				result := struct {
					Outcome string      `json:"outcome"`
					User    *types.User `json:"user"`
				}{outcome.String(), u}
				return a.emit(cmd, result, func(w io.Writer) {
					fmt.Fprintf(w, "%s user %d (%s)\n", outcome, u.UserID, u.Email)
				})
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&reg.DisplayName, "name", "", "display name (required)")
	f.StringVar(&reg.Email, "email", "", "email address (required)")
	f.StringVar(&reg.Password, "password", "", "password (required)")
	f.StringVar(&reg.Phone, "phone", "", "phone number")
	f.StringVar(&reg.ProfilePhotoURL, "photo", "", "profile photo URL")
	return cmd
}

func (a *app) userGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(func(store *sqlite.Backend) error {
				u, err := store.Users().Get(id)
				if err != nil {
					return err
				}
				return a.emit(cmd, u, func(w io.Writer) { printUsers(w, []*types.User{u}) })
			})
		},
	}
}

func (a *app) userUpdateCmd() *cobra.Command {
	var name, email, password, phone, photo string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the given fields of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			changed := cmd.Flags().Changed
			var patch types.UserPatch
			if changed("name") {
				patch.DisplayName = &name
			}
			if changed("email") {
				patch.Email = &email
			}
			if changed("password") {
				patch.Password = &password
			}
			if changed("phone") {
				patch.Phone = &phone
			}
			if changed("photo") {
				patch.ProfilePhotoURL = &photo
			}
			return a.withStore(func(store *sqlite.Backend) error {
				if err := store.Users().Update(id, patch); err != nil {
					return err
				}
				u, err := store.Users().Get(id)
				if err != nil {
					return err
				}
				return a.emit(cmd, u, func(w io.Writer) { printUsers(w, []*types.User{u}) })
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "display name")
	f.StringVar(&email, "email", "", "email address")
	f.StringVar(&password, "password", "", "password")
	f.StringVar(&phone, "phone", "", "phone number (empty clears)")
	f.StringVar(&photo, "photo", "", "profile photo URL (empty clears)")
	return cmd
}

func (a *app) userDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user that nothing references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(func(store *sqlite.Backend) error {
				if err := store.Users().Delete(id); err != nil {
					return err
				}
				return a.emit(cmd, map[string]int64{"deleted": id}, func(w io.Writer) {
					fmt.Fprintf(w, "deleted user %d\n", id)
				})
			})
		},
	}
}

func (a *app) userListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [column=value...]",
		Short: "List users matching every filter",
		Long: `List users matching every column=value filter, ordered by id.

Filterable columns: id, display_name, email, phone, profile_photo_url

Example:
  listings user list
  listings user list email=ana@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseFilter(args)
			if err != nil {
				return err
			}
			return a.withStore(func(store *sqlite.Backend) error {
				users, err := store.Users().Search(filter)
				if err != nil {
					return err
				}
				return a.emit(cmd, users, func(w io.Writer) { printUsers(w, users) })
			})
		},
	}
}

func (a *app) userLoginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Check an email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store *sqlite.Backend) error {
				u, err := store.Users().Authenticate(email, password)
				if err != nil {
					return err
				}
				return a.emit(cmd, u, func(w io.Writer) {
					fmt.Fprintf(w, "authenticated user %d (%s)\n", u.UserID, u.DisplayName)
				})
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	return cmd
}
