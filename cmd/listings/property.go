// Property listing commands.
package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/listings/internal/sqlite"
	"github.com/mesh-intelligence/listings/pkg/types"
)

func (a *app) propertyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "property",
		Aliases: []string{"prop"},
		Short:   "Create, search and edit property listings",
	}
	cmd.AddCommand(
		a.propertyAddCmd(),
		a.propertyGetCmd(),
		a.propertyUpdateCmd(),
		a.propertyDeleteCmd(),
		a.propertySearchCmd(),
	)
	return cmd
}

func printProperties(w io.Writer, props []*types.Property) {
	table(w, "ID\tTYPE\tTITLE\tPRICE\tSTATUS\tOWNER\tADDRESS", func(tw io.Writer) {
		for _, p := range props {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%s\t%d\t%s\n",
				p.PropertyID, p.PropertyType, p.Title, p.Price, p.Status, p.OwnerID, p.Address)
		}
	})
}

// propertyFlags binds every listing field to a flag of cmd.
func propertyFlags(cmd *cobra.Command, p *types.Property) {
	f := cmd.Flags()
	f.Int64Var(&p.OwnerID, "owner", 0, "owner user id")
	f.StringVar(&p.PropertyType, "type", "", "property type, e.g. house or flat")
	f.StringVar(&p.Title, "title", "", "listing title")
	f.Float64Var(&p.Price, "price", 0, "asking price")
	f.StringVar(&p.Address, "address", "", "street address")
	f.StringVar(&p.Status, "status", "", "listing status, e.g. for_sale")
	f.StringVar(&p.Contact, "contact", "", "contact details")
	f.StringVar(&p.Description, "description", "", "free-text description")
}

func (a *app) propertyAddCmd() *cobra.Command {
	var p types.Property
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a listing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store *sqlite.Backend) error {
				if err := store.Properties().Insert(&p); err != nil {
					return err
				}
				return a.emit(cmd, &p, func(w io.Writer) { printProperties(w, []*types.Property{&p}) })
			})
		},
	}
	propertyFlags(cmd, &p)
	return cmd
}

func (a *app) propertyGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a listing with its photos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(func(store *sqlite.Backend) error {
				p, err := store.Properties().Get(id)
				if err != nil {
					return err
				}
				photos, err := store.Photos().ListByProperty(id)
				if err != nil {
					return err
				}
				result := struct {
					*types.Property
					Photos []*types.Photo `json:"photos"`
				}{p, photos}
				return a.emit(cmd, result, func(w io.Writer) {
					printProperties(w, []*types.Property{p})
					if p.Description != "" {
						fmt.Fprintln(w, p.Description)
					}
					for _, ph := range photos {
						fmt.Fprintf(w, "photo %d: %s\n", ph.PhotoID, ph.URL)
					}
				})
			})
		},
	}
}

func (a *app) propertyUpdateCmd() *cobra.Command {
	var p types.Property
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the given fields of a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			changed := cmd.Flags().Changed
			var patch types.PropertyPatch
			if changed("owner") {
				patch.OwnerID = &p.OwnerID
			}
			if changed("type") {
				patch.PropertyType = &p.PropertyType
			}
			if changed("title") {
				patch.Title = &p.Title
			}
			if changed("price") {
				patch.Price = &p.Price
			}
			if changed("address") {
				patch.Address = &p.Address
			}
			if changed("status") {
				patch.Status = &p.Status
			}
			if changed("contact") {
				patch.Contact = &p.Contact
			}
			if changed("description") {
				patch.Description = &p.Description
			}
			return a.withStore(func(store *sqlite.Backend) error {
				if err := store.Properties().Update(id, patch); err != nil {
					return err
				}
				got, err := store.Properties().Get(id)
				if err != nil {
					return err
				}
				return a.emit(cmd, got, func(w io.Writer) { printProperties(w, []*types.Property{got}) })
			})
		},
	}
	propertyFlags(cmd, &p)
	return cmd
}

func (a *app) propertyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a listing that has no photos or favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(func(store *sqlite.Backend) error {
				if err := store.Properties().Delete(id); err != nil {
					return err
				}
				return a.emit(cmd, map[string]int64{"deleted": id}, func(w io.Writer) {
					fmt.Fprintf(w, "deleted property %d\n", id)
				})
			})
		},
	}
}

func (a *app) propertySearchCmd() *cobra.Command {
	var q types.PropertyQuery
	var minPrice, maxPrice float64
	cmd := &cobra.Command{
		Use:   "search [column=value...]",
		Short: "Find listings by field values and price range",
		Long: `Search returns listings matching every column=value filter and the
optional price range. Both price bounds are inclusive.

Filterable columns: id, property_type, title, address, status, contact,
description, owner_id

Example:
  listings property search status=for_sale --min 120000 --max 180000
  listings property search owner_id=3 --order -price --limit 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseFilter(args)
			if err != nil {
				return err
			}
			q.Equal = filter
			if cmd.Flags().Changed("min") {
				q.PriceMin = &minPrice
			}
			if cmd.Flags().Changed("max") {
				q.PriceMax = &maxPrice
			}
			return a.withStore(func(store *sqlite.Backend) error {
				props, err := store.Properties().Search(q)
				if err != nil {
					return err
				}
				return a.emit(cmd, props, func(w io.Writer) { printProperties(w, props) })
			})
		},
	}
	f := cmd.Flags()
	f.Float64Var(&minPrice, "min", 0, "minimum price (inclusive)")
	f.Float64Var(&maxPrice, "max", 0, "maximum price (inclusive)")
	f.StringVar(&q.OrderBy, "order", "", "order by id, price or title; prefix with - for descending")
	f.IntVar(&q.Limit, "limit", 0, "maximum number of results (0 for all)")
	return cmd
}
