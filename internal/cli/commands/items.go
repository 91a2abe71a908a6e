package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/glowcart-dev/glowcart/internal/cli/client"
)

// NewItemsCmd creates the items command
func NewItemsCmd() *cobra.Command {
	var server string
	var page, limit int

	cmd := &cobra.Command{
		Use:   "items",
		Short: "Browse the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(server)
			if err != nil {
				return err
			}
			return runItems(env, page, limit)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Server address (or set GLOWCART_SERVER)")
	cmd.Flags().IntVar(&page, "page", 0, "Page number (omit for the full catalog)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Items per page")

	return cmd
}

func runItems(env *Env, page, limit int) error {
	var items []client.Item
	var total int64

	if page > 0 {
		resp, err := env.API.PaginateItems(page, limit)
		if err != nil {
			return err
		}
		items = resp.Items
		total = resp.Total
	} else {
		all, err := env.API.ListItems()
		if err != nil {
			return err
		}
		items = all
		total = int64(len(all))
	}

	if len(items) == 0 {
		fmt.Fprintln(env.Out, "No items found.")
		return nil
	}

	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tSKIN TYPE\tIN STOCK")
	for _, item := range items {
		stock := "yes"
		if !item.InStock {
			stock = "no"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			item.ID, item.Name, formatPrice(item.PriceCents, item.Currency), item.SkinType, stock)
	}
	w.Flush()

	if page > 0 {
		fmt.Fprintf(env.Out, "\nPage %d (%d items total)\n", page, total)
	}
	return nil
}
