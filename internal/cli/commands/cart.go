package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/glowcart-dev/glowcart/internal/cli/client"
)

// NewCartCmd creates the cart command group
func NewCartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Place orders",
	}

	cmd.AddCommand(newCartCreateCmd())

	return cmd
}

func newCartCreateCmd() *cobra.Command {
	var server string
	var itemSpecs []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Place an order",
		Example: `  glowcart cart create --item 01J5KQ:2 --item 01J5KR:1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(server)
			if err != nil {
				return err
			}
			return runCartCreate(env, itemSpecs)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Server address (or set GLOWCART_SERVER)")
	cmd.Flags().StringArrayVar(&itemSpecs, "item", nil, "Item to order as id:quantity (repeatable)")

	return cmd
}

// parseOrderLines turns id:quantity specs into order lines. A bare id means
// quantity 1.
func parseOrderLines(specs []string) ([]client.OrderLine, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("at least one --item is required")
	}

	lines := make([]client.OrderLine, 0, len(specs))
	for _, spec := range specs {
		id, qtyStr, found := strings.Cut(spec, ":")
		qty := 1
		if found {
			n, err := strconv.Atoi(qtyStr)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("invalid quantity in %q", spec)
			}
			qty = n
		}
		if id == "" {
			return nil, fmt.Errorf("invalid item spec %q", spec)
		}
		lines = append(lines, client.OrderLine{ItemID: id, Quantity: qty})
	}
	return lines, nil
}

func runCartCreate(env *Env, itemSpecs []string) error {
	lines, err := parseOrderLines(itemSpecs)
	if err != nil {
		return err
	}

	token, err := env.token()
	if err != nil {
		return err
	}

	order, err := env.API.CreateOrder(token, lines)
	if err != nil {
		return fmt.Errorf("failed to place order: %w", err)
	}

	fmt.Fprintln(env.Out, "✓ Order placed!")
	fmt.Fprintf(env.Out, "  ID: %s\n", order.ID)
	fmt.Fprintf(env.Out, "  Status: %s\n", order.Status)
	fmt.Fprintf(env.Out, "  Total: %s\n", formatPrice(order.TotalCents, order.Currency))

	return nil
}
