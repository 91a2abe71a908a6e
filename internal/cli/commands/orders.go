package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/glowcart-dev/glowcart/internal/cli/client"
)

// Order statuses offered by the set-status picker, in lifecycle order.
var orderStatuses = []string{"pending", "paid", "shipped", "delivered", "cancelled"}

// NewOrdersCmd creates the orders command group
func NewOrdersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List and manage orders",
	}

	cmd.AddCommand(newOrdersListCmd())
	cmd.AddCommand(newOrdersSetStatusCmd())

	return cmd
}

func newOrdersListCmd() *cobra.Command {
	var server string
	var all bool

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List your orders (staff: --all for every order)",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(server)
			if err != nil {
				return err
			}
			return runOrdersList(env, all)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Server address (or set GLOWCART_SERVER)")
	cmd.Flags().BoolVar(&all, "all", false, "List every order (staff only)")

	return cmd
}

func runOrdersList(env *Env, all bool) error {
	token, err := env.token()
	if err != nil {
		return err
	}

	var orders []client.Order
	if all {
		orders, err = env.API.AllOrders(token)
	} else {
		orders, err = env.API.MyOrders(token)
	}
	if err != nil {
		return err
	}

	if len(orders) == 0 {
		fmt.Fprintln(env.Out, "No orders found.")
		return nil
	}

	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tTOTAL\tCREATED AT")
	for _, order := range orders {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			order.ID, order.Status, formatPrice(order.TotalCents, order.Currency), order.CreatedAt)
	}
	w.Flush()

	return nil
}

func newOrdersSetStatusCmd() *cobra.Command {
	var server, status string

	cmd := &cobra.Command{
		Use:   "set-status <order-id>",
		Short: "Move an order along its status lifecycle (staff only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(server)
			if err != nil {
				return err
			}
			return runOrdersSetStatus(env, args[0], status)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Server address (or set GLOWCART_SERVER)")
	cmd.Flags().StringVar(&status, "status", "", "New status (interactive picker if omitted)")

	return cmd
}

func runOrdersSetStatus(env *Env, orderID, status string) error {
	token, err := env.token()
	if err != nil {
		return err
	}

	if status == "" {
		prompt := promptui.Select{
			Label: "New status",
			Items: orderStatuses,
		}
		_, picked, err := prompt.Run()
		if err != nil {
			return fmt.Errorf("no status selected: %w", err)
		}
		status = picked
	}

	order, err := env.API.UpdateOrderStatus(token, orderID, status)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	fmt.Fprintf(env.Out, "✓ Order %s is now %s\n", order.ID, order.Status)
	return nil
}
