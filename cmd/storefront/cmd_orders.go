package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/aussiebroadwan/storefront/internal/storefront/app"
	"github.com/aussiebroadwan/storefront/pkg/shopsdk"
	"github.com/spf13/cobra"
)

// checkoutCmd turns the cart into an order
var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Place an order for everything in the cart",
	Args:  cobra.NoArgs,
	RunE:  runCheckout,
}

// ordersCmd lists orders
var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List your orders",
	Args:  cobra.NoArgs,
	RunE:  runOrders,
}

// ordersStatusCmd moves an order along (sellers and admins)
var ordersStatusCmd = &cobra.Command{
	Use:   "status <order-id> <pending|processing|shipped|delivered|cancelled>",
	Short: "Change an order's status",
	Args:  cobra.ExactArgs(2),
	RunE:  runOrderStatus,
}

func init() {
	ordersCmd.AddCommand(ordersStatusCmd)
}

func runCheckout(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	return withApp(cmd.Context(), func(a *app.Application) error {
		ctx := cmd.Context()
		if err := requireSession(a); err != nil {
			return err
		}
		if err := a.Cart.Fetch(ctx); err != nil {
			return err
		}

		o, err := a.Orders.Checkout(ctx, a.Cart)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Order %d placed (%s), total %s\n", o.ID, o.Reference, o.TotalAmount)
		return nil
	})
}

func runOrders(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	return withApp(cmd.Context(), func(a *app.Application) error {
		if err := requireSession(a); err != nil {
			return err
		}
		list, err := a.Orders.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Fprintln(out, "No orders yet")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tPLACED\tSTATUS\tITEMS\tTOTAL")
		for _, o := range list {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", o.ID, o.CreatedAt.Local().Format("2006-01-02 15:04"), o.Status, len(o.Items), o.TotalAmount)
		}
		return tw.Flush()
	})
}

func runOrderStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	return withApp(cmd.Context(), func(a *app.Application) error {
		if d := a.Session.Authorize(shopsdk.RoleSeller, shopsdk.RoleAdmin, shopsdk.RoleSuperAdmin); d != shopsdk.Admit {
			return fmt.Errorf("not allowed to change order status (%s)", d)
		}
		o, err := a.Orders.UpdateStatus(cmd.Context(), id, shopsdk.OrderStatus(args[1]))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Order %d is now %s\n", o.ID, o.Status)
		return nil
	})
}
