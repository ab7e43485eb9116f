package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/aussiebroadwan/storefront/internal/storefront/app"
	"github.com/aussiebroadwan/storefront/pkg/shopsdk"
	"github.com/spf13/cobra"
)

// cartCmd is the parent command for cart management
var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Show and change the cart",
	Long: `Show and change the signed-in user's cart.

Available subcommands:
  show   - Print the cart
  add    - Add units of a product
  set    - Set the quantity of a line (0 removes it)
  remove - Remove a line
  clear  - Empty the cart`,
}

var cartShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the cart",
	Args:  cobra.NoArgs,
	RunE: cartCommand(func(cmd *cobra.Command, a *app.Application, _ []string) error {
		return nil
	}),
}

var cartAddCmd = &cobra.Command{
	Use:   "add <product-id> [quantity]",
	Short: "Add units of a product",
	Args:  cobra.RangeArgs(1, 2),
	RunE: cartCommand(func(cmd *cobra.Command, a *app.Application, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		qty := 1
		if len(args) == 2 {
			if qty, err = strconv.Atoi(args[1]); err != nil || qty < 1 {
				return fmt.Errorf("quantity must be a positive integer")
			}
		}
		return a.Cart.AddItem(cmd.Context(), shopsdk.CartLine{ProductID: id, Quantity: qty})
	}),
}

var cartSetCmd = &cobra.Command{
	Use:   "set <product-id> <quantity>",
	Short: "Set the quantity of a line (0 removes it)",
	Args:  cobra.ExactArgs(2),
	RunE: cartCommand(func(cmd *cobra.Command, a *app.Application, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("quantity must be an integer")
		}
		return a.Cart.UpdateQuantity(cmd.Context(), id, qty)
	}),
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove <product-id>",
	Short: "Remove a line",
	Args:  cobra.ExactArgs(1),
	RunE: cartCommand(func(cmd *cobra.Command, a *app.Application, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return a.Cart.RemoveItem(cmd.Context(), id)
	}),
}

var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	Args:  cobra.NoArgs,
	RunE: cartCommand(func(cmd *cobra.Command, a *app.Application, _ []string) error {
		return a.Cart.Clear(cmd.Context())
	}),
}

func init() {
	cartCmd.AddCommand(cartShowCmd, cartAddCmd, cartSetCmd, cartRemoveCmd, cartClearCmd)
}

// cartCommand loads the server cart, applies op and prints the result.
func cartCommand(op func(cmd *cobra.Command, a *app.Application, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.Application) error {
			if err := requireSession(a); err != nil {
				return err
			}
			if err := a.Cart.Fetch(cmd.Context()); err != nil {
				return err
			}
			if err := op(cmd, a, args); err != nil {
				return err
			}
			return printCart(cmd.OutOrStdout(), a.Cart.Snapshot())
		})
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func printCart(out io.Writer, s shopsdk.CartSnapshot) error {
	if s.Len() == 0 {
		fmt.Fprintln(out, "Cart is empty")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tQTY\tSUBTOTAL")
	for _, l := range s.Lines {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", l.ProductID, l.Name, l.UnitPrice, l.Quantity, l.UnitPrice.Times(l.Quantity))
	}
	fmt.Fprintf(tw, "\t\t\t%d\t%s\n", s.TotalQuantity, s.TotalAmount)
	return tw.Flush()
}
