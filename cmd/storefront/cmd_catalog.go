package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/aussiebroadwan/storefront/internal/storefront/app"
	"github.com/spf13/cobra"
)

var (
	pageFlag  int
	limitFlag int
)

// productsCmd lists one page of the catalog
var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List products page by page",
	Long: `List one page of the catalog.

Pages outside the catalog are clamped to the first or last page.`,
	RunE: runProducts,
}

func init() {
	productsCmd.Flags().IntVar(&pageFlag, "page", 1, "page to show")
	productsCmd.Flags().IntVar(&limitFlag, "limit", 0, "products per page (default STOREFRONT_PAGE_SIZE)")
}

func runProducts(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	return withApp(cmd.Context(), func(a *app.Application) error {
		ctx := cmd.Context()
		if limitFlag > 0 {
			a.Catalog.SetItemsPerPage(limitFlag)
		}

		// The first fetch learns the total so the requested page can be
		// clamped against it.
		if err := a.Catalog.Refresh(ctx); err != nil {
			return err
		}
		if w := a.Catalog.SetPage(pageFlag); w.CurrentPage != 1 {
			if err := a.Catalog.Refresh(ctx); err != nil {
				return err
			}
		}

		st := a.Catalog.State()
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tPRICE\tSTOCK")
		for _, p := range st.Items {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", p.ID, p.Name, p.Price, p.Stock)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		w := st.Window
		fmt.Fprintf(out, "\nPage %d of %d (%d products)\n", w.CurrentPage, max(w.TotalPages, 1), w.TotalItems)
		return nil
	})
}
