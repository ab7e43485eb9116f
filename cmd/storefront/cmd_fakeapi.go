package main

import (
	"fmt"

	"github.com/aussiebroadwan/storefront/internal/fakeapi"
	"github.com/aussiebroadwan/storefront/internal/storefront/app"
	"github.com/spf13/cobra"
)

var fakeAPIAddrFlag string

// fakeAPICmd serves the in-memory demo API
var fakeAPICmd = &cobra.Command{
	Use:   "fake-api",
	Short: "Serve an in-memory storefront API for local use",
	Long: `Serve a seeded in-memory storefront API under /api.

Demo accounts: shopper@example.com, seller@example.com and admin@example.com,
all with the password "` + fakeapi.DemoPassword + `". State is lost on exit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if fakeAPIAddrFlag != "" {
			cfg.FakeAPIAddr = fakeAPIAddrFlag
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Serving fake API on %s/api\n", cfg.FakeAPIAddr)
		return app.RunFakeAPI(cmd.Context(), cfg)
	},
}

func init() {
	fakeAPICmd.Flags().StringVar(&fakeAPIAddrFlag, "addr", "", "listen address (default STOREFRONT_FAKE_API_ADDR or :3000)")
}
