package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aussiebroadwan/storefront/internal/storefront/app"
	"github.com/spf13/cobra"
)

var (
	cfg app.Config

	apiURLFlag   string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Storefront command-line client",
	Long: `Browse the catalog, manage the cart and place orders against a
storefront API.

The session is kept in a local SQLite file (STOREFRONT_TOKEN_DB) so later
commands stay signed in. Run "storefront fake-api" for a local demo API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = app.LoadConfig(); err != nil {
			return err
		}
		if apiURLFlag != "" {
			cfg.APIURL = apiURLFlag
		}
		if logLevelFlag != "" {
			cfg.LogLevel = logLevelFlag
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURLFlag, "api-url", "", "storefront API base URL (overrides STOREFRONT_API_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
	rootCmd.AddCommand(productsCmd)
	rootCmd.AddCommand(cartCmd)
	rootCmd.AddCommand(checkoutCmd, ordersCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(fakeAPICmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// withApp builds the client, resumes the stored session and runs fn.
func withApp(ctx context.Context, fn func(a *app.Application) error) error {
	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer func() { _ = a.Close() }()

	if _, err := a.Restore(ctx); err != nil {
		return err
	}
	return fn(a)
}

// requireSession fails early for commands that make no sense signed out.
func requireSession(a *app.Application) error {
	if !a.Session.Authenticated() {
		return fmt.Errorf("not signed in; run \"storefront login\" first")
	}
	return nil
}
