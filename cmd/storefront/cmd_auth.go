package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/aussiebroadwan/storefront/internal/storefront/app"
	"github.com/aussiebroadwan/storefront/pkg/shopsdk"
	"github.com/spf13/cobra"
)

var (
	emailFlag    string
	passwordFlag string
	nameFlag     string
	remoteFlag   bool
)

// loginCmd signs in and stores the session
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password",
	Long: `Sign in and keep the session for later commands.

The password is read from --password, then STOREFRONT_PASSWORD, then stdin.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

// registerCmd creates an account
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Args:  cobra.NoArgs,
	RunE:  runRegister,
}

// logoutCmd forgets the stored session
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

// whoamiCmd prints the signed-in identity
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Long: `Show the signed-in user.

With --remote the identity is reloaded from the API, which picks up role
changes made by an administrator.`,
	Args: cobra.NoArgs,
	RunE: runWhoami,
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVar(&emailFlag, "email", "", "account email")
		c.Flags().StringVar(&passwordFlag, "password", "", "account password")
		_ = c.MarkFlagRequired("email")
	}
	registerCmd.Flags().StringVar(&nameFlag, "name", "", "display name")
	whoamiCmd.Flags().BoolVar(&remoteFlag, "remote", false, "ask the API instead of using the restored session")
}

func readPassword(cmd *cobra.Command) (string, error) {
	if passwordFlag != "" {
		return passwordFlag, nil
	}
	if pw := os.Getenv("STOREFRONT_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}

	return withApp(cmd.Context(), func(a *app.Application) error {
		id, err := a.Session.Login(cmd.Context(), emailFlag, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", id.Email, id.Role)
		return nil
	})
}

func runRegister(cmd *cobra.Command, args []string) error {
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}

	return withApp(cmd.Context(), func(a *app.Application) error {
		id, err := a.Session.Register(cmd.Context(), shopsdk.RegisterRequest{
			Email:    emailFlag,
			Password: password,
			Name:     nameFlag,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered and signed in as %s\n", id.Email)
		return nil
	})
}

func runLogout(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app.Application) error {
		if err := a.Session.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
		return nil
	})
}

func runWhoami(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	return withApp(cmd.Context(), func(a *app.Application) error {
		if !a.Session.Authenticated() {
			fmt.Fprintln(out, "Not signed in")
			return nil
		}
		if remoteFlag {
			if _, err := a.Session.Me(cmd.Context()); err != nil {
				return err
			}
		}

		st := a.Session.Snapshot()
		fmt.Fprintf(out, "%s (%s, id %d)\n", st.Identity.Email, st.Identity.Role, st.Identity.ID)
		if !st.ExpiresAt.IsZero() {
			fmt.Fprintf(out, "Credential expires %s\n", st.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
		}
		return nil
	})
}
