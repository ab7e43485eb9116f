package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/aussiebroadwan/storefront/internal/storefront/app"
	"github.com/aussiebroadwan/storefront/pkg/shopsdk"
	"github.com/spf13/cobra"
)

var (
	userNameFlag     string
	userEmailFlag    string
	userPasswordFlag string
	userRoleFlag     string
)

// usersCmd lists accounts (admins only)
var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List and manage user accounts (admins)",
	Long: `List user accounts. Requires an admin or superadmin session.

Available subcommands:
  add    - Create an account
  role   - Change an account's role
  delete - Remove an account`,
	Args: cobra.NoArgs,
	RunE: runUsers,
}

var usersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE:  runUsersAdd,
}

var usersRoleCmd = &cobra.Command{
	Use:   "role <user-id> <user|seller|admin|superadmin>",
	Short: "Change an account's role",
	Args:  cobra.ExactArgs(2),
	RunE:  runUsersRole,
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <user-id>",
	Short: "Remove an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersDelete,
}

func init() {
	usersAddCmd.Flags().StringVar(&userEmailFlag, "email", "", "account email")
	usersAddCmd.Flags().StringVar(&userPasswordFlag, "password", "", "initial password")
	usersAddCmd.Flags().StringVar(&userNameFlag, "name", "", "display name")
	usersAddCmd.Flags().StringVar(&userRoleFlag, "role", string(shopsdk.RoleUser), "role")
	_ = usersAddCmd.MarkFlagRequired("email")
	_ = usersAddCmd.MarkFlagRequired("password")

	usersCmd.AddCommand(usersAddCmd, usersRoleCmd, usersDeleteCmd)
}

func runUsers(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app.Application) error {
		list, err := a.Users.List(cmd.Context())
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE")
		for _, u := range list {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Email, u.Name, u.Role)
		}
		return tw.Flush()
	})
}

func runUsersAdd(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app.Application) error {
		u, err := a.Users.Create(cmd.Context(), shopsdk.UserInput{
			Email:    userEmailFlag,
			Password: userPasswordFlag,
			Name:     userNameFlag,
			Role:     shopsdk.Role(userRoleFlag),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created user %d (%s, %s)\n", u.ID, u.Email, u.Role)
		return nil
	})
}

func runUsersRole(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	role := shopsdk.Role(args[1])

	return withApp(cmd.Context(), func(a *app.Application) error {
		u, err := a.Users.Update(cmd.Context(), id, shopsdk.UserPatch{Role: &role})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "User %d is now %s\n", u.ID, u.Role)
		return nil
	})
}

func runUsersDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	return withApp(cmd.Context(), func(a *app.Application) error {
		if err := a.Users.Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %d\n", id)
		return nil
	})
}
