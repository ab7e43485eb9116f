package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/storefront/internal/fakeapi"
	"github.com/aussiebroadwan/storefront/pkg/cryptox"
	"github.com/aussiebroadwan/storefront/pkg/slogx"
	"github.com/stretchr/testify/require"
)

// newCLI points the commands at a seeded in-memory API and a fresh token
// database, and returns a runner for rootCmd.
func newCLI(t *testing.T) (*fakeapi.Server, func(args ...string) (string, error)) {
	t.Helper()

	api, err := fakeapi.New(fakeapi.Config{
		PasswordParams: cryptox.Params{Memory: 64, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16},
		Logger:         slogx.Discard(),
	})
	require.NoError(t, err)
	require.NoError(t, api.SeedDemo())

	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	t.Setenv("STOREFRONT_CONFIG", "")
	t.Setenv("STOREFRONT_API_URL", srv.URL)
	t.Setenv("STOREFRONT_TOKEN_DB", filepath.Join(t.TempDir(), "token.db"))
	t.Setenv("STOREFRONT_TOKEN_SECRET", "")
	t.Setenv("STOREFRONT_PASSWORD", "")
	t.Setenv("LOG_LEVEL", "error")

	return api, func(args ...string) (string, error) {
		var buf bytes.Buffer
		rootCmd.SetOut(&buf)
		rootCmd.SetErr(&buf)
		rootCmd.SetArgs(args)
		err := rootCmd.ExecuteContext(context.Background())
		return buf.String(), err
	}
}

func TestShoppingFlow(t *testing.T) {
	_, run := newCLI(t)

	out, err := run("cart", "show")
	require.ErrorContains(t, err, "not signed in")

	out, err = run("login", "--email", "shopper@example.com", "--password", fakeapi.DemoPassword)
	require.NoError(t, err)
	require.Contains(t, out, "Signed in as shopper@example.com (user)")

	out, err = run("whoami")
	require.NoError(t, err)
	require.Contains(t, out, "shopper@example.com (user")

	out, err = run("products", "--page", "2", "--limit", "5")
	require.NoError(t, err)
	require.Contains(t, out, "Digital Scale")
	require.Contains(t, out, "Page 2 of 3 (12 products)")

	out, err = run("cart", "add", "1", "2")
	require.NoError(t, err)
	require.Contains(t, out, "Espresso Beans 1kg")
	require.Contains(t, out, "99.98")

	out, err = run("cart", "set", "1", "3")
	require.NoError(t, err)
	require.Contains(t, out, "149.97")

	out, err = run("checkout")
	require.NoError(t, err)
	require.Contains(t, out, "Order 1 placed")
	require.Contains(t, out, "total 149.97")

	out, err = run("cart", "show")
	require.NoError(t, err)
	require.Contains(t, out, "Cart is empty")

	out, err = run("orders")
	require.NoError(t, err)
	require.Contains(t, out, "pending")

	_, err = run("orders", "status", "1", "shipped")
	require.ErrorContains(t, err, "not allowed")

	_, err = run("users")
	require.Error(t, err)

	out, err = run("logout")
	require.NoError(t, err)
	require.Contains(t, out, "Signed out")

	out, err = run("whoami")
	require.NoError(t, err)
	require.Contains(t, out, "Not signed in")
}

func TestAdminFlow(t *testing.T) {
	_, run := newCLI(t)

	_, err := run("login", "--email", "admin@example.com", "--password", fakeapi.DemoPassword)
	require.NoError(t, err)

	out, err := run("users")
	require.NoError(t, err)
	require.Contains(t, out, "seller@example.com")
	require.Contains(t, out, "shopper@example.com")

	out, err = run("users", "add", "--email", "new@example.com", "--password", "secret1", "--name", "New", "--role", "seller")
	require.NoError(t, err)
	require.Contains(t, out, "Created user 4 (new@example.com, seller)")

	out, err = run("users", "role", "4", "user")
	require.NoError(t, err)
	require.Contains(t, out, "User 4 is now user")

	out, err = run("users", "delete", "4")
	require.NoError(t, err)
	require.Contains(t, out, "Deleted user 4")

	out, err = run("whoami", "--remote")
	require.NoError(t, err)
	require.Contains(t, out, "admin@example.com (admin")
}
