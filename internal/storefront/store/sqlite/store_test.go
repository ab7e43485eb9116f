package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/storefront/internal/storefront/store/sqlite"
	"github.com/aussiebroadwan/storefront/pkg/cryptox"
	"github.com/aussiebroadwan/storefront/pkg/shopsdk"
	"github.com/stretchr/testify/require"
)

var _ shopsdk.TokenStore = (*sqlite.Store)(nil)

func openStore(t *testing.T, path string, opts ...sqlite.Option) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "tokens.db"))

	got, err := s.Get(ctx)
	require.NoError(t, err)
	require.Empty(t, got)

	require.NoError(t, s.Set(ctx, "first"))
	require.NoError(t, s.Set(ctx, "second"))
	got, err = s.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "second", got)

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))
	got, err = s.Get(ctx)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestStoreSurvivesReopen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tokens.db")

	s := openStore(t, path)
	require.NoError(t, s.Set(ctx, "persisted"))
	require.NoError(t, s.Close())

	// Migrations are idempotent.
	s = openStore(t, path)
	got, err := s.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "persisted", got)
}

func TestStoreSlots(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tokens.db")

	a := openStore(t, path)
	b := openStore(t, path, sqlite.WithSlot("staging"))

	require.NoError(t, a.Set(ctx, "prod-token"))
	got, err := b.Get(ctx)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestStoreSealed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tokens.db")

	sealer, err := cryptox.NewSealer([]byte("secret"))
	require.NoError(t, err)
	s := openStore(t, path, sqlite.WithSealer(sealer))
	require.NoError(t, s.Set(ctx, "bearer-value"))

	got, err := s.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "bearer-value", got)

	t.Run("without the secret", func(t *testing.T) {
		_, err := openStore(t, path).Get(ctx)
		require.Error(t, err)
	})

	t.Run("with another secret", func(t *testing.T) {
		other, err := cryptox.NewSealer([]byte("nope"))
		require.NoError(t, err)
		_, err = openStore(t, path, sqlite.WithSealer(other)).Get(ctx)
		require.ErrorIs(t, err, cryptox.ErrUnseal)
	})
}
