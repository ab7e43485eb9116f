package shopsdk

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUsersNeedAdmin(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	users := NewUsers(h.transport)

	_, err := users.List(ctx)
	require.ErrorIs(t, err, ErrAuthentication)

	h.login(t)
	_, err = users.List(ctx)
	require.ErrorIs(t, err, ErrForbidden)
	require.Zero(t, h.api.Calls("GET /users"), "refused before reaching the network")
}

func TestUsersAdministration(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	adminID, err := h.api.AddUser("ada@example.com", "admin-pass", "Ada", "admin")
	require.NoError(t, err)
	_, err = h.session.Login(ctx, "ada@example.com", "admin-pass")
	require.NoError(t, err)
	users := NewUsers(h.transport)

	list, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, h.userID, list[0].ID)

	created, err := users.Create(ctx, UserInput{Email: "sel@example.com", Password: "seller-pass", Name: "Sel", Role: RoleSeller})
	require.NoError(t, err)
	require.Equal(t, RoleSeller, created.Role)
	require.Equal(t, adminID, h.session.Identity().ID, "creating a user does not switch sessions")

	t.Run("validation", func(t *testing.T) {
		_, err := users.Create(ctx, UserInput{Email: "nope", Password: "x"})
		require.ErrorIs(t, err, ErrValidation)
		bad := Role("owner")
		_, err = users.Update(ctx, created.ID, UserPatch{Role: &bad})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("update", func(t *testing.T) {
		role := RoleUser
		got, err := users.Update(ctx, created.ID, UserPatch{Role: &role})
		require.NoError(t, err)
		require.Equal(t, RoleUser, got.Role)

		again, err := users.Get(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, RoleUser, again.Role)
	})

	t.Run("renaming yourself reloads the identity", func(t *testing.T) {
		name := "Ada Lovelace"
		_, err := users.Update(ctx, adminID, UserPatch{Name: &name})
		require.NoError(t, err)
		require.Equal(t, name, h.session.Identity().Name)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, users.Delete(ctx, created.ID))
		_, err := users.Get(ctx, created.ID)
		require.ErrorIs(t, err, ErrNotFound)

		var apiErr *APIError
		require.ErrorAs(t, users.Delete(ctx, adminID), &apiErr)
		require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	})
}

func TestSessionMe(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.session.Me(ctx)
	require.ErrorIs(t, err, ErrAuthentication)
	require.Zero(t, h.api.Calls("GET /auth/me"))

	h.login(t)
	cred := h.session.Credential()

	t.Run("does not rotate a live credential", func(t *testing.T) {
		id, err := h.session.Me(ctx)
		require.NoError(t, err)
		require.Equal(t, h.userID, id.ID)
		require.Equal(t, cred, h.session.Credential())
		require.Zero(t, h.api.Calls("POST /auth/refresh"))
	})

	t.Run("picks up a role change", func(t *testing.T) {
		adminID, err := h.api.AddUser("root@example.com", "root-pass", "Root", "superadmin")
		require.NoError(t, err)
		tok, err := h.api.Token(adminID)
		require.NoError(t, err)

		admin := NewSession(h.client, NewMemoryTokenStore(tok))
		_, err = admin.Restore(ctx)
		require.NoError(t, err)
		role := RoleSeller
		_, err = NewUsers(NewTransport(h.client, admin)).Update(ctx, h.userID, UserPatch{Role: &role})
		require.NoError(t, err)

		require.Equal(t, RoleUser, h.session.Identity().Role)
		id, err := h.session.Me(ctx)
		require.NoError(t, err)
		require.Equal(t, RoleSeller, id.Role)
		require.Equal(t, Admit, h.session.Authorize(RoleSeller))
	})

	t.Run("expired credential is refreshed once", func(t *testing.T) {
		h.api.ExpireCredentials()
		id, err := h.session.Me(ctx)
		require.NoError(t, err)
		require.Equal(t, h.userID, id.ID)
		require.NotEqual(t, cred, h.session.Credential())
	})
}
