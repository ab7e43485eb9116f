package shopsdk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGate(t *testing.T) {
	t.Parallel()

	admin := &Identity{ID: 1, Role: RoleAdmin}
	shopper := &Identity{ID: 2, Role: RoleUser}

	tests := []struct {
		name     string
		identity *Identity
		required []Role
		want     Decision
		path     string
	}{
		{"anonymous", nil, []Role{RoleAdmin}, RedirectLogin, "/login"},
		{"anonymous without roles", nil, nil, RedirectLogin, "/login"},
		{"wrong role", shopper, []Role{RoleAdmin, RoleSuperAdmin}, RedirectHome, "/"},
		{"matching role", admin, []Role{RoleSeller, RoleAdmin}, Admit, ""},
		{"any identity", shopper, nil, Admit, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Gate(tt.identity, tt.required...)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.path, got.Path())
		})
	}
}

func TestSessionAuthorize(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	require.Equal(t, RedirectLogin, h.session.Authorize(RoleUser))
	h.login(t)
	require.Equal(t, Admit, h.session.Authorize(RoleUser))
	require.Equal(t, RedirectHome, h.session.Authorize(RoleAdmin))
}
