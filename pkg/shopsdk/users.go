package shopsdk

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Users administers accounts. Every call requires an admin or superadmin
// identity and is refused locally otherwise.
type Users struct {
	transport *Transport
}

// NewUsers creates a user administration client.
func NewUsers(t *Transport) *Users {
	return &Users{transport: t}
}

func userPath(id int64) string {
	return "/users/" + strconv.FormatInt(id, 10)
}

func (u *Users) authorize() error {
	switch u.transport.session.Authorize(RoleAdmin, RoleSuperAdmin) {
	case RedirectLogin:
		return fmt.Errorf("%w: sign in to manage users", ErrAuthentication)
	case RedirectHome:
		return fmt.Errorf("%w: managing users needs an admin role", ErrForbidden)
	}
	return nil
}

// List returns every account ordered by id.
func (u *Users) List(ctx context.Context) ([]Identity, error) {
	if err := u.authorize(); err != nil {
		return nil, err
	}
	var out []Identity
	if err := u.transport.Do(ctx, Call{Method: http.MethodGet, Path: "/users"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one account.
func (u *Users) Get(ctx context.Context, id int64) (*Identity, error) {
	if err := u.authorize(); err != nil {
		return nil, err
	}
	var out Identity
	if err := u.transport.Do(ctx, Call{Method: http.MethodGet, Path: userPath(id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create adds an account without signing in as it.
func (u *Users) Create(ctx context.Context, in UserInput) (*Identity, error) {
	if err := u.authorize(); err != nil {
		return nil, err
	}
	if !strings.Contains(in.Email, "@") || in.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	if in.Role == "" {
		in.Role = RoleUser
	}
	if !in.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, in.Role)
	}

	var out Identity
	if err := u.transport.Do(ctx, Call{Method: http.MethodPost, Path: "/users", Body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update changes the fields set in patch. Editing the signed-in account
// refreshes the session's identity too.
func (u *Users) Update(ctx context.Context, id int64, patch UserPatch) (*Identity, error) {
	if err := u.authorize(); err != nil {
		return nil, err
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, *patch.Role)
	}

	var out Identity
	if err := u.transport.Do(ctx, Call{Method: http.MethodPatch, Path: userPath(id), Body: patch}, &out); err != nil {
		return nil, err
	}
	if self := u.transport.session.Identity(); self != nil && self.ID == id {
		if _, err := u.transport.session.Me(ctx); err != nil {
			return &out, fmt.Errorf("user %d updated but session identity not reloaded: %w", id, err)
		}
	}
	return &out, nil
}

// Delete removes an account. Its credentials stop working immediately.
func (u *Users) Delete(ctx context.Context, id int64) error {
	if err := u.authorize(); err != nil {
		return err
	}
	return u.transport.Do(ctx, Call{Method: http.MethodDelete, Path: userPath(id)}, nil)
}
