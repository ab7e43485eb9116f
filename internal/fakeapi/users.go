package fakeapi

import (
	"cmp"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/aussiebroadwan/storefront/pkg/cryptox"
	"github.com/aussiebroadwan/storefront/pkg/httpx"
	"github.com/aussiebroadwan/storefront/pkg/slogx"
)

type userInput struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Name     *string `json:"name"`
	Role     *string `json:"role"`
}

func (in userInput) problems(create bool) []string {
	var out []string
	if in.Email != nil || create {
		if in.Email == nil || !strings.Contains(*in.Email, "@") {
			out = append(out, "email must be an email")
		}
	}
	if in.Password != nil || create {
		if in.Password == nil || len(*in.Password) < minPasswordLength {
			out = append(out, fmt.Sprintf("password must be longer than or equal to %d characters", minPasswordLength))
		}
	}
	if in.Name != nil || create {
		if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
			out = append(out, "name should not be empty")
		}
	}
	if in.Role != nil && !validRole(*in.Role) {
		out = append(out, "role must be one of user, seller, admin, superadmin")
	}
	return out
}

// canManage reports whether actor may create, edit or delete an account
// holding role. Only a superadmin touches superadmins.
func canManage(actor *user, role string) bool {
	return role != roleSuperAdmin || actor.Role == roleSuperAdmin
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]userView, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.view())
	}
	slices.SortFunc(out, func(a, b userView) int { return cmp.Compare(a.ID, b.ID) })
	httpx.WriteData(w, http.StatusOK, out)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		httpx.WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	httpx.WriteData(w, http.StatusOK, u.view())
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in userInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.Role == nil {
		role := roleUser
		in.Role = &role
	}
	if problems := in.problems(true); len(problems) > 0 {
		httpx.WriteError(w, http.StatusBadRequest, problems...)
		return
	}

	hash, err := cryptox.HashPassword(*in.Password, s.cfg.PasswordParams)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	actor, _ := s.currentUserLocked(r)
	if actor == nil || !canManage(actor, *in.Role) {
		httpx.WriteError(w, http.StatusForbidden, "only a superadmin can create superadmins")
		return
	}
	id, err := s.addUserLocked(*in.Email, hash, strings.TrimSpace(*in.Name), *in.Role)
	if err != nil {
		httpx.WriteError(w, http.StatusConflict, "Email already registered")
		return
	}
	slogx.FromContext(r.Context()).Info("user created", "user_id", id, "by", actor.ID)
	httpx.WriteData(w, http.StatusCreated, s.users[id].view())
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in userInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if problems := in.problems(false); len(problems) > 0 {
		httpx.WriteError(w, http.StatusBadRequest, problems...)
		return
	}

	var hash string
	if in.Password != nil {
		h, err := cryptox.HashPassword(*in.Password, s.cfg.PasswordParams)
		if err != nil {
			httpx.WriteError(w, http.StatusInternalServerError, "failed to hash password")
			return
		}
		hash = h
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		httpx.WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	actor, _ := s.currentUserLocked(r)
	if actor == nil || !canManage(actor, u.Role) || (in.Role != nil && !canManage(actor, *in.Role)) {
		httpx.WriteError(w, http.StatusForbidden, "only a superadmin can manage superadmins")
		return
	}

	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if other, taken := s.byEmail[email]; taken && other != u.ID {
			httpx.WriteError(w, http.StatusConflict, "Email already registered")
			return
		}
		delete(s.byEmail, u.Email)
		u.Email = email
		s.byEmail[email] = u.ID
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Role != nil {
		u.Role = *in.Role
	}
	if hash != "" {
		u.PasswordHash = hash
	}
	httpx.WriteData(w, http.StatusOK, u.view())
}

// handleDeleteUser removes the account, its cart and its live tokens. Orders
// are kept for the record.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		httpx.WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	actor, _ := s.currentUserLocked(r)
	if actor == nil || !canManage(actor, u.Role) {
		httpx.WriteError(w, http.StatusForbidden, "only a superadmin can delete superadmins")
		return
	}
	if actor.ID == u.ID {
		httpx.WriteError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	delete(s.users, id)
	delete(s.byEmail, u.Email)
	delete(s.carts, id)
	for jti, st := range s.tokens {
		if st.userID == id {
			delete(s.tokens, jti)
		}
	}
	slogx.FromContext(r.Context()).Info("user deleted", "user_id", id, "by", actor.ID)
	w.WriteHeader(http.StatusNoContent)
}
