package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/storefront/pkg/cryptox"
	"github.com/aussiebroadwan/storefront/pkg/httpx"
	"github.com/aussiebroadwan/storefront/pkg/jwtx"
	"github.com/aussiebroadwan/storefront/pkg/slogx"
)

const minPasswordLength = 6

// AddUser creates an account directly, bypassing registration.
func (s *Server) AddUser(email, password, name, role string) (int64, error) {
	if !validRole(role) {
		return 0, fmt.Errorf("unknown role %q", role)
	}
	hash, err := cryptox.HashPassword(password, s.cfg.PasswordParams)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(email, hash, name, role)
}

func (s *Server) addUserLocked(email, hash, name, role string) (int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, ok := s.byEmail[email]; ok {
		return 0, fmt.Errorf("email %q already registered", email)
	}
	u := &user{
		ID:           s.nextIDLocked("user"),
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: hash,
	}
	s.users[u.ID] = u
	s.byEmail[email] = u.ID
	return u.ID, nil
}

// ExpireCredentials makes every issued access token fail authentication. The
// tokens can still be exchanged once at POST /auth/refresh.
func (s *Server) ExpireCredentials() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.tokens {
		st.expired = true
	}
}

// RevokeCredentials forgets every issued token, so neither requests nor
// refreshes with them succeed.
func (s *Server) RevokeCredentials() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.tokens)
}

// Token issues an access token for an existing user.
func (s *Server) Token(userID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return "", fmt.Errorf("no user %d", userID)
	}
	return s.issueLocked(u)
}

func (s *Server) issueLocked(u *user) (string, error) {
	claims := jwtx.NewAccessClaims(
		strconv.FormatInt(u.ID, 10), u.Email, u.Role,
		s.cfg.Issuer, s.cfg.TokenTTL, s.now(),
	)
	tok, err := s.jwt.Sign(claims)
	if err != nil {
		return "", err
	}
	s.tokens[claims.ID] = &tokenState{userID: u.ID}
	return tok, nil
}

// liveVerifier accepts signed, unexpired tokens that have not been
// exchanged, expired by a fault knob or revoked.
type liveVerifier struct{ s *Server }

func (v liveVerifier) Verify(tok string) (jwtx.Claims, error) {
	claims, err := v.s.jwt.Verify(tok)
	if err != nil {
		return jwtx.Claims{}, err
	}

	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	st, ok := v.s.tokens[claims.ID]
	if !ok {
		return jwtx.Claims{}, jwtx.ErrRevoked
	}
	if st.expired {
		return jwtx.Claims{}, jwtx.ErrExpired
	}
	return claims, nil
}

// currentUser resolves the authenticated caller. It must run behind
// AuthnMiddleware.
func (s *Server) currentUserLocked(r *http.Request) (*user, bool) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		return nil, false
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, false
	}
	u, ok := s.users[id]
	return u, ok
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		httpx.WriteError(w, http.StatusBadRequest, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

type authView struct {
	AccessToken string   `json:"access_token,omitempty"`
	Token       string   `json:"token,omitempty"`
	User        userView `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	s.mu.Lock()
	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(req.Email))]
	var u *user
	if ok {
		u = s.users[id]
	}
	s.mu.Unlock()

	// Hashing happens outside the lock.
	if u == nil || cryptox.VerifyPassword(req.Password, u.PasswordHash) != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	s.mu.Lock()
	tok, err := s.issueLocked(u)
	view := u.view()
	s.mu.Unlock()
	if err != nil {
		slogx.FromContext(r.Context()).Error("failed to issue token", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	httpx.WriteData(w, http.StatusOK, authView{AccessToken: tok, User: view})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var problems []string
	if !strings.Contains(req.Email, "@") {
		problems = append(problems, "email must be an email")
	}
	if len(req.Password) < minPasswordLength {
		problems = append(problems, fmt.Sprintf("password must be longer than or equal to %d characters", minPasswordLength))
	}
	if strings.TrimSpace(req.Name) == "" {
		problems = append(problems, "name should not be empty")
	}
	if len(problems) > 0 {
		httpx.WriteError(w, http.StatusBadRequest, problems...)
		return
	}

	hash, err := cryptox.HashPassword(req.Password, s.cfg.PasswordParams)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.addUserLocked(req.Email, hash, req.Name, roleUser)
	if err != nil {
		httpx.WriteError(w, http.StatusConflict, "Email already registered")
		return
	}
	u := s.users[id]
	tok, err := s.issueLocked(u)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	httpx.WriteData(w, http.StatusCreated, authView{AccessToken: tok, User: u.view()})
}

// handleRefresh exchanges a signed token that has not been exchanged before
// for a fresh one. Expiry is ignored; the old token is retired.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	raw, ok := httpx.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	claims, err := s.jwt.VerifySignature(raw)
	if err != nil {
		log.Debug("refresh with bad token", "err", err)
		httpx.WriteError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.tokens[claims.ID]
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "token already used or revoked")
		return
	}
	u, ok := s.users[st.userID]
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "user no longer exists")
		return
	}
	delete(s.tokens, claims.ID)

	tok, err := s.issueLocked(u)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	log.Debug("token refreshed", "user_id", u.ID)
	httpx.WriteData(w, http.StatusOK, authView{Token: tok, User: u.view()})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.currentUserLocked(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unknown user")
		return
	}
	httpx.WriteData(w, http.StatusOK, u.view())
}
