package shopsdk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aussiebroadwan/storefront/pkg/jwtx"
	"golang.org/x/sync/singleflight"
)

// State is the lifecycle state of a Session.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// RefreshState tracks the single in-flight credential renewal.
type RefreshState int

const (
	RefreshIdle RefreshState = iota
	RefreshInFlight
	RefreshFailed
)

func (r RefreshState) String() string {
	switch r {
	case RefreshIdle:
		return "idle"
	case RefreshInFlight:
		return "refreshing"
	case RefreshFailed:
		return "failed"
	default:
		return fmt.Sprintf("RefreshState(%d)", int(r))
	}
}

// SessionState is a read-only view of a Session.
type SessionState struct {
	State    State
	Identity *Identity
	Refresh  RefreshState

	// ExpiresAt is the credential's exp claim when it is a JWT, else zero.
	ExpiresAt time.Time
}

// Session owns the current identity and credential. It is the only writer of
// its TokenStore: every successful login or refresh is persisted before the
// call returns, every transition to anonymous clears the store.
type Session struct {
	client *SDKClient
	store  TokenStore
	log    *slog.Logger

	// RefreshSkew makes the Transport renew a JWT credential this long before
	// its exp claim instead of waiting for a 401. Negative disables it. Set it
	// before the session is shared.
	RefreshSkew time.Duration

	now func() time.Time

	mu         sync.RWMutex
	state      State
	credential string
	identity   *Identity
	refresh    RefreshState

	// generation changes on login, register and logout so that results of
	// requests started before them are discarded.
	generation uint64

	// Outcome of the last completed refresh: the credential it replaced and
	// the error it ended with, if any.
	refreshedFrom string
	refreshErr    error

	flight singleflight.Group
}

// NewSession creates an anonymous session. Call Restore to pick up a
// persisted credential.
func NewSession(client *SDKClient, store TokenStore) *Session {
	logger := client.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		client: client,
		store:  store,
		log:    logger.With("component", "session"),
		now:    time.Now,
	}
}

// ============================================================================
// Accessors
// ============================================================================

// Credential returns the current bearer credential, or "" when anonymous.
func (s *Session) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// Identity returns a copy of the current identity, or nil when anonymous.
func (s *Session) Identity() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneIdentity(s.identity)
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Authenticated reports whether a credential is currently held.
func (s *Session) Authenticated() bool {
	return s.Credential() != ""
}

// Snapshot returns a consistent read-only view of the session.
func (s *Session) Snapshot() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := SessionState{
		State:    s.state,
		Identity: cloneIdentity(s.identity),
		Refresh:  s.refresh,
	}
	if exp, ok := jwtx.ExpiryOf(s.credential); ok {
		st.ExpiresAt = exp
	}
	return st
}

// Authorize runs the access gate against the current identity.
func (s *Session) Authorize(required ...Role) Decision {
	return Gate(s.Identity(), required...)
}

func cloneIdentity(id *Identity) *Identity {
	if id == nil {
		return nil
	}
	cp := *id
	return &cp
}

// ============================================================================
// Transitions
// ============================================================================

// Login exchanges email and password for a credential. On failure the session
// is anonymous and nothing is retained.
func (s *Session) Login(ctx context.Context, email, password string) (*Identity, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	return s.authenticate(ctx, "login", Call{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   loginRequest{Email: email, Password: password},
		Public: true,
	})
}

// Register creates an account and signs it in.
func (s *Session) Register(ctx context.Context, req RegisterRequest) (*Identity, error) {
	if req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	return s.authenticate(ctx, "register", Call{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Body:   req,
		Public: true,
	})
}

func (s *Session) authenticate(ctx context.Context, op string, call Call) (*Identity, error) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.state = StateAuthenticating
	s.credential = ""
	s.identity = nil
	s.refresh = RefreshIdle
	s.refreshedFrom, s.refreshErr = "", nil
	s.mu.Unlock()

	var resp authResponse
	err := s.client.do(ctx, call, "", &resp)
	if err == nil {
		err = resp.validate()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		s.log.Info("discarding superseded "+op, "err", err)
		return nil, ErrSessionChanged
	}

	if err == nil {
		if perr := s.store.Set(ctx, resp.credential()); perr != nil {
			err = fmt.Errorf("%w: persist credential: %w", ErrPersist, perr)
		}
	}
	if err != nil {
		s.log.Warn(op+" failed", "err", err)
		if cerr := s.toAnonymousLocked(ctx); cerr != nil {
			err = errors.Join(err, cerr)
		}
		return nil, err
	}

	s.credential = resp.credential()
	s.identity = cloneIdentity(resp.User)
	s.state = StateAuthenticated
	s.log.Info(op+" succeeded", "user_id", resp.User.ID, "role", resp.User.Role)

	return cloneIdentity(s.identity), nil
}

// Logout drops the identity and clears the persisted credential. It is safe
// to call in any state, any number of times.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.refresh = RefreshIdle
	s.refreshedFrom, s.refreshErr = "", nil

	if s.state != StateAnonymous {
		s.log.Info("logout")
	}
	return s.toAnonymousLocked(ctx)
}

// Refresh rotates the credential. Concurrent callers share one network call
// and its outcome. On failure the session becomes anonymous and the error
// matches ErrRefreshFailed.
func (s *Session) Refresh(ctx context.Context) (*Identity, error) {
	if _, err := s.refreshShared(ctx, "", ""); err != nil {
		return nil, err
	}
	return s.Identity(), nil
}

// Restore recovers the session from the persisted credential, refreshing it
// to learn the identity. With nothing persisted the session stays anonymous
// and Restore returns (nil, nil).
func (s *Session) Restore(ctx context.Context) (*Identity, error) {
	seed, err := s.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("read persisted credential: %w", err)
	}
	if seed == "" {
		return nil, nil
	}

	s.log.Debug("restoring persisted credential")
	if _, err := s.refreshShared(ctx, seed, ""); err != nil {
		return nil, err
	}
	return s.Identity(), nil
}

// Me asks the API who the current credential belongs to and adopts the
// answer as the identity, picking up role or name changes made elsewhere.
// The credential is only rotated if the server reports it expired.
func (s *Session) Me(ctx context.Context) (*Identity, error) {
	s.mu.RLock()
	gen, anonymous := s.generation, s.credential == ""
	s.mu.RUnlock()
	if anonymous {
		return nil, fmt.Errorf("%w: not signed in", ErrAuthentication)
	}

	var id Identity
	t := &Transport{client: s.client, session: s}
	if err := t.Do(ctx, Call{Method: http.MethodGet, Path: "/auth/me"}, &id); err != nil {
		return nil, err
	}
	if id.ID == 0 || !id.Role.Valid() {
		return nil, fmt.Errorf("%w: malformed identity in /auth/me response", ErrServer)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen || s.credential == "" {
		return nil, ErrSessionChanged
	}
	s.identity = cloneIdentity(&id)
	return cloneIdentity(s.identity), nil
}

// toAnonymousLocked clears identity, credential and the persisted copy.
func (s *Session) toAnonymousLocked(ctx context.Context) error {
	s.credential = ""
	s.identity = nil
	s.state = StateAnonymous

	if err := s.store.Clear(ctx); err != nil {
		s.log.Warn("failed to clear persisted credential", "err", err)
		return fmt.Errorf("%w: clear persisted credential: %w", ErrPersist, err)
	}
	return nil
}

// ============================================================================
// Refresh plumbing used by the Transport
// ============================================================================

// credentialFor returns the credential to attach to a new request, renewing
// it first when it is a JWT inside the RefreshSkew window.
func (s *Session) credentialFor(ctx context.Context) (string, error) {
	cred := s.Credential()
	if cred == "" || s.RefreshSkew < 0 {
		return cred, nil
	}

	exp, ok := jwtx.ExpiryOf(cred)
	if !ok || s.now().Add(s.RefreshSkew).Before(exp) {
		return cred, nil
	}

	s.log.Debug("credential about to expire, refreshing before use", "expires_at", exp)
	return s.refreshFor(ctx, cred)
}

// refreshFor is called after a request sent with used was rejected. When the
// credential has already moved on since then, no new refresh is issued: the
// caller gets the current credential, or the error the refresh that consumed
// used ended with.
func (s *Session) refreshFor(ctx context.Context, used string) (string, error) {
	s.mu.RLock()
	cur, from, ferr := s.credential, s.refreshedFrom, s.refreshErr
	s.mu.RUnlock()

	if cur != "" && cur != used {
		return cur, nil
	}
	if ferr != nil && from == used {
		return "", ferr
	}
	return s.refreshShared(ctx, "", used)
}

// refreshShared joins the in-flight refresh or starts one. The refresh itself
// runs detached from ctx so one caller giving up does not fail the others;
// the HTTP client timeout still bounds it.
func (s *Session) refreshShared(ctx context.Context, seed, used string) (string, error) {
	ch := s.flight.DoChan("refresh", func() (any, error) {
		return s.doRefresh(context.WithoutCancel(ctx), seed, used)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// doRefresh performs the refresh request. When used is set and a refresh
// that replaced it completed after the caller looked, that outcome is
// returned instead.
func (s *Session) doRefresh(ctx context.Context, seed, used string) (string, error) {
	s.mu.Lock()
	if used != "" {
		if cur := s.credential; cur != "" && cur != used {
			s.mu.Unlock()
			return cur, nil
		}
		if ferr := s.refreshErr; ferr != nil && s.refreshedFrom == used {
			s.mu.Unlock()
			return "", ferr
		}
	}
	gen := s.generation
	before := s.credential
	from := before
	if seed != "" {
		from = seed
	}
	s.state = StateRefreshing
	s.refresh = RefreshInFlight
	s.mu.Unlock()

	var resp authResponse
	err := s.client.do(ctx, Call{Method: http.MethodPost, Path: "/auth/refresh"}, from, &resp)
	if err == nil {
		err = resp.validate()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen || s.credential != before {
		s.log.Info("discarding superseded refresh", "err", err)
		return "", ErrSessionChanged
	}

	if err == nil {
		if perr := s.store.Set(ctx, resp.credential()); perr != nil {
			err = fmt.Errorf("%w: persist credential: %w", ErrPersist, perr)
		}
	}

	s.refreshedFrom = from
	if err != nil {
		if !errors.Is(err, ErrRefreshFailed) {
			err = fmt.Errorf("%w: %w", ErrRefreshFailed, err)
		}
		s.log.Warn("refresh failed, session is now anonymous", "err", err)
		if cerr := s.toAnonymousLocked(ctx); cerr != nil {
			err = errors.Join(err, cerr)
		}
		s.refreshErr = err
		s.refresh = RefreshFailed
		return "", err
	}

	s.refreshErr = nil
	s.refresh = RefreshIdle
	s.credential = resp.credential()
	s.identity = cloneIdentity(resp.User)
	s.state = StateAuthenticated
	s.log.Debug("credential refreshed", "user_id", resp.User.ID)

	return s.credential, nil
}
