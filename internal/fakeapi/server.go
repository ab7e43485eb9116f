package fakeapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aussiebroadwan/storefront/pkg/cryptox"
	"github.com/aussiebroadwan/storefront/pkg/httpx"
	"github.com/aussiebroadwan/storefront/pkg/jwtx"
	"github.com/aussiebroadwan/storefront/pkg/slogx"
)

// Config controls a Server. The zero value is usable.
type Config struct {
	// Issuer is the iss claim of issued tokens.
	Issuer string

	// Key signs access tokens. A random key is generated when empty.
	Key []byte

	// TokenTTL is the access-token lifetime.
	TokenTTL time.Duration

	// PasswordParams are the Argon2id costs for stored passwords. Tests
	// lower them to keep hashing fast.
	PasswordParams cryptox.Params

	Logger *slog.Logger

	// Now is the server clock; nil means time.Now.
	Now func() time.Time
}

// Server is an in-memory storefront API: auth, users, catalog, cart and orders,
// plus fault injection for exercising clients.
type Server struct {
	cfg Config
	jwt *jwtx.HS256
	log *slog.Logger
	mux *http.ServeMux

	handler http.Handler

	mu       sync.Mutex
	users    map[int64]*user
	byEmail  map[string]int64
	tokens   map[string]*tokenState
	products []*product
	carts    map[int64][]cartItem
	orders   []*order
	lastID   map[string]int64

	faults *faults
}

// New creates a Server with no users and no products.
func New(cfg Config) (*Server, error) {
	if cfg.Issuer == "" {
		cfg.Issuer = "storefront-fake"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = jwtx.DefaultAccessTokenTTL
	}
	if cfg.PasswordParams == (cryptox.Params{}) {
		cfg.PasswordParams = cryptox.DefaultParams
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if len(cfg.Key) == 0 {
		key, err := cryptox.GenerateToken(32)
		if err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
		cfg.Key = []byte(key)
	}

	signer, err := jwtx.NewHS256(cfg.Key, cfg.Issuer)
	if err != nil {
		return nil, err
	}
	signer.Now = cfg.Now

	s := &Server{
		cfg:     cfg,
		jwt:     signer,
		log:     cfg.Logger.With("component", "fakeapi"),
		mux:     http.NewServeMux(),
		users:   make(map[int64]*user),
		byEmail: make(map[string]int64),
		tokens:  make(map[string]*tokenState),
		carts:   make(map[int64][]cartItem),
		lastID:  make(map[string]int64),
		faults:  newFaults(),
	}
	s.routes()
	s.handler = httpx.Chain(s.mux, slogx.HTTPMiddleware(s.log))
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	authn := httpx.AuthnMiddleware(liveVerifier{s})
	staff := httpx.RequireRole(roleSeller, roleAdmin, roleSuperAdmin)
	admins := httpx.RequireRole(roleAdmin, roleSuperAdmin)

	s.handle("POST /auth/login", s.handleLogin)
	s.handle("POST /auth/register", s.handleRegister)
	s.handle("POST /auth/refresh", s.handleRefresh)
	s.handle("GET /auth/me", s.handleMe, authn)

	s.handle("GET /users", s.handleListUsers, authn, admins)
	s.handle("GET /users/{id}", s.handleGetUser, authn, admins)
	s.handle("POST /users", s.handleCreateUser, authn, admins)
	s.handle("PATCH /users/{id}", s.handleUpdateUser, authn, admins)
	s.handle("DELETE /users/{id}", s.handleDeleteUser, authn, admins)

	s.handle("GET /products", s.handleListProducts)
	s.handle("GET /products/{id}", s.handleGetProduct)
	s.handle("POST /products", s.handleCreateProduct, authn, staff)
	s.handle("PATCH /products/{id}", s.handleUpdateProduct, authn, staff)
	s.handle("DELETE /products/{id}", s.handleDeleteProduct, authn, staff)

	s.handle("GET /cart", s.handleGetCart, authn)
	s.handle("POST /cart/items", s.handleAddCartItem, authn)
	s.handle("PATCH /cart/items/{productId}", s.handleUpdateCartItem, authn)
	s.handle("DELETE /cart/items/{productId}", s.handleRemoveCartItem, authn)
	s.handle("DELETE /cart", s.handleClearCart, authn)

	s.handle("GET /orders", s.handleListOrders, authn)
	s.handle("GET /orders/{id}", s.handleGetOrder, authn)
	s.handle("POST /orders", s.handleCreateOrder, authn)
	s.handle("PATCH /orders/{id}", s.handleUpdateOrder, authn, staff)

	s.mux.HandleFunc("GET /livez", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// handle registers h under route. Fault injection and call counting run
// before authentication so that every request to the route is seen.
func (s *Server) handle(route string, h http.HandlerFunc, mws ...httpx.Middleware) {
	chain := append([]httpx.Middleware{s.faults.middleware(route)}, mws...)
	s.mux.Handle(route, httpx.Chain(h, chain...))
}

// nextIDLocked returns the next identifier of kind, starting at 1.
func (s *Server) nextIDLocked(kind string) int64 {
	s.lastID[kind]++
	return s.lastID[kind]
}

func (s *Server) now() time.Time { return s.cfg.Now() }
