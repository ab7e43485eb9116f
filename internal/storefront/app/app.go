package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/storefront/internal/storefront/store/sqlite"
	"github.com/aussiebroadwan/storefront/pkg/cryptox"
	"github.com/aussiebroadwan/storefront/pkg/httpx"
	"github.com/aussiebroadwan/storefront/pkg/shopsdk"
	"github.com/aussiebroadwan/storefront/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application holds a fully wired storefront client.
type Application struct {
	cfg    Config
	logger *slog.Logger

	store   shopsdk.TokenStore
	closeDB func() error

	Client    *shopsdk.SDKClient
	Session   *shopsdk.Session
	Transport *shopsdk.Transport
	Cart      *shopsdk.Cart
	Catalog   *shopsdk.Catalog
	Orders    *shopsdk.Orders
	Users     *shopsdk.Users
}

// New builds the client stack described by cfg. The session starts
// anonymous; call Restore to resume a persisted one.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "storefront",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initTokenStore(); err != nil {
		return nil, err
	}
	app.initClient()

	return app, nil
}

// initTokenStore opens the SQLite credential store, or falls back to memory
// when no database file is configured.
func (app *Application) initTokenStore() error {
	if app.cfg.TokenDB == "" {
		app.store = shopsdk.NewMemoryTokenStore("")
		app.closeDB = func() error { return nil }
		return nil
	}

	opts := []sqlite.Option{sqlite.WithSlot(app.cfg.TokenSlot)}
	if app.cfg.TokenSecret != "" {
		sealer, err := cryptox.NewSealer([]byte(app.cfg.TokenSecret))
		if err != nil {
			return fmt.Errorf("failed to initialize credential sealing: %w", err)
		}
		opts = append(opts, sqlite.WithSealer(sealer))
	}

	host := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.TokenDB)
	db, err := sqlite.NewStore(host, opts...)
	if err != nil {
		return fmt.Errorf("failed to open token database: %w", err)
	}
	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.store = db
	app.closeDB = db.Close
	app.logger.Debug("token database ready", "path", app.cfg.TokenDB)
	return nil
}

func (app *Application) initClient() {
	app.Client = shopsdk.NewSDKClient(app.cfg.APIURL, app.logger)
	app.Client.HTTPClient.Timeout = app.cfg.Timeout
	app.Client.Limiter = httpx.NewLimiter(app.cfg.RateLimit)

	app.Session = shopsdk.NewSession(app.Client, app.store)
	app.Session.RefreshSkew = app.cfg.RefreshSkew

	app.Transport = shopsdk.NewTransport(app.Client, app.Session)
	app.Cart = shopsdk.NewCart(app.Transport)
	app.Catalog = shopsdk.NewCatalog(app.Transport, app.cfg.PageSize)
	app.Orders = shopsdk.NewOrders(app.Transport)
	app.Users = shopsdk.NewUsers(app.Transport)
}

// Logger returns the application logger.
func (app *Application) Logger() *slog.Logger { return app.logger }

// Restore resumes the persisted session, if any. A credential that can no
// longer be refreshed leaves the session anonymous without failing, unless
// the stale credential could not be removed from the store.
func (app *Application) Restore(ctx context.Context) (*shopsdk.Identity, error) {
	id, err := app.Session.Restore(ctx)
	if err != nil {
		app.logger.Info("persisted session could not be restored", "err", err)
		if errors.Is(err, shopsdk.ErrRefreshFailed) && !errors.Is(err, shopsdk.ErrPersist) {
			return nil, nil
		}
		return nil, err
	}
	return id, nil
}

// Close releases the token database.
func (app *Application) Close() error {
	if err := app.closeDB(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}
