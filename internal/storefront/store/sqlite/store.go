package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/storefront/pkg/cryptox"
	_ "modernc.org/sqlite"
)

// DefaultSlot is the slot the credential is kept under.
const DefaultSlot = "token"

// Store keeps the session credential in a SQLite database so it survives
// process restarts. It satisfies shopsdk.TokenStore.
type Store struct {
	db     *sql.DB
	dsn    string
	slot   string
	sealer *cryptox.Sealer
}

// Option configures a Store.
type Option func(*Store)

// WithSlot stores the credential under slot instead of DefaultSlot.
func WithSlot(slot string) Option {
	return func(s *Store) {
		if slot != "" {
			s.slot = slot
		}
	}
}

// WithSealer encrypts the credential at rest.
func WithSealer(sealer *cryptox.Sealer) Option {
	return func(s *Store) { s.sealer = sealer }
}

func NewStore(dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// A single writer avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, dsn: dsn, slot: DefaultSlot}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Get returns the stored credential, or "" when the slot is empty.
func (s *Store) Get(ctx context.Context) (string, error) {
	var (
		value  []byte
		sealed bool
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, sealed FROM credentials WHERE slot = ?`, s.slot,
	).Scan(&value, &sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read credential: %w", err)
	}

	if !sealed {
		return string(value), nil
	}
	if s.sealer == nil {
		return "", fmt.Errorf("credential in slot %q is sealed but no secret is configured", s.slot)
	}
	plain, err := s.sealer.Open(value)
	if err != nil {
		return "", fmt.Errorf("unseal credential: %w", err)
	}
	return string(plain), nil
}

// Set replaces the stored credential.
func (s *Store) Set(ctx context.Context, credential string) error {
	value := []byte(credential)
	sealed := false
	if s.sealer != nil {
		var err error
		if value, err = s.sealer.Seal(value); err != nil {
			return fmt.Errorf("seal credential: %w", err)
		}
		sealed = true
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (slot, value, sealed, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(slot) DO UPDATE SET
			value = excluded.value,
			sealed = excluded.sealed,
			updated_at = excluded.updated_at`,
		s.slot, value, sealed,
	)
	if err != nil {
		return fmt.Errorf("write credential: %w", err)
	}
	return nil
}

// Clear empties the slot. Clearing an empty slot is not an error.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE slot = ?`, s.slot); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}
