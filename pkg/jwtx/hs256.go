package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrRevoked     = errors.New("jwtx: token revoked")
)

// Signer is anything that can sign storefront claims.
type Signer interface {
	Sign(Claims) (string, error)
}

// Verifier validates a token and returns its claims.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// HS256 signs and verifies tokens with a shared secret. The fake API is the
// only party holding the key, so a symmetric algorithm is enough.
type HS256 struct {
	key    []byte
	issuer string

	// Now is the verification clock; nil means time.Now.
	Now func() time.Time
}

// NewHS256 creates an HS256 signer/verifier. The key must not be empty.
func NewHS256(key []byte, issuer string) (*HS256, error) {
	if len(key) == 0 {
		return nil, errors.New("jwtx: empty HS256 key")
	}
	return &HS256{key: key, issuer: issuer}, nil
}

func (h *HS256) Sign(c Claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	s, err := tok.SignedString(h.key)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return s, nil
}

func (h *HS256) Verify(tokenStr string) (Claims, error) {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}

	claims, err := h.VerifySignature(tokenStr)
	if err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiryWithLeeway(now(), 0); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

// VerifySignature checks the signature and issuer but not the validity
// window, so an expired token can still be exchanged for a new one.
func (h *HS256) VerifySignature(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return h.key, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if h.issuer != "" && claims.Issuer != h.issuer {
		return Claims{}, fmt.Errorf("jwtx: issuer mismatch %q", claims.Issuer)
	}
	return claims, nil
}
