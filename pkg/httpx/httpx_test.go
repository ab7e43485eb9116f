package httpx_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/storefront/pkg/httpx"
	"github.com/aussiebroadwan/storefront/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestMessagesUnmarshal(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
		want httpx.Messages
	}{
		{"string", `{"message":"Invalid credentials"}`, httpx.Messages{"Invalid credentials"}},
		{"list", `{"message":["email must be an email","password too short"]}`, httpx.Messages{"email must be an email", "password too short"}},
		{"null", `{"message":null}`, nil},
		{"missing", `{}`, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var eb httpx.ErrorBody
			require.NoError(t, json.Unmarshal([]byte(tc.body), &eb))
			require.Equal(t, tc.want, eb.Message)
		})
	}

	t.Run("joined", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, "a; b", httpx.Messages{"a", "b"}.String())
	})

	t.Run("wrong type", func(t *testing.T) {
		t.Parallel()
		var eb httpx.ErrorBody
		require.Error(t, json.Unmarshal([]byte(`{"message":42}`), &eb))
	})
}

func TestDecodeData(t *testing.T) {
	t.Parallel()

	type item struct {
		ID int `json:"id"`
	}

	t.Run("envelope", func(t *testing.T) {
		t.Parallel()
		var got item
		require.NoError(t, httpx.DecodeData([]byte(`{"success":true,"timestamp":"2024-01-01T00:00:00Z","data":{"id":3}}`), &got))
		require.Equal(t, 3, got.ID)
	})

	t.Run("bare", func(t *testing.T) {
		t.Parallel()
		var got item
		require.NoError(t, httpx.DecodeData([]byte(`{"id":4}`), &got))
		require.Equal(t, 4, got.ID)
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()
		got := item{ID: 9}
		require.NoError(t, httpx.DecodeData([]byte("  "), &got))
		require.Equal(t, 9, got.ID)
	})

	t.Run("nil out", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, httpx.DecodeData([]byte(`{"id":1}`), nil))
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()
		var got item
		require.Error(t, httpx.DecodeData([]byte(`<html>`), &got))
	})
}

func TestWriteDataRoundTrip(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	httpx.WriteData(rec, http.StatusCreated, map[string]int{"id": 12})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got map[string]int
	require.NoError(t, httpx.DecodeData(rec.Body.Bytes(), &got))
	require.Equal(t, 12, got["id"])
}

func TestWriteError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	httpx.WriteError(rec, http.StatusConflict, "email already registered")

	var eb httpx.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &eb))
	require.Equal(t, http.StatusConflict, eb.StatusCode)
	require.Equal(t, httpx.Messages{"email already registered"}, eb.Message)
	require.Equal(t, "Conflict", eb.Error)
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer  abc ", "abc", true},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := httpx.BearerToken(tc.header)
		require.Equal(t, tc.ok, ok, tc.header)
		require.Equal(t, tc.want, got, tc.header)
	}
}

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	signer, err := jwtx.NewHS256([]byte("secret"), "storefront")
	require.NoError(t, err)

	sign := func(t *testing.T, role string, ttl time.Duration) string {
		t.Helper()
		tok, err := signer.Sign(jwtx.NewAccessClaims("5", "s@example.com", role, "storefront", ttl, time.Now()))
		require.NoError(t, err)
		return tok
	}

	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := httpx.ClaimsFromContext(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusInternalServerError, "no claims")
			return
		}
		httpx.WriteData(w, http.StatusOK, map[string]string{"sub": c.Subject})
	}), httpx.AuthnMiddleware(signer), httpx.RequireRole("seller", "admin"))

	serve := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("missing token", func(t *testing.T) {
		t.Parallel()
		rec := serve("")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()
		rec := serve("Bearer " + sign(t, "admin", -time.Minute))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong role", func(t *testing.T) {
		t.Parallel()
		rec := serve("Bearer " + sign(t, "user", time.Minute))
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admitted", func(t *testing.T) {
		t.Parallel()
		rec := serve("Bearer " + sign(t, "seller", time.Minute))
		require.Equal(t, http.StatusOK, rec.Code)

		var got map[string]string
		require.NoError(t, httpx.DecodeData(rec.Body.Bytes(), &got))
		require.Equal(t, "5", got["sub"])
	})
}

func TestRateLimit(t *testing.T) {
	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("RATELIMIT_TEST_REQUESTS", "120")
		t.Setenv("RATELIMIT_TEST_WINDOW_SEC", "30")
		t.Setenv("RATELIMIT_TEST_BURST", "nope")

		got := httpx.ParseRateLimitFromEnv("TEST", httpx.APILimit)
		require.Equal(t, 120, got.RequestsPerWindow)
		require.Equal(t, 30*time.Second, got.Window)
		require.Equal(t, httpx.APILimit.Burst, got.Burst)
	})

	t.Run("limiter", func(t *testing.T) {
		l := httpx.NewLimiter(httpx.RateLimitConfig{RequestsPerWindow: 60, Window: time.Minute, Burst: 2})
		require.InDelta(t, 1.0, float64(l.Limit()), 1e-9)
		require.Equal(t, 2, l.Burst())
		require.True(t, l.Allow())
		require.True(t, l.Allow())
		require.False(t, l.Allow())
	})

	t.Run("zero config is unlimited", func(t *testing.T) {
		l := httpx.NewLimiter(httpx.RateLimitConfig{})
		for range 100 {
			require.True(t, l.Allow())
		}
	})
}
