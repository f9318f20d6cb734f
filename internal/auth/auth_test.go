package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safar/go-shop/internal/config"
)

func newTokens(t *testing.T, secret string) *Tokens {
	t.Helper()
	tokens, err := NewTokens(config.AuthConfig{JWTSecret: secret, Issuer: "go-shop", TokenTTL: time.Hour})
	require.NoError(t, err)
	return tokens
}

func TestIssueAndVerify(t *testing.T) {
	tokens := newTokens(t, "secret")

	raw, err := tokens.Issue(7, "Ann")
	require.NoError(t, err)

	id, err := tokens.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: 7, Name: "Ann"}, id)
}

func TestNewTokensRequiresSecret(t *testing.T) {
	_, err := NewTokens(config.AuthConfig{TokenTTL: time.Hour})
	assert.Error(t, err)
}

func TestVerifyRejects(t *testing.T) {
	tokens := newTokens(t, "secret")

	expired := newTokens(t, "secret")
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredRaw, err := expired.Issue(1, "A")
	require.NoError(t, err)

	otherRaw, err := newTokens(t, "other").Issue(1, "A")
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "go-shop",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	noneRaw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "go-shop",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID:           1,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "go-shop"},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":      "not.a.token",
		"expired":      expiredRaw,
		"other secret": otherRaw,
		"alg none":     noneRaw,
		"alg HS512":    hs512,
		"no expiry":    noExp,
		"wrong issuer": wrongIssuer,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := tokens.Verify(raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestRequire(t *testing.T) {
	tokens := newTokens(t, "secret")
	raw, err := tokens.Issue(42, "Bob")
	require.NoError(t, err)

	var seen Identity
	handler := Require(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		require.True(t, ok)
		seen = id
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + raw, http.StatusNoContent},
		{"lowercase scheme", "bearer " + raw, http.StatusNoContent},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + raw, http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"tampered", "Bearer " + raw + "x", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
			}
		})
	}

	assert.Equal(t, Identity{UserID: 42, Name: "Bob"}, seen)
}
