package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
)

const secret = "test-secret"

func sign(t *testing.T, key string, claims Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func validClaims() Claims {
	return Claims{
		Email: "ada@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestNewVerifierNeedsMode(t *testing.T) {
	_, err := NewVerifier("", false)
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	v, err := NewVerifier(secret, false)
	require.NoError(t, err)

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil
	noSubject := validClaims()
	noSubject.Subject = ""

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{"valid", sign(t, secret, validClaims()), false},
		{"wrong key", sign(t, "other", validClaims()), true},
		{"expired", sign(t, secret, expired), true},
		{"no expiry", sign(t, secret, noExpiry), true},
		{"no subject", sign(t, secret, noSubject), true},
		{"garbage", "not.a.token", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := v.Verify(tt.token)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrUnauthenticated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Identity{Subject: "u1", Email: "ada@example.com"}, id)
		})
	}
}

func TestVerifyTrustUpstream(t *testing.T) {
	v, err := NewVerifier("", true)
	require.NoError(t, err)

	id, err := v.Verify(sign(t, "whatever-the-gateway-used", validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "u1", id.Subject)
}

func TestMiddleware(t *testing.T) {
	v, err := NewVerifier(secret, false)
	require.NoError(t, err)

	var got Identity
	h := v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/graphql", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "UNAUTHENTICATED")

	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, secret, validClaims()))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "u1", got.Subject)
}

func TestRequireSubject(t *testing.T) {
	_, err := RequireSubject(context.Background(), "u1")
	assert.ErrorIs(t, err, core.ErrUnauthenticated)

	ctx := WithIdentity(context.Background(), Identity{Subject: "u1"})
	_, err = RequireSubject(ctx, "u1")
	assert.NoError(t, err)
	_, err = RequireSubject(ctx, "u2")
	assert.ErrorIs(t, err, core.ErrForbidden)
}
