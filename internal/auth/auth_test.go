package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken("user-1", "t-1", "", testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "t-1", claims.TenantID)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestValidateToken_Rejects(t *testing.T) {
	expired, err := GenerateToken("user-1", "t-1", "", testSecret, -time.Minute)
	require.NoError(t, err)

	wrongSecret, err := GenerateToken("user-1", "t-1", "", "other", time.Hour)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{TenantID: "t-1"}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":      expired,
		"wrong secret": wrongSecret,
		"no expiry":    noExpiry,
		"garbage":      "not.a.jwt",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ValidateToken(token, testSecret)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestSessionVerifier(t *testing.T) {
	token, err := GenerateToken("user-1", "t-1", "", testSecret, time.Hour)
	require.NoError(t, err)
	v := NewSessionVerifier("__session")

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: "__session", Value: token})

		claims, err := v.Verify(req, testSecret)
		require.NoError(t, err)
		assert.Equal(t, "t-1", claims.TenantID)
	})

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		claims, err := v.Verify(req, testSecret)
		require.NoError(t, err)
		assert.Equal(t, "t-1", claims.TenantID)
	})

	t.Run("missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.Header.Set("Authorization", "Basic abc")

		_, err := v.Verify(req, testSecret)
		assert.ErrorIs(t, err, ErrNoToken)
	})

	t.Run("invalid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: "__session", Value: "junk"})

		_, err := v.Verify(req, testSecret)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestMiddleware_Authenticate(t *testing.T) {
	adminToken, err := GenerateToken("ops", "", RoleAdmin, testSecret, time.Hour)
	require.NoError(t, err)
	userToken, err := GenerateToken("user-1", "t-1", "", testSecret, time.Hour)
	require.NoError(t, err)

	var seen *Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{"admin", testSecret, "Bearer " + adminToken, http.StatusOK},
		{"non-admin", testSecret, "Bearer " + userToken, http.StatusForbidden},
		{"missing header", testSecret, "", http.StatusUnauthorized},
		{"bad token", testSecret, "Bearer junk", http.StatusUnauthorized},
		{"no secret configured", "", "Bearer " + adminToken, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/tenants/subdomain/shop1", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			NewMiddleware(tt.secret).Authenticate(next).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	require.NotNil(t, seen)
	assert.Equal(t, RoleAdmin, seen.Role)
}
