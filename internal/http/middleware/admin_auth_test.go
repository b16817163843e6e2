package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, method jwt.SigningMethod, expiry time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(method, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(expiry),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func adminNext(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := AdminClaimsFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "admin", claims.Subject)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAdminJWTAcceptsValidToken(t *testing.T) {
	handler := AdminJWT("s3cret")(adminNext(t))

	req := httptest.NewRequest(http.MethodGet, "/admin/knowledge/stats", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "s3cret", jwt.SigningMethodHS256, time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminJWTRejections(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("handler must not run")
	})

	tests := []struct {
		name   string
		secret string
		header string
	}{
		{
			name:   "no secret configured",
			secret: "",
			header: "Bearer " + signToken(t, "s3cret", jwt.SigningMethodHS256, time.Now().Add(time.Hour)),
		},
		{
			name:   "missing header",
			secret: "s3cret",
			header: "",
		},
		{
			name:   "not a bearer token",
			secret: "s3cret",
			header: "Basic dXNlcjpwYXNz",
		},
		{
			name:   "wrong secret",
			secret: "s3cret",
			header: "Bearer " + signToken(t, "otro-secreto", jwt.SigningMethodHS256, time.Now().Add(time.Hour)),
		},
		{
			name:   "expired token",
			secret: "s3cret",
			header: "Bearer " + signToken(t, "s3cret", jwt.SigningMethodHS256, time.Now().Add(-time.Hour)),
		},
		{
			name:   "garbage token",
			secret: "s3cret",
			header: "Bearer not.a.jwt",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := AdminJWT(tc.secret)(next)
			req := httptest.NewRequest(http.MethodGet, "/admin/knowledge/stats", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAdminClaimsFromContextMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := AdminClaimsFromContext(req.Context())
	assert.False(t, ok)
}
