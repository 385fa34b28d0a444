package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/orderflow/pkg/auth"
	"github.com/angelmondragon/orderflow/pkg/config"
	"github.com/angelmondragon/orderflow/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testJWTConfig(), nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testJWTConfig(), nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
	require.Contains(t, resp.Body.String(), "UNAUTHORIZED")
}

func TestAuthRejectsTokenFromOtherIssuer(t *testing.T) {
	other := testJWTConfig()
	other.Issuer = "someone-else"
	token, err := auth.MintAccessToken(other, time.Now(), auth.Identity{UID: "vendor-1", Role: enums.ActorRoleVendor})
	require.NoError(t, err)

	handler := Auth(testJWTConfig(), nil)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthSeedsIdentity(t *testing.T) {
	token, err := auth.MintAccessToken(testJWTConfig(), time.Now(), auth.Identity{UID: "vendor-1", Role: enums.ActorRoleVendor})
	require.NoError(t, err)

	var seen auth.Identity
	handler := Auth(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "vendor-1", seen.UID)
	require.Equal(t, enums.ActorRoleVendor, seen.Role)
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(nil, enums.ActorRoleVendor, enums.ActorRoleAdmin)(okHandler())

	tests := []struct {
		role enums.ActorRole
		want int
	}{
		{enums.ActorRoleVendor, http.StatusOK},
		{enums.ActorRoleAdmin, http.StatusOK},
		{enums.ActorRoleCustomer, http.StatusForbidden},
		{"", http.StatusForbidden},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithIdentity(req.Context(), auth.Identity{UID: "u", Role: tt.role}))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		require.Equal(t, tt.want, resp.Code, "role %q", tt.role)
	}
}
