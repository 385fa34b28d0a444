package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/orderflow/pkg/config"
	"github.com/angelmondragon/orderflow/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "orderflow", ExpirationMinutes: 30}
}

func TestMintAndResolveIdentity(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()

	token, err := MintAccessToken(cfg, now, Identity{UID: "vendor-1", Role: enums.ActorRoleVendor})
	require.NoError(t, err)

	identity, err := ResolveIdentity(cfg, token)
	require.NoError(t, err)
	require.Equal(t, Identity{UID: "vendor-1", Role: enums.ActorRoleVendor}, identity)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	require.Equal(t, cfg.Issuer, claims.Issuer)
	require.WithinDuration(t, now.Add(30*time.Minute), claims.ExpiresAt.Time, time.Second)
}

func TestParseAccessTokenInvalidSignature(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), Identity{UID: "u", Role: enums.ActorRoleCustomer})
	require.NoError(t, err)

	cfg.Secret = "other"
	_, err = ParseAccessToken(cfg, token)
	require.Error(t, err)
}

func TestParseAccessTokenExpired(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), Identity{UID: "u", Role: enums.ActorRoleDriver})
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, token)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestResolveIdentityRejectsUnknownRole(t *testing.T) {
	cfg := testJWTConfig()
	claims := AccessTokenClaims{
		UID:  "u",
		Role: "superuser",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	require.NoError(t, err)

	_, err = ResolveIdentity(cfg, token)
	require.ErrorIs(t, err, ErrInvalidRole)
}

func TestIdentityFallsBackToSubject(t *testing.T) {
	claims := AccessTokenClaims{Role: enums.ActorRoleAdmin, RegisteredClaims: jwt.RegisteredClaims{Subject: "admin-1"}}
	require.Equal(t, "admin-1", claims.Identity().UID)
}

func TestMintRejectsMissingUID(t *testing.T) {
	_, err := MintAccessToken(testJWTConfig(), time.Now(), Identity{Role: enums.ActorRoleVendor})
	require.ErrorIs(t, err, ErrMissingUID)
}
