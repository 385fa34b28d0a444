package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/orderflow/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodHS256

var (
	ErrMissingUID  = errors.New("token missing uid claim")
	ErrInvalidRole = errors.New("token carries an unknown role")
)

// MintAccessToken signs a token for identity. The identity provider owns token
// issuance in production; this is used by tooling and tests.
func MintAccessToken(cfg config.JWTConfig, now time.Time, identity Identity) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return "", fmt.Errorf("jwt issuer is required")
	}
	if strings.TrimSpace(identity.UID) == "" {
		return "", ErrMissingUID
	}
	if !identity.Role.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, identity.Role)
	}

	claims := AccessTokenClaims{
		UID:  identity.UID,
		Role: identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   identity.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.Expiration())),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseAccessToken validates the JWT string and returns typed claims.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	claims := &AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// ResolveIdentity parses the token and checks the claims carry a usable identity.
func ResolveIdentity(cfg config.JWTConfig, tokenString string) (Identity, error) {
	claims, err := ParseAccessToken(cfg, tokenString)
	if err != nil {
		return Identity{}, err
	}
	identity := claims.Identity()
	if strings.TrimSpace(identity.UID) == "" {
		return Identity{}, ErrMissingUID
	}
	if !identity.Role.IsValid() {
		return Identity{}, fmt.Errorf("%w: %q", ErrInvalidRole, identity.Role)
	}
	return identity, nil
}
