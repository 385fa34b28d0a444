package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/orderflow/pkg/enums"
)

// Identity is the verified caller resolved from a bearer token.
type Identity struct {
	UID  string
	Role enums.ActorRole
}

// AccessTokenClaims is the claim set issued by the identity provider.
type AccessTokenClaims struct {
	UID  string          `json:"uid"`
	Role enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}

// Identity returns the caller identity, preferring the uid claim over sub.
func (c AccessTokenClaims) Identity() Identity {
	uid := c.UID
	if uid == "" {
		uid = c.Subject
	}
	return Identity{UID: uid, Role: c.Role}
}
