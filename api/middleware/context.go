package middleware

import (
	"context"

	"github.com/angelmondragon/orderflow/pkg/auth"
)

type contextKey string

const ctxIdentity contextKey = "identity"

// IdentityFromContext returns the verified caller, or the zero identity when
// the request was not authenticated.
func IdentityFromContext(ctx context.Context) auth.Identity {
	if ctx == nil {
		return auth.Identity{}
	}
	if v, ok := ctx.Value(ctxIdentity).(auth.Identity); ok {
		return v
	}
	return auth.Identity{}
}

func UserIDFromContext(ctx context.Context) string {
	return IdentityFromContext(ctx).UID
}

func RoleFromContext(ctx context.Context) string {
	return IdentityFromContext(ctx).Role.String()
}

// WithIdentity injects the caller identity into the context.
func WithIdentity(ctx context.Context, identity auth.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxIdentity, identity)
}
