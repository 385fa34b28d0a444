package enums

import (
	"fmt"
	"strings"
)

// ActorRole is the role claim carried by identity tokens.
type ActorRole string

const (
	ActorRoleCustomer ActorRole = "customer"
	ActorRoleVendor   ActorRole = "vendor"
	ActorRoleDriver   ActorRole = "driver"
	ActorRoleAdmin    ActorRole = "admin"
	// ActorRoleSystem marks writes made by the service itself (payment listener).
	ActorRoleSystem ActorRole = "system"
)

var validActorRoles = []ActorRole{
	ActorRoleCustomer,
	ActorRoleVendor,
	ActorRoleDriver,
	ActorRoleAdmin,
}

func (r ActorRole) String() string {
	return string(r)
}

// IsValid reports whether the role may appear in a token. System is internal only.
func (r ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

func ParseActorRole(value string) (ActorRole, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validActorRoles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
