package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/mbfrancisco/skportal/pkg/response"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// IdentityKey is the context key for the authenticated caller identity
	IdentityKey ContextKey = "identity"
)

// Role is a capability tag attached to a caller identity
type Role string

const (
	RoleResident Role = "RESIDENT"
	RoleStaff    Role = "SK_OFFICIAL"
	RoleAdmin    Role = "ADMIN"
)

// Identity describes the authenticated caller. The portal gateway performs the
// actual authentication; this service only consumes the resolved identity.
type Identity struct {
	UserID int64
	Roles  map[Role]bool
}

// HasRole reports whether the identity carries the given role tag
func (id Identity) HasRole(role Role) bool {
	return id.Roles[role]
}

// IsStaff reports whether the caller may perform organizer/staff operations
func (id Identity) IsStaff() bool {
	return id.Roles[RoleStaff] || id.Roles[RoleAdmin]
}

// IdentityMiddleware resolves the caller identity from the gateway-supplied
// X-User-ID and X-User-Roles headers. Requests without an identity are rejected
// before reaching any handler.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userIDStr := r.Header.Get("X-User-ID")
		if userIDStr == "" {
			response.Unauthorized(w, "Missing identity")
			return
		}

		userID, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil || userID <= 0 {
			response.Unauthorized(w, "Invalid identity")
			return
		}

		identity := Identity{
			UserID: userID,
			Roles:  ParseRoles(r.Header.Get("X-User-Roles")),
		}

		ctx := context.WithValue(r.Context(), IdentityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ParseRoles canonicalizes a comma-separated role header into a role set.
// Unknown tags are kept as-is; capability checks are set-membership tests.
func ParseRoles(header string) map[Role]bool {
	roles := map[Role]bool{RoleResident: true}
	for _, part := range strings.Split(header, ",") {
		tag := strings.ToUpper(strings.TrimSpace(part))
		if tag == "" {
			continue
		}
		roles[Role(tag)] = true
	}
	return roles
}

// GetIdentity extracts the caller identity from the request context
func GetIdentity(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(Identity)
	return identity, ok
}
