package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/rbac"
	"github.com/spec-kit/complaint-service/pkg/errorutil"
)

const principalKey = "principal"

// Principal is the authenticated caller attached to the request context.
type Principal struct {
	UserID string
	Role   domain.Role
}

// Actor converts the principal into the rbac decision shape.
func (p Principal) Actor() rbac.Actor {
	return rbac.Actor{ID: p.UserID, Role: p.Role}
}

// Middleware verifies the bearer token and stores the Principal in locals.
func Middleware(tokens *TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return errorutil.NewUnauthorized("missing authorization header")
		}
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return errorutil.NewUnauthorized("malformed authorization header")
		}
		claims, err := tokens.Verify(tokenString)
		if err != nil {
			return errorutil.NewUnauthorized("invalid or expired token")
		}
		c.Locals(principalKey, Principal{UserID: claims.UserID, Role: claims.Role})
		return c.Next()
	}
}

// PrincipalFrom extracts the authenticated caller. It returns false when the
// route was reached without the auth middleware.
func PrincipalFrom(c *fiber.Ctx) (Principal, bool) {
	principal, ok := c.Locals(principalKey).(Principal)
	return principal, ok
}

// RequireRole allows only callers holding one of the listed roles.
func RequireRole(roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFrom(c)
		if !ok {
			return errorutil.NewUnauthorized("authentication required")
		}
		for _, role := range roles {
			if principal.Role == role {
				return c.Next()
			}
		}
		return errorutil.NewForbidden("insufficient role")
	}
}
