package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/bazaarpay/bazaar_wallet/internal/auth"
)

// Locals keys set by the auth middlewares.
const (
	LocalUserID = "user_id"
	LocalRole   = "role"
)

func bearerToken(c *fiber.Ctx) (string, bool) {
	authz := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return "", false
	}
	return strings.TrimSpace(authz[len("Bearer "):]), true
}

// RequireAdmin gates the admin console surface behind an admin session token.
func RequireAdmin(service *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		claims, err := service.Verify(token)
		if err != nil || claims.Role != auth.RoleAdmin {
			return fiber.NewError(http.StatusUnauthorized, "admin token required")
		}
		c.Locals(LocalRole, claims.Role)
		return c.Next()
	}
}

// RequireUser validates a customer session token and pins the path user id to
// the token subject, so a customer can only reach their own wallet. Admin
// tokens pass for any user.
func RequireUser(service *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		claims, err := service.Verify(token)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}
		if claims.Role == auth.RoleAdmin {
			c.Locals(LocalRole, claims.Role)
			return c.Next()
		}
		if userID := c.Params("userId"); userID != "" && userID != claims.Subject {
			return fiber.NewError(http.StatusForbidden, "cannot access another user's wallet")
		}
		c.Locals(LocalUserID, claims.Subject)
		c.Locals(LocalRole, claims.Role)
		return c.Next()
	}
}
