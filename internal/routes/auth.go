package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bazaarpay/bazaar_wallet/internal/auth"
)

// RegisterAuthRoutes wires registration and login endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	r.Post("/users", h.Register)
	r.Post("/auth/login", rateLimiter, h.Login)
	r.Post("/auth/admin/login", rateLimiter, h.AdminLogin)
}
