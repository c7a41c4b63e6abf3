package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bazaarpay/bazaar_wallet/internal/requests"
)

// RegisterRequestRoutes wires request submission for customers.
func RegisterRequestRoutes(r fiber.Router, h *requests.Handler, gate fiber.Handler) {
	r.Post("/requests", gate, h.Submit)
}
