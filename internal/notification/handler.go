package notification

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes feed HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a notification HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// AdminFeed lists the global admin feed.
func (h *Handler) AdminFeed(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	feed, err := h.service.AdminFeed(c.UserContext(), limit)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"notifications": feed})
}

// UserFeed lists one user's feed.
func (h *Handler) UserFeed(c *fiber.Ctx) error {
	userID := c.Params("userId")
	limit := c.QueryInt("limit", 0)
	feed, err := h.service.UserFeed(c.UserContext(), userID, limit)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"notifications": feed})
}

// MarkRead flags one entry in a user's feed as read.
func (h *Handler) MarkRead(c *fiber.Ctx) error {
	userID := c.Params("userId")
	notificationID := c.Params("notificationId")
	if err := h.service.MarkUserRead(c.UserContext(), userID, notificationID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(http.StatusNoContent)
}
