package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/bazaarpay/bazaar_wallet/internal/identity"
)

// Handler exposes registration and login endpoints.
type Handler struct {
	identities *identity.Service
	service    *Service
}

// NewHandler builds the auth HTTP handler.
func NewHandler(identities *identity.Service, service *Service) *Handler {
	return &Handler{identities: identities, service: service}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a customer account.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.identities.Register(c.UserContext(), identity.Credentials{
		Name: req.Name, Email: req.Email, Password: req.Password,
	})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"user_id": user.ID,
		"name":    user.Name,
		"email":   user.Email,
	})
}

// Login authenticates a customer and issues a session token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.identities.Authenticate(c.UserContext(), identity.Credentials{
		Email: req.Email, Password: req.Password,
	})
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "invalid credentials")
	}
	token, err := h.service.IssueUserToken(user)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"user_id": user.ID,
		"token":   token,
	})
}

// AdminLogin checks the shared console credential.
func (h *Handler) AdminLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	token, err := h.service.LoginAdmin(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return fiber.NewError(http.StatusUnauthorized, "invalid credentials")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"token": token})
}
