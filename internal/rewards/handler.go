package rewards

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/bazaarpay/bazaar_wallet/internal/ledger"
)

// Handler exposes reward HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a rewards HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type grantRequest struct {
	UserIDs     []string   `json:"user_ids"`
	Title       string     `json:"title"`
	Amount      int64      `json:"amount_paisa"`
	Description string     `json:"description"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

type rewardResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Amount      int64      `json:"amount_paisa"`
	Description string     `json:"description"`
	IssuedAt    time.Time  `json:"issued_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Status      string     `json:"status"`
}

func toResponse(r Reward, now time.Time) rewardResponse {
	return rewardResponse{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Amount:      r.Amount,
		Description: r.Description,
		IssuedAt:    r.IssuedAt,
		ExpiresAt:   r.ExpiresAt,
		Status:      string(ComputeStatus(r, now)),
	}
}

// Grant issues a reward to one or more users.
func (h *Handler) Grant(c *fiber.Ctx) error {
	var req grantRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if len(req.UserIDs) == 0 {
		return fiber.NewError(http.StatusBadRequest, "at least one target user is required")
	}

	granted, err := h.service.Grant(c.UserContext(), GrantInput{
		Targets:     req.UserIDs,
		Title:       req.Title,
		Amount:      req.Amount,
		Description: req.Description,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil && len(granted) == 0 {
		if errors.Is(err, ledger.ErrInvalidAmount) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	}

	now := time.Now().UTC()
	out := make([]rewardResponse, 0, len(granted))
	for _, r := range granted {
		out = append(out, toResponse(r, now))
	}
	body := fiber.Map{"rewards": out}
	if err != nil {
		// Partial success: report the users that failed alongside the grants.
		body["errors"] = err.Error()
	}
	return c.Status(http.StatusCreated).JSON(body)
}

// List returns a user's rewards with derived status.
func (h *Handler) List(c *fiber.Ctx) error {
	userID := c.Params("userId")
	list, err := h.service.List(c.UserContext(), userID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	now := time.Now().UTC()
	out := make([]rewardResponse, 0, len(list))
	for _, r := range list {
		out = append(out, toResponse(r, now))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"rewards": out})
}

// Redeem converts an available reward into a wallet credit.
func (h *Handler) Redeem(c *fiber.Ctx) error {
	userID := c.Params("userId")
	rewardID := c.Params("rewardId")

	res, err := h.service.Redeem(c.UserContext(), userID, rewardID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrNotRedeemable):
			return fiber.NewError(http.StatusConflict, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"transaction_id": res.Transaction.ID,
		"balance_paisa":  res.Balance,
	})
}

// Expire marks one reward expired; the operation is idempotent.
func (h *Handler) Expire(c *fiber.Ctx) error {
	userID := c.Params("userId")
	rewardID := c.Params("rewardId")

	if err := h.service.Expire(c.UserContext(), userID, rewardID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(http.StatusNoContent)
}

// ExpireAll expires every available reward across all users.
func (h *Handler) ExpireAll(c *fiber.Ctx) error {
	expired, err := h.service.ExpireAllActive(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"expired": expired})
}

// Delete removes an unredeemed reward.
func (h *Handler) Delete(c *fiber.Ctx) error {
	userID := c.Params("userId")
	rewardID := c.Params("rewardId")

	if err := h.service.Delete(c.UserContext(), userID, rewardID); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrRewardUsed):
			return fiber.NewError(http.StatusConflict, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.SendStatus(http.StatusNoContent)
}
