package wallet

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/bazaarpay/bazaar_wallet/internal/ledger"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type adjustRequest struct {
	Type        string `json:"type"`
	Amount      int64  `json:"amount_paisa"`
	Description string `json:"description"`
}

type transactionResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Amount      int64     `json:"amount_paisa"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Get returns the wallet balance snapshot. Unknown users see a zero wallet.
func (h *Handler) Get(c *fiber.Ctx) error {
	userID := c.Params("userId")
	w, err := h.service.Wallet(c.UserContext(), userID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"user_id":       w.UserID,
		"balance_paisa": w.Balance,
		"updated_at":    w.UpdatedAt,
	})
}

// Transactions lists the wallet history newest first.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	userID := c.Params("userId")
	limit := c.QueryInt("limit", 0)
	txs, err := h.service.Transactions(c.UserContext(), userID, limit)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, transactionResponse{
			ID:          tx.ID,
			Type:        string(tx.Type),
			Amount:      tx.Amount,
			Description: tx.Description,
			CreatedAt:   tx.CreatedAt,
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transactions": out})
}

// Adjust posts an admin balance adjustment for the user.
func (h *Handler) Adjust(c *fiber.Ctx) error {
	userID := c.Params("userId")
	var req adjustRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.AdjustBalance(c.UserContext(), userID, ledger.Type(req.Type), req.Amount, req.Description)
	if err != nil {
		return adjustError(err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"transaction": transactionResponse{
			ID:          res.Transaction.ID,
			Type:        string(res.Transaction.Type),
			Amount:      res.Transaction.Amount,
			Description: res.Transaction.Description,
			CreatedAt:   res.Transaction.CreatedAt,
		},
		"balance_paisa": res.Balance,
	})
}

func adjustError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrUnknownType):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrUserNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
