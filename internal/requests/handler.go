package requests

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/bazaarpay/bazaar_wallet/internal/ledger"
	"github.com/bazaarpay/bazaar_wallet/internal/middleware"
	"github.com/bazaarpay/bazaar_wallet/internal/wallet"
)

// Handler exposes request workflow HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a request workflow HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type submitRequest struct {
	Kind    string `json:"kind"`
	UserID  string `json:"user_id"`
	Amount  int64  `json:"amount_paisa"`
	Method  string `json:"method"`
	Details string `json:"details"`
}

type requestResponse struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	UserID      string     `json:"user_id"`
	UserName    string     `json:"user_name"`
	Amount      int64      `json:"amount_paisa"`
	Method      string     `json:"method"`
	Details     string     `json:"details,omitempty"`
	Status      string     `json:"status"`
	SubmittedAt time.Time  `json:"submitted_at"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
}

func toResponse(r WalletRequest) requestResponse {
	return requestResponse{
		ID:          r.ID,
		Kind:        string(r.Kind),
		UserID:      r.UserID,
		UserName:    r.UserName,
		Amount:      r.Amount,
		Method:      r.Method,
		Details:     r.Details,
		Status:      string(r.Status),
		SubmittedAt: r.SubmittedAt,
		DecidedAt:   r.DecidedAt,
	}
}

// Submit files a new pending request.
func (h *Handler) Submit(c *fiber.Ctx) error {
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	// Customer tokens can only file requests against their own wallet.
	if uid, ok := c.Locals(middleware.LocalUserID).(string); ok && uid != "" {
		req.UserID = uid
	}

	created, err := h.service.Submit(c.UserContext(), SubmitInput{
		Kind:    Kind(req.Kind),
		UserID:  req.UserID,
		Amount:  req.Amount,
		Method:  req.Method,
		Details: req.Details,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidKind), errors.Is(err, ledger.ErrInvalidAmount):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, wallet.ErrUserNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.Status(http.StatusCreated).JSON(toResponse(created))
}

// Approve decides a pending request in the affirmative.
func (h *Handler) Approve(c *fiber.Ctx) error {
	return h.decide(c, h.service.Approve)
}

// Reject decides a pending request in the negative.
func (h *Handler) Reject(c *fiber.Ctx) error {
	return h.decide(c, h.service.Reject)
}

func (h *Handler) decide(c *fiber.Ctx, decideFn func(ctx context.Context, id string) (WalletRequest, error)) error {
	req, err := decideFn(c.UserContext(), c.Params("requestId"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrNotPending):
			return fiber.NewError(http.StatusConflict, err.Error())
		case errors.Is(err, ledger.ErrInsufficientFunds):
			return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.Status(http.StatusOK).JSON(toResponse(req))
}

// List returns one queue; ?kind= selects the queue, ?status= defaults to
// pending, and ?count=true returns only the badge count.
func (h *Handler) List(c *fiber.Ctx) error {
	kind := Kind(c.Query("kind"))
	status := Status(c.Query("status", string(StatusPending)))

	if c.QueryBool("count", false) {
		count, err := h.service.CountPending(c.UserContext(), kind)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{"kind": string(kind), "pending": count})
	}

	list, err := h.service.List(c.UserContext(), kind, status)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	out := make([]requestResponse, 0, len(list))
	for _, r := range list {
		out = append(out, toResponse(r))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"requests": out})
}
