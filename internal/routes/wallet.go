package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bazaarpay/bazaar_wallet/internal/notification"
	"github.com/bazaarpay/bazaar_wallet/internal/rewards"
	"github.com/bazaarpay/bazaar_wallet/internal/wallet"
)

// RegisterWalletRoutes wires the customer-facing wallet endpoints.
func RegisterWalletRoutes(r fiber.Router, wh *wallet.Handler, rh *rewards.Handler, nh *notification.Handler, gate fiber.Handler) {
	r.Get("/wallets/:userId", gate, wh.Get)
	r.Get("/wallets/:userId/transactions", gate, wh.Transactions)

	r.Get("/wallets/:userId/rewards", gate, rh.List)
	r.Post("/wallets/:userId/rewards/:rewardId/redeem", gate, rh.Redeem)

	r.Get("/users/:userId/notifications", gate, nh.UserFeed)
	r.Post("/users/:userId/notifications/:notificationId/read", gate, nh.MarkRead)
}
