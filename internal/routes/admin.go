package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bazaarpay/bazaar_wallet/internal/notification"
	"github.com/bazaarpay/bazaar_wallet/internal/requests"
	"github.com/bazaarpay/bazaar_wallet/internal/rewards"
	"github.com/bazaarpay/bazaar_wallet/internal/wallet"
)

// RegisterAdminRoutes wires the admin console surface. The group carries the
// admin token gate.
func RegisterAdminRoutes(r fiber.Router, wh *wallet.Handler, rh *rewards.Handler, qh *requests.Handler, nh *notification.Handler) {
	r.Post("/wallets/:userId/transactions", wh.Adjust)
	r.Get("/wallets/:userId", wh.Get)
	r.Get("/wallets/:userId/transactions", wh.Transactions)

	r.Post("/rewards", rh.Grant)
	r.Post("/rewards/expire-all", rh.ExpireAll)
	r.Get("/wallets/:userId/rewards", rh.List)
	r.Post("/wallets/:userId/rewards/:rewardId/expire", rh.Expire)
	r.Delete("/wallets/:userId/rewards/:rewardId", rh.Delete)

	r.Get("/requests", qh.List)
	r.Post("/requests/:requestId/approve", qh.Approve)
	r.Post("/requests/:requestId/reject", qh.Reject)

	r.Get("/notifications", nh.AdminFeed)
}
