package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/bazaarpay/bazaar_wallet/internal/identity"
	"github.com/bazaarpay/bazaar_wallet/internal/ledger"
	"github.com/bazaarpay/bazaar_wallet/internal/notification"
)

// ErrUserNotFound indicates a balance-affecting write targeted a user id that
// is not in the directory. Reads never fail this way; they fall back to a
// zero-value wallet.
var ErrUserNotFound = errors.New("user not found")

// Service exposes wallet operations backed by the ledger. Writes are guarded
// by the user directory; admin-initiated adjustments fan a notification out
// to the affected user.
type Service struct {
	ledger   ledger.Ledger
	users    identity.Repository
	notifier *notification.Service
}

// NewService builds a wallet service instance.
func NewService(led ledger.Ledger, users identity.Repository, notifier *notification.Service) *Service {
	return &Service{ledger: led, users: users, notifier: notifier}
}

// Wallet returns the user's balance snapshot, zero-valued when none exists.
func (s *Service) Wallet(ctx context.Context, userID string) (ledger.Wallet, error) {
	return s.ledger.Wallet(ctx, userID)
}

// Transactions lists the user's history newest first.
func (s *Service) Transactions(ctx context.Context, userID string, limit int) ([]ledger.Transaction, error) {
	return s.ledger.Transactions(ctx, userID, limit)
}

// RecordTransaction posts one transaction for an existing user. The type's
// direction decides credit or debit; debits past the balance are rejected by
// the ledger with the wallet untouched.
func (s *Service) RecordTransaction(ctx context.Context, userID string, typ ledger.Type, amount int64, description string) (ledger.Result, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return ledger.Result{}, ErrUserNotFound
		}
		return ledger.Result{}, err
	}
	return s.ledger.Apply(ctx, userID, typ, amount, description)
}

// AdjustBalance is the admin-facing variant of RecordTransaction: same
// posting, plus a plain-language notification to the affected user.
func (s *Service) AdjustBalance(ctx context.Context, userID string, typ ledger.Type, amount int64, description string) (ledger.Result, error) {
	res, err := s.RecordTransaction(ctx, userID, typ, amount, description)
	if err != nil {
		return ledger.Result{}, err
	}

	dir, _ := ledger.DirectionOf(typ)
	var msg string
	if dir == ledger.Credit {
		msg = fmt.Sprintf("Your wallet has been credited with %s. New balance: %s.",
			FormatPKR(amount), FormatPKR(res.Balance))
	} else {
		msg = fmt.Sprintf("%s has been deducted from your wallet. New balance: %s.",
			FormatPKR(amount), FormatPKR(res.Balance))
	}
	_ = s.notifier.NotifyUser(ctx, userID, "Wallet Update", msg, notification.KindWalletAdjustment)

	return res, nil
}

// FormatPKR renders a paisa amount as human-readable rupees for notification
// text, e.g. 150050 -> "PKR 1500.50".
func FormatPKR(paisa int64) string {
	sign := ""
	if paisa < 0 {
		sign = "-"
		paisa = -paisa
	}
	if paisa%100 == 0 {
		return fmt.Sprintf("%sPKR %d", sign, paisa/100)
	}
	return fmt.Sprintf("%sPKR %d.%02d", sign, paisa/100, paisa%100)
}
