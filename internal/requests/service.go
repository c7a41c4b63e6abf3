package requests

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bazaarpay/bazaar_wallet/internal/identity"
	"github.com/bazaarpay/bazaar_wallet/internal/ledger"
	"github.com/bazaarpay/bazaar_wallet/internal/notification"
	"github.com/bazaarpay/bazaar_wallet/internal/wallet"
)

// ErrInvalidKind indicates a kind outside deposit/withdrawal.
var ErrInvalidKind = errors.New("invalid request kind")

// Service runs the deposit/withdrawal approval workflow. Approving a request
// synchronously posts the matching ledger transaction: a deposit approval
// credits the wallet, a withdrawal approval debits it. A ledger rejection
// (overdrawn withdrawal) leaves the request pending.
type Service struct {
	repo     Repository
	wallets  *wallet.Service
	users    identity.Repository
	notifier *notification.Service
}

// NewService constructs the request workflow service.
func NewService(repo Repository, wallets *wallet.Service, users identity.Repository, notifier *notification.Service) *Service {
	return &Service{repo: repo, wallets: wallets, users: users, notifier: notifier}
}

// SubmitInput captures the fields of a new request.
type SubmitInput struct {
	Kind    Kind
	UserID  string
	Amount  int64
	Method  string
	Details string
}

// Submit files a pending request and alerts the admin feed.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (WalletRequest, error) {
	if !input.Kind.Valid() {
		return WalletRequest{}, ErrInvalidKind
	}
	if input.Amount <= 0 {
		return WalletRequest{}, ledger.ErrInvalidAmount
	}
	user, err := s.users.FindByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return WalletRequest{}, wallet.ErrUserNotFound
		}
		return WalletRequest{}, err
	}

	req := WalletRequest{
		ID:          newRequestID(),
		Kind:        input.Kind,
		UserID:      input.UserID,
		UserName:    user.Name,
		Amount:      input.Amount,
		Method:      input.Method,
		Details:     input.Details,
		Status:      StatusPending,
		SubmittedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return WalletRequest{}, err
	}

	_ = s.notifier.NotifyAdmin(ctx,
		fmt.Sprintf("New %s request from %s for %s", req.Kind, req.UserName, wallet.FormatPKR(req.Amount)),
		"inbox", notification.KindRequest)

	return req, nil
}

// Approve decides a pending request and posts the corresponding ledger
// transaction. Returns ErrNotPending when the request was already decided.
// The approval transition is won first, so only one of two concurrent
// approvals ever reaches the ledger; a ledger rejection (overdrawn
// withdrawal) reopens the request and leaves the wallet untouched.
func (s *Service) Approve(ctx context.Context, id string) (WalletRequest, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return WalletRequest{}, err
	}
	if req.Status != StatusPending {
		return WalletRequest{}, ErrNotPending
	}

	now := time.Now().UTC()
	if err := s.repo.Transition(ctx, id, StatusApproved, now); err != nil {
		return WalletRequest{}, err
	}

	typ := ledger.TypeDeposit
	if req.Kind == KindWithdrawal {
		typ = ledger.TypeWithdrawal
	}
	if _, err := s.wallets.RecordTransaction(ctx, req.UserID, typ, req.Amount,
		fmt.Sprintf("%s request approved (%s)", req.Kind, req.Method)); err != nil {
		if revertErr := s.repo.Reopen(ctx, id); revertErr != nil {
			return WalletRequest{}, errors.Join(err, revertErr)
		}
		return WalletRequest{}, err
	}
	req.Status = StatusApproved
	req.DecidedAt = &now

	s.notifyDecision(ctx, req)
	return req, nil
}

// Reject decides a pending request without touching the wallet.
func (s *Service) Reject(ctx context.Context, id string) (WalletRequest, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return WalletRequest{}, err
	}
	if req.Status != StatusPending {
		return WalletRequest{}, ErrNotPending
	}

	now := time.Now().UTC()
	if err := s.repo.Transition(ctx, id, StatusRejected, now); err != nil {
		return WalletRequest{}, err
	}
	req.Status = StatusRejected
	req.DecidedAt = &now

	s.notifyDecision(ctx, req)
	return req, nil
}

// List returns one queue filtered by status, newest first.
func (s *Service) List(ctx context.Context, kind Kind, status Status) ([]WalletRequest, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	return s.repo.List(ctx, kind, status)
}

// CountPending reports the open requests of one kind.
func (s *Service) CountPending(ctx context.Context, kind Kind) (int, error) {
	if !kind.Valid() {
		return 0, ErrInvalidKind
	}
	return s.repo.CountPending(ctx, kind)
}

func (s *Service) notifyDecision(ctx context.Context, req WalletRequest) {
	_ = s.notifier.NotifyAdmin(ctx,
		fmt.Sprintf("%s request from %s %s", req.Kind, req.UserName, req.Status),
		"check", notification.KindRequest)

	var msg string
	if req.Status == StatusApproved {
		msg = fmt.Sprintf("Your %s request for %s has been approved.", req.Kind, wallet.FormatPKR(req.Amount))
	} else {
		msg = fmt.Sprintf("Your %s request for %s has been rejected.", req.Kind, wallet.FormatPKR(req.Amount))
	}
	_ = s.notifier.NotifyUser(ctx, req.UserID, "Request Update", msg, notification.KindRequest)
}

func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
