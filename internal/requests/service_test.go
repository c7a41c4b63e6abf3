package requests

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bazaarpay/bazaar_wallet/internal/identity"
	"github.com/bazaarpay/bazaar_wallet/internal/ledger"
	"github.com/bazaarpay/bazaar_wallet/internal/logging"
	"github.com/bazaarpay/bazaar_wallet/internal/notification"
	"github.com/bazaarpay/bazaar_wallet/internal/wallet"
)

type fixture struct {
	svc   *Service
	led   ledger.Ledger
	users identity.Repository
	feeds *notification.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	led := ledger.NewInMemory()
	users := identity.NewMemoryRepository()
	feeds := notification.NewService(notification.NewMemoryFeedStore(), 50, 0, logging.Discard())
	wallets := wallet.NewService(led, users, feeds)
	return &fixture{
		svc:   NewService(NewMemoryRepository(), wallets, users, feeds),
		led:   led,
		users: users,
		feeds: feeds,
	}
}

func (f *fixture) addUser(t *testing.T, id, name string) {
	t.Helper()
	if err := f.users.Create(context.Background(), identity.User{
		ID: id, Name: name, Email: name + "@example.com", CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("create user: %v", err)
	}
}

func TestSubmitAndApproveDepositCreditsWallet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "u1", "amir")

	req, err := f.svc.Submit(ctx, SubmitInput{
		Kind: KindDeposit, UserID: "u1", Amount: 100_000, Method: "easypaisa",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if req.Status != StatusPending || req.UserName != "amir" {
		t.Fatalf("unexpected request: %+v", req)
	}

	count, _ := f.svc.CountPending(ctx, KindDeposit)
	if count != 1 {
		t.Fatalf("expected 1 pending deposit, got %d", count)
	}

	decided, err := f.svc.Approve(ctx, req.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if decided.Status != StatusApproved || decided.DecidedAt == nil {
		t.Fatalf("unexpected decision: %+v", decided)
	}

	w, _ := f.led.Wallet(ctx, "u1")
	if w.Balance != 100_000 {
		t.Fatalf("approval must credit the wallet, balance %d", w.Balance)
	}
	count, _ = f.svc.CountPending(ctx, KindDeposit)
	if count != 0 {
		t.Fatalf("expected 0 pending, got %d", count)
	}
}

func TestApproveWithdrawalDebitsOrStaysPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "u1", "amir")

	req, err := f.svc.Submit(ctx, SubmitInput{
		Kind: KindWithdrawal, UserID: "u1", Amount: 50_000, Method: "bank transfer",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Wallet is empty: the approval fails and the request stays pending.
	if _, err := f.svc.Approve(ctx, req.ID); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	stored, _ := f.svc.List(ctx, KindWithdrawal, StatusPending)
	if len(stored) != 1 {
		t.Fatalf("request must remain pending after ledger rejection")
	}

	ledger.SeedBalance(f.led, "u1", 80_000)
	decided, err := f.svc.Approve(ctx, req.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if decided.Status != StatusApproved {
		t.Fatalf("expected approved, got %s", decided.Status)
	}
	w, _ := f.led.Wallet(ctx, "u1")
	if w.Balance != 30_000 {
		t.Fatalf("expected balance 30000, got %d", w.Balance)
	}
}

func TestConcurrentApprovalsCreditOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "u1", "amir")

	req, err := f.svc.Submit(ctx, SubmitInput{
		Kind: KindDeposit, UserID: "u1", Amount: 100_000, Method: "easypaisa",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		losers    atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Approve(ctx, req.ID)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, ErrNotPending):
				losers.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := successes.Load(); got != 1 {
		t.Fatalf("expected exactly 1 successful approval, got %d", got)
	}
	if got := losers.Load(); got != 7 {
		t.Fatalf("expected 7 ErrNotPending losers, got %d", got)
	}
	txs, _ := f.led.Transactions(ctx, "u1", 0)
	if len(txs) != 1 {
		t.Fatalf("expected 1 ledger credit, got %d", len(txs))
	}
	w, _ := f.led.Wallet(ctx, "u1")
	if w.Balance != 100_000 {
		t.Fatalf("expected balance 100000, got %d", w.Balance)
	}
}

func TestTerminalStatesAreFinal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "u1", "amir")

	req, _ := f.svc.Submit(ctx, SubmitInput{Kind: KindDeposit, UserID: "u1", Amount: 10_000, Method: "card"})

	if _, err := f.svc.Reject(ctx, req.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := f.svc.Approve(ctx, req.ID); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
	if _, err := f.svc.Reject(ctx, req.ID); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}

	rejected, _ := f.svc.List(ctx, KindDeposit, StatusRejected)
	if len(rejected) != 1 || rejected[0].Status != StatusRejected {
		t.Fatalf("status must never leave rejected: %+v", rejected)
	}

	// Rejection never touches the wallet.
	w, _ := f.led.Wallet(ctx, "u1")
	if w.Balance != 0 {
		t.Fatalf("expected untouched balance, got %d", w.Balance)
	}
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "u1", "amir")

	if _, err := f.svc.Submit(ctx, SubmitInput{Kind: "transfer", UserID: "u1", Amount: 100}); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
	if _, err := f.svc.Submit(ctx, SubmitInput{Kind: KindDeposit, UserID: "u1", Amount: 0}); !errors.Is(err, ledger.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := f.svc.Submit(ctx, SubmitInput{Kind: KindDeposit, UserID: "ghost", Amount: 100}); !errors.Is(err, wallet.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestDecisionsFanOutNotifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "u1", "amir")

	req, _ := f.svc.Submit(ctx, SubmitInput{Kind: KindDeposit, UserID: "u1", Amount: 10_000, Method: "card"})
	if _, err := f.svc.Approve(ctx, req.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	adminFeed, _ := f.feeds.AdminFeed(ctx, 0)
	if len(adminFeed) != 2 { // submit + decision
		t.Fatalf("expected 2 admin entries, got %d", len(adminFeed))
	}
	userFeed, _ := f.feeds.UserFeed(ctx, "u1", 0)
	if len(userFeed) != 1 {
		t.Fatalf("expected 1 user entry for the decision, got %d", len(userFeed))
	}
	if userFeed[0].Title != "Request Update" {
		t.Fatalf("unexpected notification: %+v", userFeed[0])
	}
}
