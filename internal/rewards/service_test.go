package rewards

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
	return &fixture{
		svc:   NewService(NewMemoryRepository(), led, users, feeds),
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

func TestGrantBulkIndependentPerUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "u1", "amir")
	f.addUser(t, "u2", "sana")
	f.addUser(t, "u3", "bilal")

	granted, err := f.svc.Grant(ctx, GrantInput{
		Targets: []string{"u1", "ghost", "u2", "u3"},
		Title:   "Eid Bonus",
		Amount:  50_000,
	})
	if err == nil {
		t.Fatalf("expected a joined error for the unknown target")
	}
	if len(granted) != 3 {
		t.Fatalf("expected 3 grants despite one failure, got %d", len(granted))
	}

	seen := map[string]bool{}
	for _, r := range granted {
		if seen[r.ID] {
			t.Fatalf("duplicate reward id %s", r.ID)
		}
		seen[r.ID] = true
	}

	for _, userID := range []string{"u1", "u2", "u3"} {
		feed, _ := f.feeds.UserFeed(ctx, userID, 0)
		if len(feed) != 1 {
			t.Fatalf("expected 1 notification for %s, got %d", userID, len(feed))
		}
	}
}

func TestRedeemCreditsWalletOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "u1", "amir")

	granted, err := f.svc.Grant(ctx, GrantInput{Targets: []string{"u1"}, Title: "Cashback", Amount: 25_000})
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	reward := granted[0]

	res, err := f.svc.Redeem(ctx, "u1", reward.ID)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if res.Balance != 25_000 {
		t.Fatalf("expected balance 25000, got %d", res.Balance)
	}
	if res.Transaction.Type != ledger.TypeReward {
		t.Fatalf("expected reward-type credit, got %s", res.Transaction.Type)
	}

	// Second redemption fails and posts nothing.
	if _, err := f.svc.Redeem(ctx, "u1", reward.ID); !errors.Is(err, ErrNotRedeemable) {
		t.Fatalf("expected ErrNotRedeemable, got %v", err)
	}
	txs, _ := f.led.Transactions(ctx, "u1", 0)
	if len(txs) != 1 {
		t.Fatalf("expected exactly one credit, got %d", len(txs))
	}

	list, _ := f.svc.List(ctx, "u1")
	if got := ComputeStatus(list[0], time.Now().UTC()); got != StatusCompleted {
		t.Fatalf("expected completed, got %s", got)
	}
}

func TestConcurrentRedeemCreditsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "u1", "amir")

	granted, err := f.svc.Grant(ctx, GrantInput{Targets: []string{"u1"}, Title: "Bonus", Amount: 10_000})
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	rewardID := granted[0].ID

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Redeem(ctx, "u1", rewardID); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := successes.Load(); got != 1 {
		t.Fatalf("expected exactly 1 successful redemption, got %d", got)
	}
	txs, _ := f.led.Transactions(ctx, "u1", 0)
	if len(txs) != 1 {
		t.Fatalf("expected 1 ledger credit, got %d", len(txs))
	}
	w, _ := f.led.Wallet(ctx, "u1")
	if w.Balance != 10_000 {
		t.Fatalf("expected balance 10000, got %d", w.Balance)
	}
}

func TestRedeemExpiredRewardRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "u1", "amir")

	yesterday := time.Now().UTC().Add(-24 * time.Hour)
	granted, err := f.svc.Grant(ctx, GrantInput{
		Targets:   []string{"u1"},
		Title:     "Flash Sale Credit",
		Amount:    500_00,
		ExpiresAt: &yesterday,
	})
	if err != nil {
		t.Fatalf("grant: %v", err)
	}

	if got := ComputeStatus(granted[0], time.Now().UTC()); got != StatusExpired {
		t.Fatalf("expected expired, got %s", got)
	}
	if _, err := f.svc.Redeem(ctx, "u1", granted[0].ID); !errors.Is(err, ErrNotRedeemable) {
		t.Fatalf("expected ErrNotRedeemable, got %v", err)
	}
	w, _ := f.led.Wallet(ctx, "u1")
	if w.Balance != 0 {
		t.Fatalf("expired reward must not credit, balance %d", w.Balance)
	}
}

func TestExpireIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "u1", "amir")

	granted, _ := f.svc.Grant(ctx, GrantInput{Targets: []string{"u1"}, Title: "Promo", Amount: 10_000})
	reward := granted[0]

	if err := f.svc.Expire(ctx, "u1", reward.ID); err != nil {
		t.Fatalf("first expire: %v", err)
	}
	if err := f.svc.Expire(ctx, "u1", reward.ID); err != nil {
		t.Fatalf("second expire must be a no-op, got %v", err)
	}

	list, _ := f.svc.List(ctx, "u1")
	if got := ComputeStatus(list[0], time.Now().UTC()); got != StatusExpired {
		t.Fatalf("expected expired, got %s", got)
	}

	// Expiring a redeemed reward is also a no-op.
	granted, _ = f.svc.Grant(ctx, GrantInput{Targets: []string{"u1"}, Title: "Promo 2", Amount: 10_000})
	if _, err := f.svc.Redeem(ctx, "u1", granted[0].ID); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if err := f.svc.Expire(ctx, "u1", granted[0].ID); err != nil {
		t.Fatalf("expire on redeemed reward must be a no-op, got %v", err)
	}
	list, _ = f.svc.List(ctx, "u1")
	if got := ComputeStatus(list[0], time.Now().UTC()); got != StatusCompleted {
		t.Fatalf("redeemed reward must stay completed, got %s", got)
	}
}

func TestExpireAllActiveLeavesTerminalStatesAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "u1", "amir")
	f.addUser(t, "u2", "sana")

	g1, _ := f.svc.Grant(ctx, GrantInput{Targets: []string{"u1", "u2"}, Title: "Season Credit", Amount: 5_000})
	if _, err := f.svc.Redeem(ctx, "u1", g1[0].ID); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	expired, err := f.svc.ExpireAllActive(ctx)
	if err != nil {
		t.Fatalf("expire all: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected 1 reward expired, got %d", expired)
	}

	// Nothing left to expire.
	expired, err = f.svc.ExpireAllActive(ctx)
	if err != nil || expired != 0 {
		t.Fatalf("expected idempotent second pass, got %d, %v", expired, err)
	}
}

func TestDeleteOnlyUnusedRewards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "u1", "amir")

	granted, _ := f.svc.Grant(ctx, GrantInput{Targets: []string{"u1"}, Title: "Promo", Amount: 10_000})
	reward := granted[0]

	if err := f.svc.Delete(ctx, "u1", reward.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.svc.Redeem(ctx, "u1", reward.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	feed, _ := f.feeds.UserFeed(ctx, "u1", 0)
	if len(feed) < 2 || feed[0].Title != "Reward Removed" {
		t.Fatalf("expected removal notification first, got %+v", feed)
	}

	granted, _ = f.svc.Grant(ctx, GrantInput{Targets: []string{"u1"}, Title: "Promo 2", Amount: 10_000})
	if _, err := f.svc.Redeem(ctx, "u1", granted[0].ID); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if err := f.svc.Delete(ctx, "u1", granted[0].ID); !errors.Is(err, ErrRewardUsed) {
		t.Fatalf("expected ErrRewardUsed, got %v", err)
	}
}
