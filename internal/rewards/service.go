package rewards

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bazaarpay/bazaar_wallet/internal/identity"
	"github.com/bazaarpay/bazaar_wallet/internal/ledger"
	"github.com/bazaarpay/bazaar_wallet/internal/notification"
)

// ErrNotRedeemable indicates redemption was attempted on a reward whose
// derived status is not available.
var ErrNotRedeemable = errors.New("reward not redeemable")

// Service creates, redeems and retires reward grants. Redemption is the only
// path from a reward to a ledger transaction.
type Service struct {
	repo     Repository
	ledger   ledger.Ledger
	users    identity.Repository
	notifier *notification.Service
}

// NewService constructs a reward engine.
func NewService(repo Repository, led ledger.Ledger, users identity.Repository, notifier *notification.Service) *Service {
	return &Service{repo: repo, ledger: led, users: users, notifier: notifier}
}

// GrantInput captures the shared fields of a grant; the single-user form,
// quick-select and bulk flows differ only in how Targets is gathered.
type GrantInput struct {
	Targets     []string
	Title       string
	Amount      int64
	Description string
	ExpiresAt   *time.Time
}

// Grant issues one independent reward per target user and notifies each.
// Users are processed independently: a failure for one target never blocks
// the grants to the rest. The returned error joins the per-user failures.
func (s *Service) Grant(ctx context.Context, input GrantInput) ([]Reward, error) {
	if input.Amount <= 0 {
		return nil, ledger.ErrInvalidAmount
	}
	if input.Title == "" {
		return nil, errors.New("reward title is required")
	}

	var (
		granted []Reward
		errs    []error
	)
	now := time.Now().UTC()
	for _, userID := range input.Targets {
		if _, err := s.users.FindByID(ctx, userID); err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
			continue
		}

		reward := Reward{
			ID:          newRewardID(),
			UserID:      userID,
			Title:       input.Title,
			Amount:      input.Amount,
			Description: input.Description,
			IssuedAt:    now,
			ExpiresAt:   input.ExpiresAt,
		}
		if err := s.repo.Create(ctx, reward); err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
			continue
		}
		granted = append(granted, reward)

		_ = s.notifier.NotifyUser(ctx, userID, "New Reward",
			fmt.Sprintf("You received a reward: %s. Redeem it to credit your wallet.", reward.Title),
			notification.KindReward)
	}

	return granted, errors.Join(errs...)
}

// Redeem marks an available reward as used and posts the matching
// reward-type ledger credit. The used-flag flip is a compare-and-set in the
// repository, so concurrent redemptions of one reward credit the wallet at
// most once.
func (s *Service) Redeem(ctx context.Context, userID, rewardID string) (ledger.Result, error) {
	reward, err := s.repo.Get(ctx, userID, rewardID)
	if err != nil {
		return ledger.Result{}, err
	}
	if ComputeStatus(reward, time.Now().UTC()) != StatusAvailable {
		return ledger.Result{}, ErrNotRedeemable
	}

	if err := s.repo.MarkUsed(ctx, userID, rewardID); err != nil {
		if errors.Is(err, ErrRewardUsed) {
			return ledger.Result{}, ErrNotRedeemable
		}
		return ledger.Result{}, err
	}
	reward.Used = true

	res, err := s.ledger.Apply(ctx, userID, ledger.TypeReward, reward.Amount,
		fmt.Sprintf("Reward redeemed: %s", reward.Title))
	if err != nil {
		// Roll the flag back so the reward stays redeemable.
		reward.Used = false
		if revertErr := s.repo.Update(ctx, reward); revertErr != nil {
			return ledger.Result{}, errors.Join(err, revertErr)
		}
		return ledger.Result{}, err
	}

	redeemer := userID
	if user, err := s.users.FindByID(ctx, userID); err == nil && user.Name != "" {
		redeemer = user.Name
	}
	_ = s.notifier.NotifyAdmin(ctx,
		fmt.Sprintf("Reward %q redeemed by %s", reward.Title, redeemer),
		"gift", notification.KindReward)

	return res, nil
}

// Expire forces the reward's expiry into the past so its derived status
// becomes expired. Expiring a used or already-expired reward is a no-op.
func (s *Service) Expire(ctx context.Context, userID, rewardID string) error {
	reward, err := s.repo.Get(ctx, userID, rewardID)
	if err != nil {
		return err
	}
	return s.expire(ctx, reward, time.Now().UTC())
}

// ExpireAllActive expires every currently-available reward and reports how
// many were affected.
func (s *Service) ExpireAllActive(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	active, err := s.repo.ListActive(ctx, now)
	if err != nil {
		return 0, err
	}
	var errs []error
	expired := 0
	for _, reward := range active {
		if err := s.expire(ctx, reward, now); err != nil {
			errs = append(errs, fmt.Errorf("reward %s: %w", reward.ID, err))
			continue
		}
		expired++
	}
	return expired, errors.Join(errs...)
}

func (s *Service) expire(ctx context.Context, reward Reward, now time.Time) error {
	status := ComputeStatus(reward, now)
	if status == StatusCompleted || status == StatusExpired {
		return nil
	}
	past := now.Add(-time.Second)
	reward.ExpiresAt = &past
	return s.repo.Update(ctx, reward)
}

// Delete removes an unredeemed reward outright and tells the user.
func (s *Service) Delete(ctx context.Context, userID, rewardID string) error {
	reward, err := s.repo.Get(ctx, userID, rewardID)
	if err != nil {
		return err
	}
	if reward.Used {
		return ErrRewardUsed
	}
	if err := s.repo.Delete(ctx, userID, rewardID); err != nil {
		return err
	}

	_ = s.notifier.NotifyUser(ctx, userID, "Reward Removed",
		fmt.Sprintf("Your reward %q has been removed by the store.", reward.Title),
		notification.KindReward)
	return nil
}

// List returns a user's rewards newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Reward, error) {
	return s.repo.ListByUser(ctx, userID)
}

func newRewardID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
