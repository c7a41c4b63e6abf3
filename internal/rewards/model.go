package rewards

import "time"

// Reward is an admin-granted, optionally time-bounded credit. It only moves
// funds when explicitly redeemed, at which point a reward-type ledger credit
// is posted.
type Reward struct {
	ID          string
	UserID      string
	Title       string
	Amount      int64
	Description string
	IssuedAt    time.Time
	ExpiresAt   *time.Time
	Used        bool
	Pending     bool
}

// Status is the derived lifecycle state of a reward. It is computed from the
// stored flags and the clock, never stored.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
	StatusAvailable Status = "available"
)

// ComputeStatus derives the reward status at the given instant. Pending wins
// over everything, a used reward is completed, a passed expiry makes it
// expired, otherwise it is available. Rewards without an expiry never expire.
// Every list, detail and redemption-eligibility path must go through this
// single derivation.
func ComputeStatus(r Reward, now time.Time) Status {
	switch {
	case r.Pending:
		return StatusPending
	case r.Used:
		return StatusCompleted
	case r.ExpiresAt != nil && now.After(*r.ExpiresAt):
		return StatusExpired
	default:
		return StatusAvailable
	}
}
