package requests

import "time"

// Kind separates the two request queues.
type Kind string

const (
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
)

// Valid reports whether the kind is one of the two queues.
func (k Kind) Valid() bool {
	return k == KindDeposit || k == KindWithdrawal
}

// Status is the workflow state. Pending is the only non-terminal state; an
// approved or rejected request never changes again.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// WalletRequest is a user-submitted intent to move money, awaiting an admin
// decision. Approval posts the corresponding ledger transaction.
type WalletRequest struct {
	ID          string
	Kind        Kind
	UserID      string
	UserName    string
	Amount      int64
	Method      string
	Details     string
	Status      Status
	SubmittedAt time.Time
	DecidedAt   *time.Time
}
