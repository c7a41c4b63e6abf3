package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInsufficientFunds occurs when a debit-direction transaction exceeds
	// the wallet's current balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount indicates a non-positive amount was supplied.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrUnknownType indicates a transaction type outside the fixed taxonomy.
	ErrUnknownType = errors.New("unknown transaction type")
)

// Type classifies a wallet transaction. The type, not a signed amount,
// determines whether the balance is credited or debited.
type Type string

const (
	TypeDeposit    Type = "deposit"
	TypeWithdrawal Type = "withdrawal"
	TypeAdjustment Type = "adjustment"
	TypeCashback   Type = "cashback"
	TypeReward     Type = "reward"
	TypeReferral   Type = "referral"
	TypeProfit     Type = "profit"
	TypePayment    Type = "payment"
	TypeDeduction  Type = "deduction"
)

// Direction is the balance effect of a transaction type.
type Direction int

const (
	// Credit increases the wallet balance.
	Credit Direction = iota + 1
	// Debit decreases the wallet balance and is subject to the
	// insufficient-funds check.
	Debit
)

var directions = map[Type]Direction{
	TypeDeposit:    Credit,
	TypeAdjustment: Credit,
	TypeCashback:   Credit,
	TypeReward:     Credit,
	TypeReferral:   Credit,
	TypeProfit:     Credit,
	TypeWithdrawal: Debit,
	TypePayment:    Debit,
	TypeDeduction:  Debit,
}

// DirectionOf returns the balance effect for a transaction type.
func DirectionOf(t Type) (Direction, bool) {
	d, ok := directions[t]
	return d, ok
}

// Transaction is one immutable entry in a wallet's history. Amounts are in
// paisa (PKR minor units) and always positive; the type carries the sign.
type Transaction struct {
	ID          string
	UserID      string
	Type        Type
	Amount      int64
	Description string
	CreatedAt   time.Time
}

// Wallet is a point-in-time balance snapshot for one user.
type Wallet struct {
	UserID    string
	Balance   int64
	UpdatedAt time.Time
}

// Result captures the outcome of a successful posting.
type Result struct {
	Transaction Transaction
	Balance     int64
}

// Ledger defines the contract implemented by ledger backends (e.g. Postgres).
// Reads fall back to a zero-value wallet; writes validate amount and type and
// enforce the overdraw check before any state changes.
type Ledger interface {
	Wallet(ctx context.Context, userID string) (Wallet, error)
	Apply(ctx context.Context, userID string, typ Type, amount int64, description string) (Result, error)
	Transactions(ctx context.Context, userID string, limit int) ([]Transaction, error)
}

// NewTransactionID mints a time-sortable unique transaction identifier.
func NewTransactionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func validate(typ Type, amount int64) (Direction, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	dir, ok := DirectionOf(typ)
	if !ok {
		return 0, ErrUnknownType
	}
	return dir, nil
}
