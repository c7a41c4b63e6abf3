package ledger

import (
	"context"
	"sync"
	"time"
)

type walletRecord struct {
	balance      int64
	updatedAt    time.Time
	transactions []Transaction // newest first
}

type inMemoryLedger struct {
	mu      sync.RWMutex
	wallets map[string]*walletRecord
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit
// tests and backend-less development. The mutex spans the whole
// read-modify-write, so each posting is atomic per process.
func NewInMemory() Ledger {
	return &inMemoryLedger{wallets: make(map[string]*walletRecord)}
}

func (l *inMemoryLedger) Wallet(_ context.Context, userID string) (Wallet, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.wallets[userID]
	if !ok {
		return Wallet{UserID: userID}, nil
	}
	return Wallet{UserID: userID, Balance: rec.balance, UpdatedAt: rec.updatedAt}, nil
}

func (l *inMemoryLedger) Apply(_ context.Context, userID string, typ Type, amount int64, description string) (Result, error) {
	dir, err := validate(typ, amount)
	if err != nil {
		return Result{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.wallets[userID]
	if !ok {
		rec = &walletRecord{}
		l.wallets[userID] = rec
	}

	if dir == Debit && rec.balance < amount {
		return Result{}, ErrInsufficientFunds
	}

	tx := Transaction{
		ID:          NewTransactionID(),
		UserID:      userID,
		Type:        typ,
		Amount:      amount,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}

	if dir == Credit {
		rec.balance += amount
	} else {
		rec.balance -= amount
	}
	rec.updatedAt = tx.CreatedAt
	rec.transactions = append([]Transaction{tx}, rec.transactions...)

	return Result{Transaction: tx, Balance: rec.balance}, nil
}

func (l *inMemoryLedger) Transactions(_ context.Context, userID string, limit int) ([]Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.wallets[userID]
	if !ok {
		return nil, nil
	}
	txs := rec.transactions
	if limit > 0 && limit < len(txs) {
		txs = txs[:limit]
	}
	out := make([]Transaction, len(txs))
	copy(out, txs)
	return out, nil
}
