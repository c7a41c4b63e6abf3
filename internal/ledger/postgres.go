package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger persists wallets and their transaction logs in PostgreSQL.
// Postings lock the wallet row (SELECT ... FOR UPDATE) so concurrent writers
// to the same wallet serialize instead of losing updates.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Wallet returns the stored balance, or a zero-value wallet when no row exists.
func (l *PostgresLedger) Wallet(ctx context.Context, userID string) (Wallet, error) {
	row := l.db.QueryRow(ctx, `SELECT balance, updated_at FROM wallets WHERE user_id = $1`, userID)
	w := Wallet{UserID: userID}
	var updatedAt time.Time
	if err := row.Scan(&w.Balance, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return w, nil
		}
		return Wallet{}, err
	}
	w.UpdatedAt = updatedAt.UTC()
	return w, nil
}

// Apply posts a single transaction and adjusts the balance in one database
// transaction. The wallet row is created lazily on first posting.
func (l *PostgresLedger) Apply(ctx context.Context, userID string, typ Type, amount int64, description string) (Result, error) {
	dir, err := validate(typ, amount)
	if err != nil {
		return Result{}, err
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Result{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `INSERT INTO wallets (user_id, balance, updated_at) VALUES ($1, 0, now())
        ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
		return Result{}, err
	}

	var balance int64
	if err := tx.QueryRow(ctx, `SELECT balance FROM wallets WHERE user_id = $1 FOR UPDATE`, userID).Scan(&balance); err != nil {
		return Result{}, err
	}

	if dir == Debit && balance < amount {
		return Result{}, ErrInsufficientFunds
	}

	if dir == Credit {
		balance += amount
	} else {
		balance -= amount
	}

	now := time.Now().UTC()
	entry := Transaction{
		ID:          NewTransactionID(),
		UserID:      userID,
		Type:        typ,
		Amount:      amount,
		Description: description,
		CreatedAt:   now,
	}

	txID, err := uuid.Parse(entry.ID)
	if err != nil {
		return Result{}, err
	}

	if _, err := tx.Exec(ctx, `UPDATE wallets SET balance = $1, updated_at = $2 WHERE user_id = $3`,
		balance, now, userID); err != nil {
		return Result{}, err
	}

	if _, err := tx.Exec(ctx, `INSERT INTO transactions (id, user_id, type, amount, description, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		txID, userID, string(typ), amount, description, now); err != nil {
		return Result{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Result{}, err
	}

	return Result{Transaction: entry, Balance: balance}, nil
}

// Transactions lists a wallet's history newest first.
func (l *PostgresLedger) Transactions(ctx context.Context, userID string, limit int) ([]Transaction, error) {
	const query = `SELECT id, type, amount, description, created_at
        FROM transactions WHERE user_id = $1
        ORDER BY created_at DESC, id DESC`

	var rows pgx.Rows
	var err error
	if limit > 0 {
		rows, err = l.db.Query(ctx, query+` LIMIT $2`, userID, limit)
	} else {
		rows, err = l.db.Query(ctx, query, userID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var (
			id        uuid.UUID
			typ       string
			createdAt time.Time
			entry     Transaction
		)
		if err := rows.Scan(&id, &typ, &entry.Amount, &entry.Description, &createdAt); err != nil {
			return nil, err
		}
		entry.ID = id.String()
		entry.UserID = userID
		entry.Type = Type(typ)
		entry.CreatedAt = createdAt.UTC()
		out = append(out, entry)
	}
	return out, rows.Err()
}
