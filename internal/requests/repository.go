package requests

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates no request exists with that id.
	ErrNotFound = errors.New("request not found")

	// ErrNotPending indicates a state transition was attempted on a request
	// already in a terminal state.
	ErrNotPending = errors.New("request is not pending")
)

// Repository persists wallet requests. Transition performs the
// pending-to-terminal state change atomically; it must fail with
// ErrNotPending when the request has already been decided. Reopen reverts an
// approved request to pending after a failed ledger posting.
type Repository interface {
	Create(ctx context.Context, req WalletRequest) error
	Get(ctx context.Context, id string) (WalletRequest, error)
	List(ctx context.Context, kind Kind, status Status) ([]WalletRequest, error)
	CountPending(ctx context.Context, kind Kind) (int, error)
	Transition(ctx context.Context, id string, to Status, decidedAt time.Time) error
	Reopen(ctx context.Context, id string) error
}

// PostgresRepository stores wallet requests in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed request repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a pending request.
func (r *PostgresRepository) Create(ctx context.Context, req WalletRequest) error {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO wallet_requests (id, kind, user_id, user_name, amount, method, details, status, submitted_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, string(req.Kind), req.UserID, req.UserName, req.Amount, req.Method, req.Details,
		string(req.Status), req.SubmittedAt.UTC())
	return err
}

// Get fetches one request by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (WalletRequest, error) {
	reqID, err := uuid.Parse(id)
	if err != nil {
		return WalletRequest{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, kind, user_id, user_name, amount, method, details, status, submitted_at, decided_at
        FROM wallet_requests WHERE id = $1`, reqID)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return WalletRequest{}, ErrNotFound
		}
		return WalletRequest{}, err
	}
	return req, nil
}

// List returns requests of one kind filtered by status, newest first.
func (r *PostgresRepository) List(ctx context.Context, kind Kind, status Status) ([]WalletRequest, error) {
	rows, err := r.db.Query(ctx, `SELECT id, kind, user_id, user_name, amount, method, details, status, submitted_at, decided_at
        FROM wallet_requests WHERE kind = $1 AND status = $2
        ORDER BY submitted_at DESC, id DESC`, string(kind), string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WalletRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// CountPending counts the open requests of one kind (drives admin badges).
func (r *PostgresRepository) CountPending(ctx context.Context, kind Kind) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM wallet_requests WHERE kind = $1 AND status = $2`,
		string(kind), string(StatusPending)).Scan(&count)
	return count, err
}

// Transition flips a pending request into a terminal state. The status guard
// in the WHERE clause makes the check-and-set atomic.
func (r *PostgresRepository) Transition(ctx context.Context, id string, to Status, decidedAt time.Time) error {
	reqID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE wallet_requests SET status = $1, decided_at = $2
        WHERE id = $3 AND status = $4`,
		string(to), decidedAt.UTC(), reqID, string(StatusPending))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM wallet_requests WHERE id = $1)`, reqID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrNotPending
	}
	return nil
}

// Reopen puts an approved request back into the pending queue. It is only
// called when the ledger rejected the posting after the approval transition.
func (r *PostgresRepository) Reopen(ctx context.Context, id string) error {
	reqID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE wallet_requests SET status = $1, decided_at = NULL
        WHERE id = $2 AND status = $3`,
		string(StatusPending), reqID, string(StatusApproved))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRequest(row pgx.Row) (WalletRequest, error) {
	var (
		id          uuid.UUID
		kind        string
		status      string
		submittedAt time.Time
		decidedAt   *time.Time
		req         WalletRequest
	)
	if err := row.Scan(&id, &kind, &req.UserID, &req.UserName, &req.Amount, &req.Method, &req.Details,
		&status, &submittedAt, &decidedAt); err != nil {
		return WalletRequest{}, err
	}
	req.ID = id.String()
	req.Kind = Kind(kind)
	req.Status = Status(status)
	req.SubmittedAt = submittedAt.UTC()
	if decidedAt != nil {
		utc := decidedAt.UTC()
		req.DecidedAt = &utc
	}
	return req, nil
}
