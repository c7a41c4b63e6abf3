package rewards

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates the reward does not exist for that user.
	ErrNotFound = errors.New("reward not found")

	// ErrRewardUsed indicates the reward has already been redeemed.
	ErrRewardUsed = errors.New("reward already redeemed")
)

// Repository persists reward grants. MarkUsed flips the used flag atomically;
// it must fail with ErrRewardUsed when another writer won the flip, so only
// one redemption can ever post the ledger credit.
type Repository interface {
	Create(ctx context.Context, r Reward) error
	Get(ctx context.Context, userID, rewardID string) (Reward, error)
	ListByUser(ctx context.Context, userID string) ([]Reward, error)
	ListActive(ctx context.Context, now time.Time) ([]Reward, error)
	MarkUsed(ctx context.Context, userID, rewardID string) error
	Update(ctx context.Context, r Reward) error
	Delete(ctx context.Context, userID, rewardID string) error
}

// PostgresRepository stores rewards in PostgreSQL. Rows written by the legacy
// client may carry the expiry in legacy_expiry instead of expires_at; the
// COALESCE below is the only read-compatibility shim, nothing above the
// repository sees the old column.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed rewards repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `id, user_id, title, amount, description, issued_at,
        COALESCE(expires_at, legacy_expiry) AS expires_at, used, pending`

// Create inserts a reward grant.
func (r *PostgresRepository) Create(ctx context.Context, reward Reward) error {
	rewardID, err := uuid.Parse(reward.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO rewards (id, user_id, title, amount, description, issued_at, expires_at, used, pending)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rewardID, reward.UserID, reward.Title, reward.Amount, reward.Description,
		reward.IssuedAt.UTC(), expiryParam(reward.ExpiresAt), reward.Used, reward.Pending)
	return err
}

// Get fetches one reward scoped to its owning user.
func (r *PostgresRepository) Get(ctx context.Context, userID, rewardID string) (Reward, error) {
	id, err := uuid.Parse(rewardID)
	if err != nil {
		return Reward{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM rewards WHERE id = $1 AND user_id = $2`, id, userID)
	reward, err := scanReward(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Reward{}, ErrNotFound
		}
		return Reward{}, err
	}
	return reward, nil
}

// ListByUser returns a user's rewards newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Reward, error) {
	rows, err := r.db.Query(ctx, `SELECT `+selectColumns+` FROM rewards WHERE user_id = $1
        ORDER BY issued_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRewards(rows)
}

// ListActive returns all rewards that are neither used, pending, nor past
// their expiry at the given instant.
func (r *PostgresRepository) ListActive(ctx context.Context, now time.Time) ([]Reward, error) {
	rows, err := r.db.Query(ctx, `SELECT `+selectColumns+` FROM rewards
        WHERE used = false AND pending = false
          AND (expires_at IS NULL AND legacy_expiry IS NULL
               OR COALESCE(expires_at, legacy_expiry) > $1)`, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRewards(rows)
}

// MarkUsed flips used to true. The status guard in the WHERE clause makes the
// check-and-set atomic: a concurrent redeem loses with zero rows affected.
func (r *PostgresRepository) MarkUsed(ctx context.Context, userID, rewardID string) error {
	id, err := uuid.Parse(rewardID)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE rewards SET used = true
        WHERE id = $1 AND user_id = $2 AND used = false AND pending = false`, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rewards WHERE id = $1 AND user_id = $2)`,
			id, userID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrRewardUsed
	}
	return nil
}

// Update rewrites the mutable reward fields (used flag and expiry).
func (r *PostgresRepository) Update(ctx context.Context, reward Reward) error {
	id, err := uuid.Parse(reward.ID)
	if err != nil {
		return err
	}
	cmd, err := r.db.Exec(ctx, `UPDATE rewards SET used = $1, pending = $2, expires_at = $3, legacy_expiry = NULL
        WHERE id = $4 AND user_id = $5`,
		reward.Used, reward.Pending, expiryParam(reward.ExpiresAt), id, reward.UserID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the reward row outright.
func (r *PostgresRepository) Delete(ctx context.Context, userID, rewardID string) error {
	id, err := uuid.Parse(rewardID)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM rewards WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func expiryParam(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func scanReward(row pgx.Row) (Reward, error) {
	var (
		id       uuid.UUID
		issuedAt time.Time
		expires  *time.Time
		reward   Reward
	)
	if err := row.Scan(&id, &reward.UserID, &reward.Title, &reward.Amount, &reward.Description,
		&issuedAt, &expires, &reward.Used, &reward.Pending); err != nil {
		return Reward{}, err
	}
	reward.ID = id.String()
	reward.IssuedAt = issuedAt.UTC()
	if expires != nil {
		utc := expires.UTC()
		reward.ExpiresAt = &utc
	}
	return reward, nil
}

func collectRewards(rows pgx.Rows) ([]Reward, error) {
	var out []Reward
	for rows.Next() {
		reward, err := scanReward(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reward)
	}
	return out, rows.Err()
}
