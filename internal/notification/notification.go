package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// KindWalletAdjustment indicates an admin balance adjustment event.
	KindWalletAdjustment = "wallet_adjustment"
	// KindReward indicates a reward grant/redeem/removal event.
	KindReward = "reward"
	// KindRequest indicates a deposit/withdrawal request lifecycle event.
	KindRequest = "wallet_request"

	adminFeedKey   = "notifications"
	userFeedPrefix = "notifications:"
)

// Notification is one entry in a feed. Feeds are strictly newest-first by
// insertion order; CreatedAt is assigned at insertion so re-sorting by
// timestamp cannot reorder entries.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	Message   string    `json:"message"`
	Icon      string    `json:"icon,omitempty"`
	Kind      string    `json:"kind"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedStore persists notification feeds. Push prepends; a positive cap trims
// the feed to its cap newest entries atomically with the prepend.
type FeedStore interface {
	Push(ctx context.Context, feed string, n Notification, limit int) error
	List(ctx context.Context, feed string, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, feed, id string) error
}

// Service fans ledger and reward events out to the admin feed and per-user
// feeds. It is the single owner of feed naming and cap policy.
type Service struct {
	store    FeedStore
	adminCap int
	userCap  int
	logger   *slog.Logger
}

// NewService builds the fan-out service. adminCap bounds the admin feed;
// userCap of zero leaves user feeds unbounded.
func NewService(store FeedStore, adminCap, userCap int, logger *slog.Logger) *Service {
	return &Service{store: store, adminCap: adminCap, userCap: userCap, logger: logger}
}

// NotifyAdmin prepends an entry to the global admin feed.
func (s *Service) NotifyAdmin(ctx context.Context, message, icon, kind string) error {
	n := Notification{
		ID:        newID(),
		Message:   message,
		Icon:      icon,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Push(ctx, adminFeedKey, n, s.adminCap); err != nil {
		s.logger.Warn("admin notification dropped", "kind", kind, "error", err)
		return err
	}
	return nil
}

// NotifyUser prepends an entry to the given user's feed.
func (s *Service) NotifyUser(ctx context.Context, userID, title, message, kind string) error {
	n := Notification{
		ID:        newID(),
		Title:     title,
		Message:   message,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Push(ctx, userFeedPrefix+userID, n, s.userCap); err != nil {
		s.logger.Warn("user notification dropped", "user_id", userID, "kind", kind, "error", err)
		return err
	}
	return nil
}

// AdminFeed lists the admin feed newest first.
func (s *Service) AdminFeed(ctx context.Context, limit int) ([]Notification, error) {
	return s.store.List(ctx, adminFeedKey, limit)
}

// UserFeed lists a user's feed newest first.
func (s *Service) UserFeed(ctx context.Context, userID string, limit int) ([]Notification, error) {
	return s.store.List(ctx, userFeedPrefix+userID, limit)
}

// MarkUserRead flags one entry in a user's feed as read.
func (s *Service) MarkUserRead(ctx context.Context, userID, notificationID string) error {
	return s.store.MarkRead(ctx, userFeedPrefix+userID, notificationID)
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
