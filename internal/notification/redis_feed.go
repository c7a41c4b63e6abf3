package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound indicates the notification is not present in the feed.
var ErrNotFound = errors.New("notification not found")

const feedKeyPrefix = "feed:v1:"

// RedisFeedStore keeps feeds as Redis lists. LPUSH + LTRIM give newest-first
// order and an atomic cap without a read-modify-write cycle.
type RedisFeedStore struct {
	client *redis.Client
}

// NewRedisFeedStore builds a Redis-backed feed store.
func NewRedisFeedStore(client *redis.Client) *RedisFeedStore {
	return &RedisFeedStore{client: client}
}

func (s *RedisFeedStore) Push(ctx context.Context, feed string, n Notification, limit int) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}

	key := feedKeyPrefix + feed
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, payload)
	if limit > 0 {
		pipe.LTrim(ctx, key, 0, int64(limit)-1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push notification: %w", err)
	}
	return nil
}

func (s *RedisFeedStore) List(ctx context.Context, feed string, limit int) ([]Notification, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	raw, err := s.client.LRange(ctx, feedKeyPrefix+feed, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	out := make([]Notification, 0, len(raw))
	for _, item := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *RedisFeedStore) MarkRead(ctx context.Context, feed, id string) error {
	key := feedKeyPrefix + feed
	raw, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return err
	}
	for i, item := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			return err
		}
		if n.ID != id {
			continue
		}
		n.Read = true
		payload, err := json.Marshal(n)
		if err != nil {
			return err
		}
		return s.client.LSet(ctx, key, int64(i), payload).Err()
	}
	return ErrNotFound
}
