package notification

import (
	"context"
	"sync"
)

type memoryFeedStore struct {
	mu    sync.RWMutex
	feeds map[string][]Notification
}

// NewMemoryFeedStore constructs an in-memory feed store for tests and
// backend-less development.
func NewMemoryFeedStore() FeedStore {
	return &memoryFeedStore{feeds: make(map[string][]Notification)}
}

func (s *memoryFeedStore) Push(_ context.Context, feed string, n Notification, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := append([]Notification{n}, s.feeds[feed]...)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	s.feeds[feed] = entries
	return nil
}

func (s *memoryFeedStore) List(_ context.Context, feed string, limit int) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.feeds[feed]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	out := make([]Notification, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *memoryFeedStore) MarkRead(_ context.Context, feed, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.feeds[feed] {
		if n.ID == id {
			s.feeds[feed][i].Read = true
			return nil
		}
	}
	return ErrNotFound
}
