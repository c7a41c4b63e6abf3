package rewards

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu     sync.RWMutex
	byUser map[string][]Reward // newest first
}

// NewMemoryRepository constructs an in-memory repository for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{byUser: make(map[string][]Reward)}
}

func (r *memoryRepository) Create(_ context.Context, reward Reward) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[reward.UserID] = append([]Reward{reward}, r.byUser[reward.UserID]...)
	return nil
}

func (r *memoryRepository) Get(_ context.Context, userID, rewardID string) (Reward, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, reward := range r.byUser[userID] {
		if reward.ID == rewardID {
			return reward, nil
		}
	}
	return Reward{}, ErrNotFound
}

func (r *memoryRepository) ListByUser(_ context.Context, userID string) ([]Reward, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Reward, len(r.byUser[userID]))
	copy(out, r.byUser[userID])
	return out, nil
}

func (r *memoryRepository) ListActive(_ context.Context, now time.Time) ([]Reward, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Reward
	for _, list := range r.byUser {
		for _, reward := range list {
			if ComputeStatus(reward, now) == StatusAvailable {
				out = append(out, reward)
			}
		}
	}
	return out, nil
}

func (r *memoryRepository) MarkUsed(_ context.Context, userID, rewardID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.byUser[userID]
	for i := range list {
		if list[i].ID != rewardID {
			continue
		}
		if list[i].Used || list[i].Pending {
			return ErrRewardUsed
		}
		list[i].Used = true
		return nil
	}
	return ErrNotFound
}

func (r *memoryRepository) Update(_ context.Context, reward Reward) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.byUser[reward.UserID]
	for i := range list {
		if list[i].ID == reward.ID {
			list[i] = reward
			return nil
		}
	}
	return ErrNotFound
}

func (r *memoryRepository) Delete(_ context.Context, userID, rewardID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.byUser[userID]
	for i := range list {
		if list[i].ID == rewardID {
			r.byUser[userID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
