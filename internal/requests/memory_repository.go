package requests

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu    sync.RWMutex
	byID  map[string]*WalletRequest
	order []string // insertion order, oldest first
}

// NewMemoryRepository constructs an in-memory repository for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{byID: make(map[string]*WalletRequest)}
}

func (r *memoryRepository) Create(_ context.Context, req WalletRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := req
	r.byID[req.ID] = &stored
	r.order = append(r.order, req.ID)
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (WalletRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.byID[id]
	if !ok {
		return WalletRequest{}, ErrNotFound
	}
	return *req, nil
}

func (r *memoryRepository) List(_ context.Context, kind Kind, status Status) ([]WalletRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []WalletRequest
	for i := len(r.order) - 1; i >= 0; i-- {
		req := r.byID[r.order[i]]
		if req.Kind == kind && req.Status == status {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *memoryRepository) CountPending(_ context.Context, kind Kind) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, req := range r.byID {
		if req.Kind == kind && req.Status == StatusPending {
			count++
		}
	}
	return count, nil
}

func (r *memoryRepository) Reopen(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.byID[id]
	if !ok || req.Status != StatusApproved {
		return ErrNotFound
	}
	req.Status = StatusPending
	req.DecidedAt = nil
	return nil
}

func (r *memoryRepository) Transition(_ context.Context, id string, to Status, decidedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	if req.Status != StatusPending {
		return ErrNotPending
	}
	req.Status = to
	utc := decidedAt.UTC()
	req.DecidedAt = &utc
	return nil
}
