package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-health-sync/internal/domain/records"
	"pet-health-sync/internal/domain/sharing"
)

type redemptionKey struct {
	petID  string
	userID string
}

type redemptionRepo struct {
	mu    sync.RWMutex
	byKey map[redemptionKey]records.Redemption
}

func NewRedemptionRepo() sharing.RedemptionRepository {
	return &redemptionRepo{
		byKey: make(map[redemptionKey]records.Redemption),
	}
}

func (r *redemptionRepo) Upsert(ctx context.Context, red records.Redemption) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(red.PetID) == "" || strings.TrimSpace(red.UserID) == "" {
		return errors.New("redemption pet id and user id required")
	}
	r.byKey[redemptionKey{red.PetID, red.UserID}] = red
	return nil
}

func (r *redemptionRepo) Get(ctx context.Context, petID, userID string) (records.Redemption, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	red, ok := r.byKey[redemptionKey{petID, userID}]
	if !ok {
		return records.Redemption{}, records.ErrNotFound
	}
	return red, nil
}

func (r *redemptionRepo) ListByPet(ctx context.Context, petID string) ([]records.Redemption, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]records.Redemption, 0)
	for _, red := range r.byKey {
		if red.PetID == petID {
			out = append(out, red)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RedeemedAt.Before(out[j].RedeemedAt)
	})
	return out, nil
}

func (r *redemptionRepo) Update(ctx context.Context, red records.Redemption) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := redemptionKey{red.PetID, red.UserID}
	if _, exists := r.byKey[key]; !exists {
		return records.ErrNotFound
	}
	r.byKey[key] = red
	return nil
}
