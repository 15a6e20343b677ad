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

type tokenRepo struct {
	mu     sync.RWMutex
	byCode map[string]sharing.ShareToken
}

func NewTokenRepo() sharing.TokenRepository {
	return &tokenRepo{
		byCode: make(map[string]sharing.ShareToken),
	}
}

func (r *tokenRepo) Create(ctx context.Context, t sharing.ShareToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(t.Code) == "" {
		return errors.New("token code required")
	}
	if _, exists := r.byCode[t.Code]; exists {
		return errors.New("token already exists")
	}
	r.byCode[t.Code] = t
	return nil
}

func (r *tokenRepo) GetByCode(ctx context.Context, code string) (sharing.ShareToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byCode[code]
	if !ok {
		return sharing.ShareToken{}, records.ErrNotFound
	}
	return t, nil
}

func (r *tokenRepo) GetActiveByCode(ctx context.Context, code string) (sharing.ShareToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byCode[code]
	if !ok || !t.Active {
		// un token desactivado no existe para el canje
		return sharing.ShareToken{}, records.ErrNotFound
	}
	return t, nil
}

func (r *tokenRepo) ListByPet(ctx context.Context, petID string) ([]sharing.ShareToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]sharing.ShareToken, 0)
	for _, t := range r.byCode {
		if t.PetID == petID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *tokenRepo) Update(ctx context.Context, t sharing.ShareToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byCode[t.Code]; !exists {
		return records.ErrNotFound
	}
	r.byCode[t.Code] = t
	return nil
}
