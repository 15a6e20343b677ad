package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"pet-health-sync/internal/domain/records"
)

// -------------------------
// Fakes
// -------------------------

type fakePets struct {
	byID map[string]records.Pet
}

func (f *fakePets) GetPet(ctx context.Context, petID string) (records.Pet, error) {
	p, ok := f.byID[petID]
	if !ok {
		return records.Pet{}, records.ErrNotFound
	}
	return p, nil
}

type redKey struct{ pet, user string }

type fakeRedemptions struct {
	byKey map[redKey]records.Redemption
}

func (f *fakeRedemptions) Get(ctx context.Context, petID, userID string) (records.Redemption, error) {
	r, ok := f.byKey[redKey{petID, userID}]
	if !ok {
		return records.Redemption{}, records.ErrNotFound
	}
	return r, nil
}

func newResolver(pets map[string]records.Pet, reds map[redKey]records.Redemption) *Resolver {
	if reds == nil {
		reds = map[redKey]records.Redemption{}
	}
	return NewResolver(&fakePets{byID: pets}, &fakeRedemptions{byKey: reds})
}

// -------------------------
// Tests
// -------------------------

func TestResolveTier_OwnerMatchWins(t *testing.T) {
	r := newResolver(map[string]records.Pet{
		"p1": {ID: "p1", OwnerID: "alice"},
	}, map[redKey]records.Redemption{
		// incluso con una redemption revocada, el owner sigue siendo owner
		{"p1", "alice"}: {PetID: "p1", UserID: "alice", Tier: records.TierGuest, Revoked: true},
	})

	tier, err := r.ResolveTier(context.Background(), "p1", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tier != records.TierOwner {
		t.Fatalf("expected owner, got %s", tier)
	}
}

func TestResolveTier_RedemptionTier(t *testing.T) {
	r := newResolver(map[string]records.Pet{
		"p1": {ID: "p1", OwnerID: "alice"},
	}, map[redKey]records.Redemption{
		{"p1", "bob"}:  {PetID: "p1", UserID: "bob", Tier: records.TierFull, RedeemedAt: time.Now()},
		{"p1", "carl"}: {PetID: "p1", UserID: "carl", Tier: records.TierGuest, RedeemedAt: time.Now()},
	})

	tier, err := r.ResolveTier(context.Background(), "p1", "bob")
	if err != nil || tier != records.TierFull {
		t.Fatalf("expected full for bob, got %s err=%v", tier, err)
	}

	tier, err = r.ResolveTier(context.Background(), "p1", "carl")
	if err != nil || tier != records.TierGuest {
		t.Fatalf("expected guest for carl, got %s err=%v", tier, err)
	}
}

func TestResolveTier_NoRedemptionForbidden(t *testing.T) {
	r := newResolver(map[string]records.Pet{
		"p1": {ID: "p1", OwnerID: "alice"},
	}, nil)

	_, err := r.ResolveTier(context.Background(), "p1", "mallory")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestResolveTier_RevokedRedemptionForbidden(t *testing.T) {
	r := newResolver(map[string]records.Pet{
		"p1": {ID: "p1", OwnerID: "alice"},
	}, map[redKey]records.Redemption{
		{"p1", "bob"}: {PetID: "p1", UserID: "bob", Tier: records.TierFull, Revoked: true},
	})

	_, err := r.ResolveTier(context.Background(), "p1", "bob")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for revoked redemption, got %v", err)
	}
}

func TestResolveTier_UnknownPetNotFound(t *testing.T) {
	r := newResolver(map[string]records.Pet{}, nil)

	_, err := r.ResolveTier(context.Background(), "ghost", "alice")
	if !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveTier_EmptyInput(t *testing.T) {
	r := newResolver(nil, nil)

	if _, err := r.ResolveTier(context.Background(), "", "alice"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := r.ResolveTier(context.Background(), "p1", "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
