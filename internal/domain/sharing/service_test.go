package sharing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"pet-health-sync/internal/domain/records"
)

// -------------------------
// Fakes (in-memory)
// -------------------------

type testTokenRepo struct {
	byCode map[string]ShareToken
}

func newTestTokenRepo() *testTokenRepo {
	return &testTokenRepo{byCode: map[string]ShareToken{}}
}

func (r *testTokenRepo) Create(ctx context.Context, t ShareToken) error {
	if _, ok := r.byCode[t.Code]; ok {
		return errors.New("repo: already exists")
	}
	r.byCode[t.Code] = t
	return nil
}

func (r *testTokenRepo) GetByCode(ctx context.Context, code string) (ShareToken, error) {
	t, ok := r.byCode[code]
	if !ok {
		return ShareToken{}, records.ErrNotFound
	}
	return t, nil
}

func (r *testTokenRepo) GetActiveByCode(ctx context.Context, code string) (ShareToken, error) {
	t, ok := r.byCode[code]
	if !ok || !t.Active {
		return ShareToken{}, records.ErrNotFound
	}
	return t, nil
}

func (r *testTokenRepo) ListByPet(ctx context.Context, petID string) ([]ShareToken, error) {
	out := make([]ShareToken, 0)
	for _, t := range r.byCode {
		if t.PetID == petID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *testTokenRepo) Update(ctx context.Context, t ShareToken) error {
	if _, ok := r.byCode[t.Code]; !ok {
		return records.ErrNotFound
	}
	r.byCode[t.Code] = t
	return nil
}

type redKey struct{ pet, user string }

type testRedemptionRepo struct {
	byKey map[redKey]records.Redemption
}

func newTestRedemptionRepo() *testRedemptionRepo {
	return &testRedemptionRepo{byKey: map[redKey]records.Redemption{}}
}

func (r *testRedemptionRepo) Upsert(ctx context.Context, red records.Redemption) error {
	r.byKey[redKey{red.PetID, red.UserID}] = red
	return nil
}

func (r *testRedemptionRepo) Get(ctx context.Context, petID, userID string) (records.Redemption, error) {
	red, ok := r.byKey[redKey{petID, userID}]
	if !ok {
		return records.Redemption{}, records.ErrNotFound
	}
	return red, nil
}

func (r *testRedemptionRepo) ListByPet(ctx context.Context, petID string) ([]records.Redemption, error) {
	out := make([]records.Redemption, 0)
	for _, red := range r.byKey {
		if red.PetID == petID {
			out = append(out, red)
		}
	}
	return out, nil
}

func (r *testRedemptionRepo) Update(ctx context.Context, red records.Redemption) error {
	key := redKey{red.PetID, red.UserID}
	if _, ok := r.byKey[key]; !ok {
		return records.ErrNotFound
	}
	r.byKey[key] = red
	return nil
}

// testStore implementa records.Store con lo justo para snapshots.
type testStore struct {
	pets    map[string]records.Pet
	insulin []records.InsulinLog
	feeding []records.FeedingLog
	weights []records.WeightLog
	vets    []records.VetInfo
	scheds  []records.Schedule
}

func newTestStore() *testStore {
	return &testStore{pets: map[string]records.Pet{}}
}

func (s *testStore) GetPet(ctx context.Context, petID string) (records.Pet, error) {
	p, ok := s.pets[petID]
	if !ok {
		return records.Pet{}, records.ErrNotFound
	}
	return p, nil
}

func (s *testStore) UpsertPet(ctx context.Context, p records.Pet) error {
	s.pets[p.ID] = p
	return nil
}

func (s *testStore) PetsSince(ctx context.Context, petID string, since time.Time) ([]records.Pet, error) {
	out := make([]records.Pet, 0, 1)
	if p, ok := s.pets[petID]; ok && !p.LastModified.Before(since) {
		out = append(out, p)
	}
	return out, nil
}

func (s *testStore) UpsertInsulinLog(ctx context.Context, l records.InsulinLog) error {
	s.insulin = append(s.insulin, l)
	return nil
}

func (s *testStore) InsulinLogsSince(ctx context.Context, petID string, since time.Time) ([]records.InsulinLog, error) {
	out := make([]records.InsulinLog, 0)
	for _, l := range s.insulin {
		if l.PetID == petID && !l.LastModified.Before(since) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *testStore) UpsertFeedingLog(ctx context.Context, l records.FeedingLog) error {
	s.feeding = append(s.feeding, l)
	return nil
}

func (s *testStore) FeedingLogsSince(ctx context.Context, petID string, since time.Time) ([]records.FeedingLog, error) {
	out := make([]records.FeedingLog, 0)
	for _, l := range s.feeding {
		if l.PetID == petID && !l.LastModified.Before(since) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *testStore) UpsertWeightLog(ctx context.Context, l records.WeightLog) error {
	s.weights = append(s.weights, l)
	return nil
}

func (s *testStore) WeightLogsSince(ctx context.Context, petID string, since time.Time) ([]records.WeightLog, error) {
	out := make([]records.WeightLog, 0)
	for _, l := range s.weights {
		if l.PetID == petID && !l.LastModified.Before(since) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *testStore) UpsertVetInfo(ctx context.Context, v records.VetInfo) error {
	s.vets = append(s.vets, v)
	return nil
}

func (s *testStore) VetInfosSince(ctx context.Context, petID string, since time.Time) ([]records.VetInfo, error) {
	out := make([]records.VetInfo, 0)
	for _, v := range s.vets {
		if v.PetID == petID && !v.LastModified.Before(since) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *testStore) UpsertSchedule(ctx context.Context, sc records.Schedule) error {
	s.scheds = append(s.scheds, sc)
	return nil
}

func (s *testStore) SchedulesSince(ctx context.Context, petID string, since time.Time) ([]records.Schedule, error) {
	out := make([]records.Schedule, 0)
	for _, sc := range s.scheds {
		if sc.PetID == petID && !sc.LastModified.Before(since) {
			out = append(out, sc)
		}
	}
	return out, nil
}

// testResolver: owner match o redemption, igual que access.Resolver pero sin
// importarlo (ciclo de imports en tests internos).
type testResolver struct {
	pets *testStore
	reds *testRedemptionRepo
}

func (r *testResolver) ResolveTier(ctx context.Context, petID, callerID string) (records.Tier, error) {
	p, err := r.pets.GetPet(ctx, petID)
	if err != nil {
		return "", err
	}
	if p.OwnerID == callerID {
		return records.TierOwner, nil
	}
	red, err := r.reds.Get(ctx, petID, callerID)
	if err != nil || red.Revoked {
		return "", ErrForbidden
	}
	return red.Tier, nil
}

type fixture struct {
	svc    *Service
	tokens *testTokenRepo
	reds   *testRedemptionRepo
	store  *testStore
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tokens := newTestTokenRepo()
	reds := newTestRedemptionRepo()
	store := newTestStore()

	svc := NewService(tokens, reds, store, &testResolver{pets: store, reds: reds})

	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	store.pets["p1"] = records.Pet{ID: "p1", OwnerID: "owner", Name: "Milo", LastModified: now}

	return &fixture{svc: svc, tokens: tokens, reds: reds, store: store, now: now}
}

// -------------------------
// Tests
// -------------------------

func TestGenerateToken_CodeShape(t *testing.T) {
	f := newFixture(t)

	tok, err := f.svc.GenerateToken(context.Background(), "p1", "owner", "Ana", records.TierFull)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tok.Code) != CodeLength {
		t.Fatalf("expected code of length %d, got %q", CodeLength, tok.Code)
	}
	for _, ch := range tok.Code {
		if !strings.ContainsRune(CodeAlphabet, ch) {
			t.Fatalf("code %q contains %q outside the alphabet", tok.Code, ch)
		}
	}
	if !tok.Active || tok.Tier != records.TierFull || tok.PetID != "p1" {
		t.Fatalf("unexpected token: %+v", tok)
	}
}

func TestGenerateToken_RetriesOnCollision(t *testing.T) {
	f := newFixture(t)

	// "AAAAAA" ya existe; el generador devuelve primero el duplicado.
	f.tokens.byCode["AAAAAA"] = ShareToken{Code: "AAAAAA", PetID: "p1", Active: true}

	calls := 0
	f.svc.generate = func() (string, error) {
		calls++
		if calls < 3 {
			return "AAAAAA", nil
		}
		return "BBBBBB", nil
	}

	tok, err := f.svc.GenerateToken(context.Background(), "p1", "owner", "", records.TierGuest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Code != "BBBBBB" {
		t.Fatalf("expected fresh code after collisions, got %q", tok.Code)
	}
	if calls != 3 {
		t.Fatalf("expected 3 generation attempts, got %d", calls)
	}
}

func TestGenerateToken_ExhaustsRetryBound(t *testing.T) {
	f := newFixture(t)

	f.tokens.byCode["AAAAAA"] = ShareToken{Code: "AAAAAA", PetID: "p1", Active: true}
	f.svc.generate = func() (string, error) { return "AAAAAA", nil }

	_, err := f.svc.GenerateToken(context.Background(), "p1", "owner", "", records.TierGuest)
	if err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
}

func TestGenerateToken_GuestCannotGenerate(t *testing.T) {
	f := newFixture(t)
	f.reds.byKey[redKey{"p1", "guest"}] = records.Redemption{PetID: "p1", UserID: "guest", Tier: records.TierGuest}

	_, err := f.svc.GenerateToken(context.Background(), "p1", "guest", "", records.TierGuest)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestGenerateToken_RejectsOwnerTier(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GenerateToken(context.Background(), "p1", "owner", "", records.TierOwner)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for owner tier, got %v", err)
	}
}

func TestRedeemToken_CreatesRedemptionAndFiltersSnapshot(t *testing.T) {
	f := newFixture(t)

	// historial: un log del futuro guest y uno del owner, más peso y vet info
	f.store.insulin = append(f.store.insulin,
		records.InsulinLog{ID: "i1", PetID: "p1", LoggedByID: "bob", LastModified: f.now},
		records.InsulinLog{ID: "i2", PetID: "p1", LoggedByID: "owner", LastModified: f.now},
	)
	f.store.weights = append(f.store.weights,
		records.WeightLog{ID: "w1", PetID: "p1", LastModified: f.now})
	f.store.vets = append(f.store.vets,
		records.VetInfo{ID: "v1", PetID: "p1", LastModified: f.now})

	f.tokens.byCode["GUEST1"] = ShareToken{Code: "GUEST1", PetID: "p1", Tier: records.TierGuest, Active: true}

	res, err := f.svc.RedeemToken(context.Background(), "guest1", "bob", "Bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.PetID != "p1" || res.Tier != records.TierGuest {
		t.Fatalf("unexpected result: %+v", res)
	}

	red, err := f.reds.Get(context.Background(), "p1", "bob")
	if err != nil || red.Tier != records.TierGuest || red.Revoked {
		t.Fatalf("expected active guest redemption, got %+v err=%v", red, err)
	}

	// snapshot filtrado uniformemente: solo logs propios, sin peso ni vet
	if len(res.Snapshot.InsulinLogs) != 1 || res.Snapshot.InsulinLogs[0].ID != "i1" {
		t.Fatalf("expected only own insulin log in snapshot, got %+v", res.Snapshot.InsulinLogs)
	}
	if len(res.Snapshot.WeightLogs) != 0 || len(res.Snapshot.VetInfos) != 0 {
		t.Fatalf("guest snapshot must exclude weight and vet info")
	}
	if len(res.Snapshot.Pets) != 1 {
		t.Fatalf("expected pet profile in snapshot")
	}
}

func TestRedeemToken_UnknownOrDeactivatedCode(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.RedeemToken(context.Background(), "NOPE99", "bob", "Bob"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown code, got %v", err)
	}

	f.tokens.byCode["DEAD99"] = ShareToken{Code: "DEAD99", PetID: "p1", Tier: records.TierFull, Active: false}
	if _, err := f.svc.RedeemToken(context.Background(), "DEAD99", "bob", "Bob"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for deactivated code, got %v", err)
	}
}

func TestRedeemToken_TombstonedPetNotFound(t *testing.T) {
	f := newFixture(t)

	f.store.pets["p2"] = records.Pet{ID: "p2", OwnerID: "owner", IsDeleted: true, LastModified: f.now}
	f.tokens.byCode["GONE77"] = ShareToken{Code: "GONE77", PetID: "p2", Tier: records.TierFull, Active: true}

	if _, err := f.svc.RedeemToken(context.Background(), "GONE77", "bob", "Bob"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for tombstoned pet, got %v", err)
	}
}

// P6: la desactivación solo bloquea canjes futuros.
func TestDeactivateToken_ForwardOnly(t *testing.T) {
	f := newFixture(t)

	f.tokens.byCode["SHARE1"] = ShareToken{Code: "SHARE1", PetID: "p1", Tier: records.TierFull, Active: true}

	// bob canjea antes de la desactivación
	if _, err := f.svc.RedeemToken(context.Background(), "SHARE1", "bob", "Bob"); err != nil {
		t.Fatalf("unexpected redeem error: %v", err)
	}

	found, err := f.svc.DeactivateToken(context.Background(), "SHARE1", "owner")
	if err != nil || !found {
		t.Fatalf("expected deactivation to succeed, found=%v err=%v", found, err)
	}

	// canje futuro bloqueado
	if _, err := f.svc.RedeemToken(context.Background(), "SHARE1", "carl", "Carl"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after deactivation, got %v", err)
	}

	// la redemption previa sigue vigente
	red, err := f.reds.Get(context.Background(), "p1", "bob")
	if err != nil || red.Revoked {
		t.Fatalf("expected bob's redemption to survive deactivation, got %+v err=%v", red, err)
	}
}

func TestDeactivateToken_UnknownCode(t *testing.T) {
	f := newFixture(t)

	found, err := f.svc.DeactivateToken(context.Background(), "NOPE99", "owner")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatalf("expected found=false for unknown code")
	}
}

// P5: revocar bloquea el acceso futuro pero la fila sigue listada.
func TestRevokeRedemption_IdempotentAndListed(t *testing.T) {
	f := newFixture(t)

	f.reds.byKey[redKey{"p1", "bob"}] = records.Redemption{
		PetID: "p1", UserID: "bob", Tier: records.TierFull, RedeemedAt: f.now,
	}

	found, err := f.svc.RevokeRedemption(context.Background(), "p1", "owner", "bob")
	if err != nil || !found {
		t.Fatalf("expected revoke to succeed, found=%v err=%v", found, err)
	}

	// idempotente
	found, err = f.svc.RevokeRedemption(context.Background(), "p1", "owner", "bob")
	if err != nil || !found {
		t.Fatalf("expected second revoke to be idempotent, found=%v err=%v", found, err)
	}

	// inexistente => false, sin error
	found, err = f.svc.RevokeRedemption(context.Background(), "p1", "owner", "nobody")
	if err != nil || found {
		t.Fatalf("expected found=false for unknown user, found=%v err=%v", found, err)
	}

	users, err := f.svc.ListUsers(context.Background(), "p1", "owner")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 1 || !users[0].Revoked {
		t.Fatalf("expected the revoked row to stay listed, got %+v", users)
	}
}

// Un usuario revocado recupera acceso re-canjeando un código aún activo.
func TestRedeemToken_OverwritesRevokedRedemption(t *testing.T) {
	f := newFixture(t)

	f.tokens.byCode["SHARE1"] = ShareToken{Code: "SHARE1", PetID: "p1", Tier: records.TierGuest, Active: true}
	f.reds.byKey[redKey{"p1", "bob"}] = records.Redemption{
		PetID: "p1", UserID: "bob", Tier: records.TierFull, Revoked: true,
	}

	if _, err := f.svc.RedeemToken(context.Background(), "SHARE1", "bob", "Bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	red, _ := f.reds.Get(context.Background(), "p1", "bob")
	if red.Revoked {
		t.Fatalf("expected re-redeem to clear revoked flag")
	}
	if red.Tier != records.TierGuest {
		t.Fatalf("expected tier from the redeemed token, got %s", red.Tier)
	}

	// sigue habiendo UNA sola fila por (pet, user)
	users, _ := f.reds.ListByPet(context.Background(), "p1")
	if len(users) != 1 {
		t.Fatalf("expected a single redemption row, got %d", len(users))
	}
}

func TestListUsers_GuestForbidden(t *testing.T) {
	f := newFixture(t)
	f.reds.byKey[redKey{"p1", "guest"}] = records.Redemption{PetID: "p1", UserID: "guest", Tier: records.TierGuest}

	if _, err := f.svc.ListUsers(context.Background(), "p1", "guest"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
