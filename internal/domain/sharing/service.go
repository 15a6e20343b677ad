package sharing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"pet-health-sync/internal/domain/records"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
)

// maxCodeAttempts acota el retry por colisión de códigos. Con keyspace 32^6
// una colisión es despreciable; agotar el tope indica un repo roto o un
// keyspace casi lleno y se trata como error fatal de configuración.
const maxCodeAttempts = 10

// TierResolver lo implementa access.Resolver.
type TierResolver interface {
	ResolveTier(ctx context.Context, petID, callerID string) (records.Tier, error)
}

type Service struct {
	tokens      TokenRepository
	redemptions RedemptionRepository
	store       records.Store
	tiers       TierResolver

	now      func() time.Time
	generate func() (string, error)
}

func NewService(tokens TokenRepository, redemptions RedemptionRepository, store records.Store, tiers TierResolver) *Service {
	return &Service{
		tokens:      tokens,
		redemptions: redemptions,
		store:       store,
		tiers:       tiers,
		now:         time.Now,
		generate: func() (string, error) {
			return gonanoid.Generate(CodeAlphabet, CodeLength)
		},
	}
}

// GenerateToken emite un código nuevo para petID con el tier pedido.
// Solo owner o full pueden emitir. El código es único global (se busca por
// valor, no por id), sin vencimiento.
// TODO: rate limit de emisión; hoy no hay.
func (s *Service) GenerateToken(ctx context.Context, petID, callerID, callerName string, tier records.Tier) (ShareToken, error) {
	petID = strings.TrimSpace(petID)
	callerID = strings.TrimSpace(callerID)

	if petID == "" || callerID == "" {
		return ShareToken{}, ErrInvalidInput
	}
	if tier != records.TierFull && tier != records.TierGuest {
		return ShareToken{}, ErrInvalidInput
	}

	callerTier, err := s.tiers.ResolveTier(ctx, petID, callerID)
	if err != nil {
		return ShareToken{}, err
	}
	if callerTier != records.TierOwner && callerTier != records.TierFull {
		return ShareToken{}, ErrForbidden
	}

	code, err := s.freshCode(ctx)
	if err != nil {
		return ShareToken{}, err
	}

	t := ShareToken{
		Code:          code,
		PetID:         petID,
		Tier:          tier,
		CreatedByID:   callerID,
		CreatedByName: strings.TrimSpace(callerName),
		CreatedAt:     s.now(),
		Active:        true,
	}

	if err := s.tokens.Create(ctx, t); err != nil {
		return ShareToken{}, err
	}
	return t, nil
}

// freshCode genera un código no usado, con retry acotado.
func (s *Service) freshCode(ctx context.Context) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := s.generate()
		if err != nil {
			return "", err
		}
		_, err = s.tokens.GetByCode(ctx, code)
		if errors.Is(err, records.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
		// colisión: reintentar
	}
	return "", fmt.Errorf("share code space exhausted after %d attempts", maxCodeAttempts)
}

// RedeemResult es lo que recibe el caller al canjear: el tier otorgado y un
// snapshot completo del estado actual, ya filtrado por ese tier.
type RedeemResult struct {
	PetID    string
	Tier     records.Tier
	Snapshot records.ChangeSet
}

// RedeemToken canjea un código. Upsertea la fila (petID, callerID): un
// segundo canje del mismo caller sobreescribe la redemption anterior, incluso
// una revocada (un guest revocado recupera acceso re-canjeando un código aún
// activo). Códigos desactivados o mascotas tombstoneadas => ErrNotFound.
func (s *Service) RedeemToken(ctx context.Context, code, callerID, displayName string) (RedeemResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	callerID = strings.TrimSpace(callerID)

	if code == "" || callerID == "" {
		return RedeemResult{}, ErrInvalidInput
	}

	t, err := s.tokens.GetActiveByCode(ctx, code)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			return RedeemResult{}, ErrNotFound
		}
		return RedeemResult{}, err
	}

	p, err := s.store.GetPet(ctx, t.PetID)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			return RedeemResult{}, ErrNotFound
		}
		return RedeemResult{}, err
	}
	if p.IsDeleted {
		return RedeemResult{}, ErrNotFound
	}

	red := records.Redemption{
		PetID:       t.PetID,
		UserID:      callerID,
		DisplayName: strings.TrimSpace(displayName),
		Tier:        t.Tier,
		RedeemedAt:  s.now(),
		Revoked:     false,
	}
	if err := s.redemptions.Upsert(ctx, red); err != nil {
		return RedeemResult{}, err
	}

	// Snapshot completo = delta desde el piso de storage.
	snap, err := records.SnapshotSince(ctx, s.store, t.PetID, records.MinValidTime)
	if err != nil {
		return RedeemResult{}, err
	}

	return RedeemResult{
		PetID:    t.PetID,
		Tier:     t.Tier,
		Snapshot: records.FilterForTier(snap, t.Tier, callerID),
	}, nil
}

// ListUsers devuelve todas las redemptions de una mascota, incluidas las
// revocadas (la UI del owner las muestra como "revoked").
func (s *Service) ListUsers(ctx context.Context, petID, callerID string) ([]records.Redemption, error) {
	petID = strings.TrimSpace(petID)
	callerID = strings.TrimSpace(callerID)

	if petID == "" || callerID == "" {
		return nil, ErrInvalidInput
	}

	tier, err := s.tiers.ResolveTier(ctx, petID, callerID)
	if err != nil {
		return nil, err
	}
	if tier != records.TierOwner && tier != records.TierFull {
		return nil, ErrForbidden
	}

	return s.redemptions.ListByPet(ctx, petID)
}

// RevokeRedemption marca la redemption (petID, userID) como revocada.
// Idempotente. Devuelve false si nunca existió. No toca el token que la creó:
// bloquea syncs futuros del usuario, nada más.
func (s *Service) RevokeRedemption(ctx context.Context, petID, callerID, userID string) (bool, error) {
	petID = strings.TrimSpace(petID)
	callerID = strings.TrimSpace(callerID)
	userID = strings.TrimSpace(userID)

	if petID == "" || callerID == "" || userID == "" {
		return false, ErrInvalidInput
	}

	tier, err := s.tiers.ResolveTier(ctx, petID, callerID)
	if err != nil {
		return false, err
	}
	if tier != records.TierOwner && tier != records.TierFull {
		return false, ErrForbidden
	}

	red, err := s.redemptions.Get(ctx, petID, userID)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if red.Revoked {
		return true, nil
	}

	red.Revoked = true
	if err := s.redemptions.Update(ctx, red); err != nil {
		return false, err
	}
	return true, nil
}

// DeactivateToken saca el código de la vista de canje. Solo afecta canjes
// futuros: las redemptions ya hechas con ese código siguen vigentes.
func (s *Service) DeactivateToken(ctx context.Context, code, callerID string) (bool, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	callerID = strings.TrimSpace(callerID)

	if code == "" || callerID == "" {
		return false, ErrInvalidInput
	}

	t, err := s.tokens.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	tier, err := s.tiers.ResolveTier(ctx, t.PetID, callerID)
	if err != nil {
		return false, err
	}
	if tier != records.TierOwner && tier != records.TierFull {
		return false, ErrForbidden
	}

	if !t.Active {
		return true, nil
	}

	t.Active = false
	if err := s.tokens.Update(ctx, t); err != nil {
		return false, err
	}
	return true, nil
}

// ListTokens devuelve los códigos emitidos para una mascota (activos e
// inactivos) para la vista de administración del owner.
func (s *Service) ListTokens(ctx context.Context, petID, callerID string) ([]ShareToken, error) {
	petID = strings.TrimSpace(petID)
	callerID = strings.TrimSpace(callerID)

	if petID == "" || callerID == "" {
		return nil, ErrInvalidInput
	}

	tier, err := s.tiers.ResolveTier(ctx, petID, callerID)
	if err != nil {
		return nil, err
	}
	if tier != records.TierOwner && tier != records.TierFull {
		return nil, ErrForbidden
	}

	return s.tokens.ListByPet(ctx, petID)
}
