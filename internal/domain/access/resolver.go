package access

import (
	"context"
	"errors"
	"strings"

	"pet-health-sync/internal/domain/records"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
)

// Resolver calcula el tier de un caller sobre una mascota.
// El tier es un valor derivado: owner match o redemption activa, resuelto
// fresco en CADA llamada. Nunca se cachea ni se persiste, para que una
// revocación surta efecto en la siguiente llamada sin estado viejo.
type Resolver struct {
	pets        PetSource
	redemptions RedemptionSource
}

// PetSource es el subconjunto del record store que el resolver necesita.
type PetSource interface {
	GetPet(ctx context.Context, petID string) (records.Pet, error)
}

// RedemptionSource es el subconjunto del repo de redemptions que necesita.
type RedemptionSource interface {
	Get(ctx context.Context, petID, userID string) (records.Redemption, error)
}

func NewResolver(pets PetSource, redemptions RedemptionSource) *Resolver {
	return &Resolver{
		pets:        pets,
		redemptions: redemptions,
	}
}

// ResolveTier devuelve el tier del caller sobre petID.
//   - mascota desconocida        => records.ErrNotFound
//   - caller == owner            => TierOwner (siempre, ignora redemptions)
//   - redemption activa          => tier congelado en la redemption
//   - sin redemption o revocada  => ErrForbidden
//
// Solo lectura; "sin acceso" es un resultado esperado, no una excepción.
func (r *Resolver) ResolveTier(ctx context.Context, petID, callerID string) (records.Tier, error) {
	petID = strings.TrimSpace(petID)
	callerID = strings.TrimSpace(callerID)

	if petID == "" || callerID == "" {
		return "", ErrInvalidInput
	}

	p, err := r.pets.GetPet(ctx, petID)
	if err != nil {
		return "", err
	}

	if p.OwnerID == callerID {
		return records.TierOwner, nil
	}

	red, err := r.redemptions.Get(ctx, petID, callerID)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			return "", ErrForbidden
		}
		return "", err
	}
	if red.Revoked {
		return "", ErrForbidden
	}

	return red.Tier, nil
}
