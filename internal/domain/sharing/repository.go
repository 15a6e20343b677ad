package sharing

import (
	"context"

	"pet-health-sync/internal/domain/records"
)

type TokenRepository interface {
	Create(ctx context.Context, t ShareToken) error

	// GetByCode busca por código sin importar Active: se usa para garantizar
	// unicidad global de códigos, incluso contra tokens desactivados.
	GetByCode(ctx context.Context, code string) (ShareToken, error)

	// GetActiveByCode busca solo tokens activos (la vista de redeem).
	GetActiveByCode(ctx context.Context, code string) (ShareToken, error)

	ListByPet(ctx context.Context, petID string) ([]ShareToken, error)
	Update(ctx context.Context, t ShareToken) error
}

type RedemptionRepository interface {
	// Upsert crea o sobreescribe la fila (PetID, UserID).
	Upsert(ctx context.Context, r records.Redemption) error

	Get(ctx context.Context, petID, userID string) (records.Redemption, error)
	ListByPet(ctx context.Context, petID string) ([]records.Redemption, error)
	Update(ctx context.Context, r records.Redemption) error
}
