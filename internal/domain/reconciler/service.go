package reconciler

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-health-sync/internal/domain/records"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

// TierResolver lo implementa access.Resolver.
type TierResolver interface {
	ResolveTier(ctx context.Context, petID, callerID string) (records.Tier, error)
}

// Service es el reconciliador de sync: aplica los cambios locales del
// cliente sobre el record store (gateados por tier) y devuelve el delta del
// server desde el watermark del cliente, filtrado por tier.
//
// El server es "write-always, read-filtered": nunca rechaza ni mergea un
// write permitido por tier; la resolución de conflictos por LastModified es
// responsabilidad del merge applier de cada cliente.
type Service struct {
	store records.Store
	tiers TierResolver
	now   func() time.Time
}

func NewService(store records.Store, tiers TierResolver) *Service {
	return &Service{
		store: store,
		tiers: tiers,
		now:   time.Now,
	}
}

// SyncInput es una ronda de sync de un device para una mascota.
type SyncInput struct {
	PetID    string
	CallerID string

	// Watermark es el último sync exitoso del device (zero = primer sync).
	Watermark time.Time

	// Changes son los records dirty del cliente, cada uno con su propio
	// LastModified e IsDeleted.
	Changes records.ChangeSet
}

// SyncResult es el delta del server más el nuevo watermark.
type SyncResult struct {
	Watermark time.Time
	Changes   records.ChangeSet
}

// Sync ejecuta una ronda completa, en orden estricto:
//
//  1. Resolver la mascota. Si no existe en el server y el request trae su
//     record, se crea con OwnerID = caller ("el primer sync materializa la
//     mascota, el que la manda queda owner"). Si no viene => ErrNotFound.
//  2. Si existe, resolver tier (owner match o redemption activa).
//  3. Aplicar writes del cliente gateados por tier. Upserts completos, sin
//     merge por campo; LastModified del cliente clampeado contra el piso.
//  4. Delta del server con since = max(watermark, piso), frontera inclusiva.
//  5. Filtrar el delta por tier.
//  6. Devolver delta + now como nuevo watermark.
//
// Los pasos 1-2 se resuelven antes de escribir nada: un NotFound/Forbidden
// nunca deja writes parciales.
func (s *Service) Sync(ctx context.Context, in SyncInput) (SyncResult, error) {
	petID := strings.TrimSpace(in.PetID)
	callerID := strings.TrimSpace(in.CallerID)

	if petID == "" || callerID == "" {
		return SyncResult{}, ErrInvalidInput
	}

	now := s.now()

	tier, err := s.resolveOrCreate(ctx, petID, callerID, in.Changes, now)
	if err != nil {
		return SyncResult{}, err
	}

	if err := s.applyClientWrites(ctx, petID, tier, in.Changes, now); err != nil {
		return SyncResult{}, err
	}

	since := in.Watermark
	if since.Before(records.MinValidTime) {
		since = records.MinValidTime
	}

	delta, err := records.SnapshotSince(ctx, s.store, petID, since)
	if err != nil {
		return SyncResult{}, err
	}

	return SyncResult{
		Watermark: now,
		Changes:   records.FilterForTier(delta, tier, callerID),
	}, nil
}

// resolveOrCreate implementa el paso 1-2: create-or-update de la mascota.
func (s *Service) resolveOrCreate(ctx context.Context, petID, callerID string, changes records.ChangeSet, now time.Time) (records.Tier, error) {
	_, err := s.store.GetPet(ctx, petID)
	if err == nil {
		return s.tiers.ResolveTier(ctx, petID, callerID)
	}
	if !errors.Is(err, records.ErrNotFound) {
		return "", err
	}

	// Mascota desconocida: buscarla en el payload del cliente.
	for _, p := range changes.Pets {
		if p.ID != petID {
			continue
		}
		p.OwnerID = callerID
		p.LastModified = records.Clamp(p.LastModified, now)
		if err := s.store.UpsertPet(ctx, p); err != nil {
			return "", err
		}
		return records.TierOwner, nil
	}

	return "", records.ErrNotFound
}

// applyClientWrites aplica el paso 3 en precedencia fija. Cada bloque es
// independiente: no hay short-circuit entre colecciones.
func (s *Service) applyClientWrites(ctx context.Context, petID string, tier records.Tier, changes records.ChangeSet, now time.Time) error {
	// Solo el owner escribe el perfil y la vet info.
	if tier == records.TierOwner {
		for _, p := range changes.Pets {
			if p.ID != petID {
				continue
			}
			// El record entrante reemplaza al guardado completo, salvo el
			// owner: la titularidad no cambia por sync.
			stored, err := s.store.GetPet(ctx, petID)
			if err == nil {
				p.OwnerID = stored.OwnerID
			}
			p.LastModified = records.Clamp(p.LastModified, now)
			if err := s.store.UpsertPet(ctx, p); err != nil {
				return err
			}
		}
		for _, v := range changes.VetInfos {
			if v.PetID != petID {
				continue
			}
			v.LastModified = records.Clamp(v.LastModified, now)
			if err := s.store.UpsertVetInfo(ctx, v); err != nil {
				return err
			}
		}
	}

	// Owner y full escriben schedules y pesos.
	if tier == records.TierOwner || tier == records.TierFull {
		for _, sc := range changes.Schedules {
			if sc.PetID != petID {
				continue
			}
			sc.LastModified = records.Clamp(sc.LastModified, now)
			if err := s.store.UpsertSchedule(ctx, sc); err != nil {
				return err
			}
		}
		for _, w := range changes.WeightLogs {
			if w.PetID != petID {
				continue
			}
			w.LastModified = records.Clamp(w.LastModified, now)
			if err := s.store.UpsertWeightLog(ctx, w); err != nil {
				return err
			}
		}
	}

	// Insulina y comida: los dos únicos tipos que un guest puede escribir.
	for _, l := range changes.InsulinLogs {
		if l.PetID != petID {
			continue
		}
		l.LastModified = records.Clamp(l.LastModified, now)
		if err := s.store.UpsertInsulinLog(ctx, l); err != nil {
			return err
		}
	}
	for _, l := range changes.FeedingLogs {
		if l.PetID != petID {
			continue
		}
		l.LastModified = records.Clamp(l.LastModified, now)
		if err := s.store.UpsertFeedingLog(ctx, l); err != nil {
			return err
		}
	}

	return nil
}
