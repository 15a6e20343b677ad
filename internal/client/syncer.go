package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pet-health-sync/internal/client/localcache"
	"pet-health-sync/internal/domain/records"
)

// Transport es el canal hacia el server de sync. La implementación real es
// HTTP (ver transport.go); los tests inyectan una falsa.
type Transport interface {
	Sync(ctx context.Context, petID string, watermark time.Time, changes records.ChangeSet) (time.Time, records.ChangeSet, error)
}

// Syncer orquesta las rondas de sync de un device: junta filas dirty, llama
// al server, mergea el delta en el cache (LWW) y recién entonces limpia
// flags y avanza el watermark. Una ronda fallida no toca nada: el dirty set
// se reenvía entero en el próximo intento (at-least-once; los upserts del
// server son idempotentes).
type Syncer struct {
	cache     *localcache.Cache
	transport Transport

	mu         sync.Mutex
	watermarks map[string]time.Time // por petID
}

func NewSyncer(cache *localcache.Cache, transport Transport) *Syncer {
	return &Syncer{
		cache:      cache,
		transport:  transport,
		watermarks: make(map[string]time.Time),
	}
}

// Watermark devuelve el último sync exitoso para petID (zero si nunca).
func (s *Syncer) Watermark(petID string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watermarks[petID]
}

// SyncPet ejecuta una ronda completa para una mascota.
func (s *Syncer) SyncPet(ctx context.Context, petID string) error {
	wm := s.Watermark(petID)
	outgoing := s.cache.DirtyChanges(petID)

	newWM, delta, err := s.transport.Sync(ctx, petID, wm, outgoing)
	if err != nil {
		// ronda fallida = no pasó nada: dirty y watermark intactos
		return err
	}

	applyDelta(s.cache, delta)

	// Todo lo que salió ya fue aceptado server-side en el paso 3, vuelva o
	// no en el delta. Ver en MarkSynced la ventana que esto abre frente a
	// edits concurrentes durante la ronda.
	s.cache.MarkSynced(outgoing)

	s.mu.Lock()
	s.watermarks[petID] = newWM
	s.mu.Unlock()

	return nil
}

// SyncAll sincroniza varias mascotas en paralelo, una ronda independiente
// por aggregate. La falla de una mascota no aborta a las demás: los errores
// se juntan bajo lock y se reportan combinados al final.
func (s *Syncer) SyncAll(ctx context.Context, petIDs []string) error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	for _, petID := range petIDs {
		wg.Add(1)
		go func(petID string) {
			defer wg.Done()
			if err := s.SyncPet(ctx, petID); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("pet %s: %w", petID, err))
				mu.Unlock()
			}
		}(petID)
	}

	wg.Wait()
	return errors.Join(errs...)
}

// applyDelta es el merge applier: aplica el delta del server sobre el cache
// con last-write-wins por record (ver reglas en localcache).
func applyDelta(cache *localcache.Cache, delta records.ChangeSet) {
	for _, p := range delta.Pets {
		cache.MergeServerPet(p)
	}
	for _, l := range delta.InsulinLogs {
		cache.MergeServerInsulinLog(l)
	}
	for _, l := range delta.FeedingLogs {
		cache.MergeServerFeedingLog(l)
	}
	for _, l := range delta.WeightLogs {
		cache.MergeServerWeightLog(l)
	}
	for _, v := range delta.VetInfos {
		cache.MergeServerVetInfo(v)
	}
	for _, sc := range delta.Schedules {
		cache.MergeServerSchedule(sc)
	}
}
