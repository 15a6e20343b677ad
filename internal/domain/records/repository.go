package records

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
)

// Store es el record store autoritativo del server, particionado por petID.
// Los upserts son idempotentes (mismo record, mismo LastModified => no-op
// observable) porque el cliente reenvía su dirty set completo hasta que una
// ronda de sync termina bien.
//
// Las queries *Since usan frontera inclusiva (last_modified >= since): un
// record guardado exactamente en `since` se vuelve a entregar y el cliente
// lo mergea como no-op.
type Store interface {
	GetPet(ctx context.Context, petID string) (Pet, error)
	UpsertPet(ctx context.Context, p Pet) error
	PetsSince(ctx context.Context, petID string, since time.Time) ([]Pet, error)

	UpsertInsulinLog(ctx context.Context, l InsulinLog) error
	InsulinLogsSince(ctx context.Context, petID string, since time.Time) ([]InsulinLog, error)

	UpsertFeedingLog(ctx context.Context, l FeedingLog) error
	FeedingLogsSince(ctx context.Context, petID string, since time.Time) ([]FeedingLog, error)

	UpsertWeightLog(ctx context.Context, l WeightLog) error
	WeightLogsSince(ctx context.Context, petID string, since time.Time) ([]WeightLog, error)

	UpsertVetInfo(ctx context.Context, v VetInfo) error
	VetInfosSince(ctx context.Context, petID string, since time.Time) ([]VetInfo, error)

	UpsertSchedule(ctx context.Context, s Schedule) error
	SchedulesSince(ctx context.Context, petID string, since time.Time) ([]Schedule, error)
}

// SnapshotSince arma el ChangeSet de todo lo modificado desde `since` para
// una mascota. Con since = MinValidTime devuelve el estado completo (todo
// upsert clampeado queda >= piso).
func SnapshotSince(ctx context.Context, store Store, petID string, since time.Time) (ChangeSet, error) {
	pets, err := store.PetsSince(ctx, petID, since)
	if err != nil {
		return ChangeSet{}, err
	}
	insulin, err := store.InsulinLogsSince(ctx, petID, since)
	if err != nil {
		return ChangeSet{}, err
	}
	feeding, err := store.FeedingLogsSince(ctx, petID, since)
	if err != nil {
		return ChangeSet{}, err
	}
	weight, err := store.WeightLogsSince(ctx, petID, since)
	if err != nil {
		return ChangeSet{}, err
	}
	vet, err := store.VetInfosSince(ctx, petID, since)
	if err != nil {
		return ChangeSet{}, err
	}
	schedules, err := store.SchedulesSince(ctx, petID, since)
	if err != nil {
		return ChangeSet{}, err
	}

	return ChangeSet{
		Pets:        pets,
		InsulinLogs: insulin,
		FeedingLogs: feeding,
		WeightLogs:  weight,
		VetInfos:    vet,
		Schedules:   schedules,
	}, nil
}
