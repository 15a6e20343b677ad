package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"pet-health-sync/internal/domain/records"
)

// recordStore implementa records.Store sobre maps por colección,
// particionados por petID. Pensado para dev y tests; Postgres es el adapter
// de producción.
type recordStore struct {
	mu sync.RWMutex

	pets      map[string]records.Pet
	insulin   map[string]map[string]records.InsulinLog // petID -> id -> log
	feeding   map[string]map[string]records.FeedingLog
	weights   map[string]map[string]records.WeightLog
	vetInfos  map[string]map[string]records.VetInfo
	schedules map[string]map[string]records.Schedule
}

func NewRecordStore() records.Store {
	return &recordStore{
		pets:      make(map[string]records.Pet),
		insulin:   make(map[string]map[string]records.InsulinLog),
		feeding:   make(map[string]map[string]records.FeedingLog),
		weights:   make(map[string]map[string]records.WeightLog),
		vetInfos:  make(map[string]map[string]records.VetInfo),
		schedules: make(map[string]map[string]records.Schedule),
	}
}

func (s *recordStore) GetPet(ctx context.Context, petID string) (records.Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pets[petID]
	if !ok {
		return records.Pet{}, records.ErrNotFound
	}
	return p, nil
}

func (s *recordStore) UpsertPet(ctx context.Context, p records.Pet) error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("pet id required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pets[p.ID] = p
	return nil
}

func (s *recordStore) PetsSince(ctx context.Context, petID string, since time.Time) ([]records.Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]records.Pet, 0, 1)
	if p, ok := s.pets[petID]; ok && !p.LastModified.Before(since) {
		out = append(out, p)
	}
	return out, nil
}

func (s *recordStore) UpsertInsulinLog(ctx context.Context, l records.InsulinLog) error {
	if strings.TrimSpace(l.ID) == "" || strings.TrimSpace(l.PetID) == "" {
		return errors.New("insulin log id and pet id required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.insulin[l.PetID] == nil {
		s.insulin[l.PetID] = make(map[string]records.InsulinLog)
	}
	s.insulin[l.PetID][l.ID] = l
	return nil
}

func (s *recordStore) InsulinLogsSince(ctx context.Context, petID string, since time.Time) ([]records.InsulinLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]records.InsulinLog, 0)
	for _, l := range s.insulin[petID] {
		if !l.LastModified.Before(since) {
			out = append(out, l)
		}
	}
	// Orden estable por LastModified asc (consistencia en dev/tests)
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastModified.Before(out[j].LastModified)
	})
	return out, nil
}

func (s *recordStore) UpsertFeedingLog(ctx context.Context, l records.FeedingLog) error {
	if strings.TrimSpace(l.ID) == "" || strings.TrimSpace(l.PetID) == "" {
		return errors.New("feeding log id and pet id required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.feeding[l.PetID] == nil {
		s.feeding[l.PetID] = make(map[string]records.FeedingLog)
	}
	s.feeding[l.PetID][l.ID] = l
	return nil
}

func (s *recordStore) FeedingLogsSince(ctx context.Context, petID string, since time.Time) ([]records.FeedingLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]records.FeedingLog, 0)
	for _, l := range s.feeding[petID] {
		if !l.LastModified.Before(since) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastModified.Before(out[j].LastModified)
	})
	return out, nil
}

func (s *recordStore) UpsertWeightLog(ctx context.Context, l records.WeightLog) error {
	if strings.TrimSpace(l.ID) == "" || strings.TrimSpace(l.PetID) == "" {
		return errors.New("weight log id and pet id required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.weights[l.PetID] == nil {
		s.weights[l.PetID] = make(map[string]records.WeightLog)
	}
	s.weights[l.PetID][l.ID] = l
	return nil
}

func (s *recordStore) WeightLogsSince(ctx context.Context, petID string, since time.Time) ([]records.WeightLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]records.WeightLog, 0)
	for _, l := range s.weights[petID] {
		if !l.LastModified.Before(since) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastModified.Before(out[j].LastModified)
	})
	return out, nil
}

func (s *recordStore) UpsertVetInfo(ctx context.Context, v records.VetInfo) error {
	if strings.TrimSpace(v.ID) == "" || strings.TrimSpace(v.PetID) == "" {
		return errors.New("vet info id and pet id required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vetInfos[v.PetID] == nil {
		s.vetInfos[v.PetID] = make(map[string]records.VetInfo)
	}
	s.vetInfos[v.PetID][v.ID] = v
	return nil
}

func (s *recordStore) VetInfosSince(ctx context.Context, petID string, since time.Time) ([]records.VetInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]records.VetInfo, 0)
	for _, v := range s.vetInfos[petID] {
		if !v.LastModified.Before(since) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastModified.Before(out[j].LastModified)
	})
	return out, nil
}

func (s *recordStore) UpsertSchedule(ctx context.Context, sc records.Schedule) error {
	if strings.TrimSpace(sc.ID) == "" || strings.TrimSpace(sc.PetID) == "" {
		return errors.New("schedule id and pet id required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedules[sc.PetID] == nil {
		s.schedules[sc.PetID] = make(map[string]records.Schedule)
	}
	s.schedules[sc.PetID][sc.ID] = sc
	return nil
}

func (s *recordStore) SchedulesSince(ctx context.Context, petID string, since time.Time) ([]records.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]records.Schedule, 0)
	for _, sc := range s.schedules[petID] {
		if !sc.LastModified.Before(since) {
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastModified.Before(out[j].LastModified)
	})
	return out, nil
}
