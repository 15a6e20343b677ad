package postgres

import (
	"context"
	"database/sql"
	"time"

	"pet-health-sync/internal/domain/records"
)

// RecordStore implementa records.Store sobre una tabla por colección.
// Todos los upserts son INSERT ... ON CONFLICT DO UPDATE por id: el server
// nunca rechaza ni mergea un write permitido (write-always, read-filtered).
//
// Las queries *Since usan last_modified >= $2 (frontera inclusiva, ver
// records.Store).
type RecordStore struct {
	db *sql.DB
}

func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{db: db}
}

func (s *RecordStore) GetPet(ctx context.Context, petID string) (records.Pet, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT
			id, owner_id, name, species, breed,
			insulin_type, insulin_units, feeding_amount, feeding_per_day,
			current_weight, weight_unit, notes,
			last_modified, is_deleted
		FROM pets
		WHERE id = $1
	`, petID)

	var p records.Pet
	if err := row.Scan(
		&p.ID, &p.OwnerID, &p.Name, &p.Species, &p.Breed,
		&p.InsulinType, &p.InsulinUnits, &p.FeedingAmount, &p.FeedingPerDay,
		&p.CurrentWeight, &p.WeightUnit, &p.Notes,
		&p.LastModified, &p.IsDeleted,
	); err != nil {
		if err == sql.ErrNoRows {
			return records.Pet{}, records.ErrNotFound
		}
		return records.Pet{}, err
	}
	return p, nil
}

func (s *RecordStore) UpsertPet(ctx context.Context, p records.Pet) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pets (
			id, owner_id, name, species, breed,
			insulin_type, insulin_units, feeding_amount, feeding_per_day,
			current_weight, weight_unit, notes,
			last_modified, is_deleted
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (id) DO UPDATE SET
			owner_id = EXCLUDED.owner_id,
			name = EXCLUDED.name,
			species = EXCLUDED.species,
			breed = EXCLUDED.breed,
			insulin_type = EXCLUDED.insulin_type,
			insulin_units = EXCLUDED.insulin_units,
			feeding_amount = EXCLUDED.feeding_amount,
			feeding_per_day = EXCLUDED.feeding_per_day,
			current_weight = EXCLUDED.current_weight,
			weight_unit = EXCLUDED.weight_unit,
			notes = EXCLUDED.notes,
			last_modified = EXCLUDED.last_modified,
			is_deleted = EXCLUDED.is_deleted
	`,
		p.ID, p.OwnerID, p.Name, string(p.Species), p.Breed,
		p.InsulinType, p.InsulinUnits, p.FeedingAmount, p.FeedingPerDay,
		p.CurrentWeight, string(p.WeightUnit), p.Notes,
		p.LastModified, p.IsDeleted,
	)
	return err
}

func (s *RecordStore) PetsSince(ctx context.Context, petID string, since time.Time) ([]records.Pet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			id, owner_id, name, species, breed,
			insulin_type, insulin_units, feeding_amount, feeding_per_day,
			current_weight, weight_unit, notes,
			last_modified, is_deleted
		FROM pets
		WHERE id = $1 AND last_modified >= $2
	`, petID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]records.Pet, 0, 1)
	for rows.Next() {
		var p records.Pet
		if err := rows.Scan(
			&p.ID, &p.OwnerID, &p.Name, &p.Species, &p.Breed,
			&p.InsulinType, &p.InsulinUnits, &p.FeedingAmount, &p.FeedingPerDay,
			&p.CurrentWeight, &p.WeightUnit, &p.Notes,
			&p.LastModified, &p.IsDeleted,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *RecordStore) UpsertInsulinLog(ctx context.Context, l records.InsulinLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO insulin_logs (
			id, pet_id, units, insulin_type, notes, given_at,
			logged_by, logged_by_id, last_modified, is_deleted
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET
			units = EXCLUDED.units,
			insulin_type = EXCLUDED.insulin_type,
			notes = EXCLUDED.notes,
			given_at = EXCLUDED.given_at,
			logged_by = EXCLUDED.logged_by,
			logged_by_id = EXCLUDED.logged_by_id,
			last_modified = EXCLUDED.last_modified,
			is_deleted = EXCLUDED.is_deleted
	`,
		l.ID, l.PetID, l.Units, l.InsulinType, l.Notes, l.GivenAt,
		l.LoggedBy, l.LoggedByID, l.LastModified, l.IsDeleted,
	)
	return err
}

func (s *RecordStore) InsulinLogsSince(ctx context.Context, petID string, since time.Time) ([]records.InsulinLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			id, pet_id, units, insulin_type, notes, given_at,
			logged_by, logged_by_id, last_modified, is_deleted
		FROM insulin_logs
		WHERE pet_id = $1 AND last_modified >= $2
		ORDER BY last_modified ASC
	`, petID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]records.InsulinLog, 0)
	for rows.Next() {
		var l records.InsulinLog
		if err := rows.Scan(
			&l.ID, &l.PetID, &l.Units, &l.InsulinType, &l.Notes, &l.GivenAt,
			&l.LoggedBy, &l.LoggedByID, &l.LastModified, &l.IsDeleted,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *RecordStore) UpsertFeedingLog(ctx context.Context, l records.FeedingLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feeding_logs (
			id, pet_id, amount, food_type, notes, fed_at,
			logged_by, logged_by_id, last_modified, is_deleted
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET
			amount = EXCLUDED.amount,
			food_type = EXCLUDED.food_type,
			notes = EXCLUDED.notes,
			fed_at = EXCLUDED.fed_at,
			logged_by = EXCLUDED.logged_by,
			logged_by_id = EXCLUDED.logged_by_id,
			last_modified = EXCLUDED.last_modified,
			is_deleted = EXCLUDED.is_deleted
	`,
		l.ID, l.PetID, l.Amount, l.FoodType, l.Notes, l.FedAt,
		l.LoggedBy, l.LoggedByID, l.LastModified, l.IsDeleted,
	)
	return err
}

func (s *RecordStore) FeedingLogsSince(ctx context.Context, petID string, since time.Time) ([]records.FeedingLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			id, pet_id, amount, food_type, notes, fed_at,
			logged_by, logged_by_id, last_modified, is_deleted
		FROM feeding_logs
		WHERE pet_id = $1 AND last_modified >= $2
		ORDER BY last_modified ASC
	`, petID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]records.FeedingLog, 0)
	for rows.Next() {
		var l records.FeedingLog
		if err := rows.Scan(
			&l.ID, &l.PetID, &l.Amount, &l.FoodType, &l.Notes, &l.FedAt,
			&l.LoggedBy, &l.LoggedByID, &l.LastModified, &l.IsDeleted,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *RecordStore) UpsertWeightLog(ctx context.Context, l records.WeightLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO weight_logs (
			id, pet_id, weight, unit, notes, measured_at,
			logged_by, logged_by_id, last_modified, is_deleted
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET
			weight = EXCLUDED.weight,
			unit = EXCLUDED.unit,
			notes = EXCLUDED.notes,
			measured_at = EXCLUDED.measured_at,
			logged_by = EXCLUDED.logged_by,
			logged_by_id = EXCLUDED.logged_by_id,
			last_modified = EXCLUDED.last_modified,
			is_deleted = EXCLUDED.is_deleted
	`,
		l.ID, l.PetID, l.Weight, string(l.Unit), l.Notes, l.MeasuredAt,
		l.LoggedBy, l.LoggedByID, l.LastModified, l.IsDeleted,
	)
	return err
}

func (s *RecordStore) WeightLogsSince(ctx context.Context, petID string, since time.Time) ([]records.WeightLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			id, pet_id, weight, unit, notes, measured_at,
			logged_by, logged_by_id, last_modified, is_deleted
		FROM weight_logs
		WHERE pet_id = $1 AND last_modified >= $2
		ORDER BY last_modified ASC
	`, petID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]records.WeightLog, 0)
	for rows.Next() {
		var l records.WeightLog
		if err := rows.Scan(
			&l.ID, &l.PetID, &l.Weight, &l.Unit, &l.Notes, &l.MeasuredAt,
			&l.LoggedBy, &l.LoggedByID, &l.LastModified, &l.IsDeleted,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *RecordStore) UpsertVetInfo(ctx context.Context, v records.VetInfo) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vet_infos (
			id, pet_id, clinic_name, vet_name, phone, email, address, notes,
			logged_by, logged_by_id, last_modified, is_deleted
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO UPDATE SET
			clinic_name = EXCLUDED.clinic_name,
			vet_name = EXCLUDED.vet_name,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			address = EXCLUDED.address,
			notes = EXCLUDED.notes,
			logged_by = EXCLUDED.logged_by,
			logged_by_id = EXCLUDED.logged_by_id,
			last_modified = EXCLUDED.last_modified,
			is_deleted = EXCLUDED.is_deleted
	`,
		v.ID, v.PetID, v.ClinicName, v.VetName, v.Phone, v.Email, v.Address, v.Notes,
		v.LoggedBy, v.LoggedByID, v.LastModified, v.IsDeleted,
	)
	return err
}

func (s *RecordStore) VetInfosSince(ctx context.Context, petID string, since time.Time) ([]records.VetInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			id, pet_id, clinic_name, vet_name, phone, email, address, notes,
			logged_by, logged_by_id, last_modified, is_deleted
		FROM vet_infos
		WHERE pet_id = $1 AND last_modified >= $2
		ORDER BY last_modified ASC
	`, petID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]records.VetInfo, 0)
	for rows.Next() {
		var v records.VetInfo
		if err := rows.Scan(
			&v.ID, &v.PetID, &v.ClinicName, &v.VetName, &v.Phone, &v.Email, &v.Address, &v.Notes,
			&v.LoggedBy, &v.LoggedByID, &v.LastModified, &v.IsDeleted,
		); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *RecordStore) UpsertSchedule(ctx context.Context, sc records.Schedule) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schedules (
			id, pet_id, kind, label, time_of_day, enabled,
			logged_by, logged_by_id, last_modified, is_deleted
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET
			kind = EXCLUDED.kind,
			label = EXCLUDED.label,
			time_of_day = EXCLUDED.time_of_day,
			enabled = EXCLUDED.enabled,
			logged_by = EXCLUDED.logged_by,
			logged_by_id = EXCLUDED.logged_by_id,
			last_modified = EXCLUDED.last_modified,
			is_deleted = EXCLUDED.is_deleted
	`,
		sc.ID, sc.PetID, string(sc.Kind), sc.Label, sc.TimeOfDay, sc.Enabled,
		sc.LoggedBy, sc.LoggedByID, sc.LastModified, sc.IsDeleted,
	)
	return err
}

func (s *RecordStore) SchedulesSince(ctx context.Context, petID string, since time.Time) ([]records.Schedule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			id, pet_id, kind, label, time_of_day, enabled,
			logged_by, logged_by_id, last_modified, is_deleted
		FROM schedules
		WHERE pet_id = $1 AND last_modified >= $2
		ORDER BY last_modified ASC
	`, petID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]records.Schedule, 0)
	for rows.Next() {
		var sc records.Schedule
		if err := rows.Scan(
			&sc.ID, &sc.PetID, &sc.Kind, &sc.Label, &sc.TimeOfDay, &sc.Enabled,
			&sc.LoggedBy, &sc.LoggedByID, &sc.LastModified, &sc.IsDeleted,
		); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}
