package postgres

import (
	"context"
	"database/sql"

	"pet-health-sync/internal/domain/records"
)

type RedemptionsRepo struct {
	db *sql.DB
}

func NewRedemptionsRepo(db *sql.DB) *RedemptionsRepo {
	return &RedemptionsRepo{db: db}
}

// Upsert mantiene el invariante "una redemption por (pet, user)" con la
// primary key compuesta de la tabla.
func (r *RedemptionsRepo) Upsert(ctx context.Context, red records.Redemption) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO redemptions (
			pet_id, user_id, display_name, tier, redeemed_at, revoked
		) VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (pet_id, user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			tier = EXCLUDED.tier,
			redeemed_at = EXCLUDED.redeemed_at,
			revoked = EXCLUDED.revoked
	`,
		red.PetID,
		red.UserID,
		red.DisplayName,
		string(red.Tier),
		red.RedeemedAt,
		red.Revoked,
	)
	return err
}

func (r *RedemptionsRepo) Get(ctx context.Context, petID, userID string) (records.Redemption, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT pet_id, user_id, display_name, tier, redeemed_at, revoked
		FROM redemptions
		WHERE pet_id = $1 AND user_id = $2
	`, petID, userID)

	var red records.Redemption
	var tier string
	if err := row.Scan(&red.PetID, &red.UserID, &red.DisplayName, &tier, &red.RedeemedAt, &red.Revoked); err != nil {
		if err == sql.ErrNoRows {
			return records.Redemption{}, records.ErrNotFound
		}
		return records.Redemption{}, err
	}
	red.Tier = records.Tier(tier)
	return red, nil
}

func (r *RedemptionsRepo) ListByPet(ctx context.Context, petID string) ([]records.Redemption, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT pet_id, user_id, display_name, tier, redeemed_at, revoked
		FROM redemptions
		WHERE pet_id = $1
		ORDER BY redeemed_at ASC
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]records.Redemption, 0)
	for rows.Next() {
		var red records.Redemption
		var tier string
		if err := rows.Scan(&red.PetID, &red.UserID, &red.DisplayName, &tier, &red.RedeemedAt, &red.Revoked); err != nil {
			return nil, err
		}
		red.Tier = records.Tier(tier)
		out = append(out, red)
	}
	return out, rows.Err()
}

func (r *RedemptionsRepo) Update(ctx context.Context, red records.Redemption) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE redemptions
		SET display_name = $3, tier = $4, redeemed_at = $5, revoked = $6
		WHERE pet_id = $1 AND user_id = $2
	`,
		red.PetID,
		red.UserID,
		red.DisplayName,
		string(red.Tier),
		red.RedeemedAt,
		red.Revoked,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return records.ErrNotFound
	}
	return nil
}
