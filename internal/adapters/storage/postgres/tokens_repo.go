package postgres

import (
	"context"
	"database/sql"

	"pet-health-sync/internal/domain/records"
	"pet-health-sync/internal/domain/sharing"
)

type TokensRepo struct {
	db *sql.DB
}

func NewTokensRepo(db *sql.DB) *TokensRepo {
	return &TokensRepo{db: db}
}

func (r *TokensRepo) Create(ctx context.Context, t sharing.ShareToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO share_tokens (
			code, pet_id, tier,
			created_by_id, created_by_name, created_at, active
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		t.Code,
		t.PetID,
		string(t.Tier),
		t.CreatedByID,
		t.CreatedByName,
		t.CreatedAt,
		t.Active,
	)
	return err
}

func (r *TokensRepo) GetByCode(ctx context.Context, code string) (sharing.ShareToken, error) {
	return r.getByCode(ctx, code, false)
}

func (r *TokensRepo) GetActiveByCode(ctx context.Context, code string) (sharing.ShareToken, error) {
	return r.getByCode(ctx, code, true)
}

func (r *TokensRepo) getByCode(ctx context.Context, code string, activeOnly bool) (sharing.ShareToken, error) {
	q := `
		SELECT code, pet_id, tier, created_by_id, created_by_name, created_at, active
		FROM share_tokens
		WHERE code = $1
	`
	if activeOnly {
		q += ` AND active`
	}

	row := r.db.QueryRowContext(ctx, q, code)

	var t sharing.ShareToken
	var tier string
	if err := row.Scan(&t.Code, &t.PetID, &tier, &t.CreatedByID, &t.CreatedByName, &t.CreatedAt, &t.Active); err != nil {
		if err == sql.ErrNoRows {
			return sharing.ShareToken{}, records.ErrNotFound
		}
		return sharing.ShareToken{}, err
	}
	t.Tier = records.Tier(tier)
	return t, nil
}

func (r *TokensRepo) ListByPet(ctx context.Context, petID string) ([]sharing.ShareToken, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT code, pet_id, tier, created_by_id, created_by_name, created_at, active
		FROM share_tokens
		WHERE pet_id = $1
		ORDER BY created_at ASC
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]sharing.ShareToken, 0)
	for rows.Next() {
		var t sharing.ShareToken
		var tier string
		if err := rows.Scan(&t.Code, &t.PetID, &tier, &t.CreatedByID, &t.CreatedByName, &t.CreatedAt, &t.Active); err != nil {
			return nil, err
		}
		t.Tier = records.Tier(tier)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TokensRepo) Update(ctx context.Context, t sharing.ShareToken) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE share_tokens
		SET active = $2
		WHERE code = $1
	`, t.Code, t.Active)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return records.ErrNotFound
	}
	return nil
}
