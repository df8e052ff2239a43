package account

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
)

// --- Verification Codes (8-digit, one pending code per email) ---

// UpsertVerificationCode stores a fresh code for an email, replacing any
// previously pending one. The table is keyed by email, so issuing a new code
// invalidates the old one in the same statement.
func (r *repository) UpsertVerificationCode(ctx context.Context, vc *VerificationCode) error {
	sql := `
        INSERT INTO verification_codes (email, code_hash, expires_at, consumed_at, last_sent_at, created_at)
        VALUES ($1, $2, $3, NULL, $4, $5)
        ON CONFLICT (email) DO UPDATE SET
            code_hash = EXCLUDED.code_hash,
            expires_at = EXCLUDED.expires_at,
            consumed_at = NULL,
            last_sent_at = EXCLUDED.last_sent_at
    `
	_, err := r.db.Exec(ctx, sql, vc.Email, vc.CodeHash, vc.ExpiresAt, vc.LastSentAt, vc.CreatedAt)
	return err
}

// GetVerificationCode retrieves the pending code row for an email.
func (r *repository) GetVerificationCode(ctx context.Context, email string) (*VerificationCode, error) {
	query, args, err := r.psql.Select(
		"email", "code_hash", "expires_at", "consumed_at", "last_sent_at", "created_at",
	).From("verification_codes").
		Where(squirrel.Eq{"email": email}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var vc VerificationCode
	if err := pgxscan.Get(ctx, r.db, &vc, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return &vc, nil
}

// ConsumeVerificationCode marks the pending code for an email as used, so it
// cannot be replayed. Returns ErrNotFound when no unconsumed code exists.
func (r *repository) ConsumeVerificationCode(ctx context.Context, email string) error {
	query, args, err := r.psql.Update("verification_codes").
		Set("consumed_at", time.Now()).
		Where(squirrel.Eq{"email": email}).
		Where("consumed_at IS NULL").
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
