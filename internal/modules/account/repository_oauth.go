package account

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
)

// --- OAuth states (CSRF + PKCE rows for social sign-in flows) ---

// InsertOAuthState stores a new state row for an in-flight social sign-in.
func (r *repository) InsertOAuthState(ctx context.Context, state *OAuthState) error {
	query, args, err := r.psql.Insert("oauth_states").
		Columns("state", "provider", "verifier", "expires_at", "created_at").
		Values(state.State, string(state.Provider), state.Verifier, state.ExpiresAt, state.CreatedAt).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}

// GetOAuthStateByState retrieves a stored state row.
func (r *repository) GetOAuthStateByState(ctx context.Context, state string) (*OAuthState, error) {
	query, args, err := r.psql.Select("state", "provider", "verifier", "expires_at", "created_at").
		From("oauth_states").
		Where(squirrel.Eq{"state": state}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row OAuthState
	if err := pgxscan.Get(ctx, r.db, &row, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return &row, nil
}

// DeleteOAuthState removes a state row once the callback has been handled.
func (r *repository) DeleteOAuthState(ctx context.Context, state string) error {
	query, args, err := r.psql.Delete("oauth_states").
		Where(squirrel.Eq{"state": state}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}

// DeleteExpiredOAuthStates removes stale rows left by abandoned sign-in flows.
func (r *repository) DeleteExpiredOAuthStates(ctx context.Context) error {
	query, args, err := r.psql.Delete("oauth_states").
		Where(squirrel.Lt{"expires_at": time.Now()}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}
