package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/linkamarket/linka-api/internal/database"
)

type postgresProvider struct {
	db  database.DBTX
	cfg Config
}

func newPostgresProvider(db database.DBTX, cfg Config) *postgresProvider {
	return &postgresProvider{db: db, cfg: cfg.withDefaults()}
}

func (p *postgresProvider) Create(ctx context.Context, accountID string, userAgent string, ip string) (string, error) {
	raw, err := randomOpaque(32)
	if err != nil {
		return "", err
	}
	token := "auth:" + raw

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate session row id: %w", err)
	}

	now := p.cfg.Now()
	sql := `
		INSERT INTO auth_sessions
			(id, account_id, session_token, user_agent, ip_address, last_active_at, created_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7)
	`
	_, execErr := p.db.Exec(ctx, sql, id.String(), accountID, token, nullable(userAgent), nullable(ip), now, now)
	if execErr != nil {
		return "", fmt.Errorf("failed to insert session: %w", execErr)
	}

	return token, nil
}

func (p *postgresProvider) GetAndExtend(ctx context.Context, token string) (string, error) {
	if token == "" || !strings.Contains(token, ":") {
		return "", ErrNotFound
	}

	var (
		accountID    string
		createdAt    = p.cfg.Now()
		lastActiveAt = p.cfg.Now()
	)

	query := `
		SELECT account_id, created_at, last_active_at
		FROM auth_sessions
		WHERE session_token = $1
		LIMIT 1
	`
	row := p.db.QueryRow(ctx, query, token)
	if err := row.Scan(&accountID, &createdAt, &lastActiveAt); err != nil {
		return "", ErrNotFound
	}

	now := p.cfg.Now()
	// Absolute TTL
	if now.Sub(createdAt) > p.cfg.AbsoluteTTL {
		// Best effort cleanup
		_, _ = p.db.Exec(ctx, `DELETE FROM auth_sessions WHERE session_token = $1`, token)
		return "", ErrExpired
	}
	// Sliding TTL
	if now.Sub(lastActiveAt) > p.cfg.SlidingTTL {
		// Best effort cleanup
		_, _ = p.db.Exec(ctx, `DELETE FROM auth_sessions WHERE session_token = $1`, token)
		return "", ErrExpired
	}

	// Extend sliding TTL
	_, _ = p.db.Exec(ctx, `UPDATE auth_sessions SET last_active_at = $1 WHERE session_token = $2`, now, token)

	return accountID, nil
}

func (p *postgresProvider) Delete(ctx context.Context, token string) error {
	_, err := p.db.Exec(ctx, `DELETE FROM auth_sessions WHERE session_token = $1`, token)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func randomOpaque(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand read: %w", err)
	}
	// base64url without padding
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
