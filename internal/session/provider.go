package session

import (
	"context"
	"errors"
	"time"

	"github.com/linkamarket/linka-api/internal/database"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrExpired  = errors.New("session expired")
)

// Config controls session TTLs.
type Config struct {
	// SlidingTTL is the idle timeout. Each valid access extends last_active_at
	// by this duration. Default: 7 days.
	SlidingTTL time.Duration

	// AbsoluteTTL is the maximum lifetime from creation. After this duration
	// the session is invalid regardless of activity. Default: 30 days.
	AbsoluteTTL time.Duration

	// Now is the clock used for TTL checks; defaults to time.Now.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.SlidingTTL == 0 {
		c.SlidingTTL = 7 * 24 * time.Hour
	}
	if c.AbsoluteTTL == 0 {
		c.AbsoluteTTL = 30 * 24 * time.Hour
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Provider defines operations for managing opaque auth sessions.
//
// Session tokens are opaque, random, and prefixed with a type, e.g. "auth:".
// Expiry is lazy: a session's age is only checked when the session is next
// accessed, never by a background sweeper.
type Provider interface {
	// Create creates a new auth session for the given account and returns the
	// session token. Optional userAgent and ip can be recorded for auditing.
	Create(ctx context.Context, accountID string, userAgent string, ip string) (token string, err error)

	// GetAndExtend validates the given session token (including TTL checks)
	// and extends the sliding TTL. It returns the associated account ID.
	GetAndExtend(ctx context.Context, token string) (accountID string, err error)

	// Delete deletes a session by its token. It is idempotent.
	Delete(ctx context.Context, token string) error
}

// NewPostgresProvider returns a Postgres-backed Provider implementation.
func NewPostgresProvider(db database.DBTX, cfg Config) Provider {
	return newPostgresProvider(db, cfg)
}

// NewMemoryProvider returns an in-memory Provider used by demo mode and tests.
func NewMemoryProvider(cfg Config) Provider {
	return newMemoryProvider(cfg)
}
