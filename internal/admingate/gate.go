// Package admingate implements the extra credential gate in front of the
// admin area. The gate is independent of account authentication: an admin
// account must both hold the admin role and have passed the gate, and passing
// the gate grants nothing to a non-admin account.
package admingate

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/linkamarket/linka-api/internal/config"
)

// ErrGateRejected is returned when the submitted gate credentials or security
// answer do not match. The message never says which part was wrong.
var ErrGateRejected = errors.New("admingate: credentials rejected")

// Status is the gate state as seen by a caller.
type Status struct {
	Authenticated bool
	Verified      bool
	Question      string
}

// Gate owns the unlock lifecycle of the admin area.
type Gate struct {
	store  Store
	cfg    config.AdminGateConfig
	logger *slog.Logger
	now    func() time.Time
}

// New creates a gate with the given store and credentials. Now defaults to
// time.Now when nil.
func New(store Store, cfg config.AdminGateConfig, logger *slog.Logger, now func() time.Time) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{store: store, cfg: cfg, logger: logger, now: now}
}

// TTL is how long an unlock lasts before Check starts reporting the gate as
// locked again.
func (g *Gate) TTL() time.Duration {
	return time.Duration(g.cfg.TTLHours) * time.Hour
}

// Unlock validates the gate username and password and, on success, records an
// unlocked-but-unverified flag. Comparison is constant-time so response
// timing does not reveal how much of the pair matched.
func (g *Gate) Unlock(ctx context.Context, username, password string) error {
	// An unconfigured gate must stay shut, never fall open to empty input.
	if g.cfg.Username == "" || g.cfg.Password == "" {
		g.logger.Error("admin gate credentials are not configured; refusing to unlock")
		return ErrGateRejected
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(g.cfg.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(g.cfg.Password)) == 1
	if !userOK || !passOK {
		g.logger.Warn("admin gate unlock rejected")
		return ErrGateRejected
	}

	flag := &Flag{
		Authenticated: true,
		Timestamp:     timestampMillis(g.now()),
		Verified:      false,
	}
	if err := g.store.Set(ctx, flag); err != nil {
		return err
	}

	g.logger.Info("admin gate unlocked")
	return nil
}

// VerifyAnswer checks the security-question answer and upgrades an unlocked
// gate to verified. The answer comparison is case-insensitive on trimmed
// input; the gate must already be unlocked and unexpired.
func (g *Gate) VerifyAnswer(ctx context.Context, answer string) error {
	status, err := g.Check(ctx)
	if err != nil {
		return err
	}
	if !status.Authenticated {
		return ErrGateRejected
	}

	normalized := strings.ToLower(strings.TrimSpace(answer))
	expected := strings.ToLower(strings.TrimSpace(g.cfg.Answer))
	if subtle.ConstantTimeCompare([]byte(normalized), []byte(expected)) != 1 {
		g.logger.Warn("admin gate security answer rejected")
		// A wrong answer revokes any earlier verification; the unlock itself
		// and its timestamp are left as they were.
		if status.Verified {
			if flag, err := g.store.Get(ctx); err == nil {
				flag.Verified = false
				if err := g.store.Set(ctx, flag); err != nil {
					g.logger.Warn("failed to demote verified flag after rejected answer", "error", err)
				}
			}
		}
		return ErrGateRejected
	}

	flag := &Flag{
		Authenticated: true,
		Timestamp:     timestampMillis(g.now()),
		Verified:      true,
	}
	if err := g.store.Set(ctx, flag); err != nil {
		return err
	}

	g.logger.Info("admin gate verified")
	return nil
}

// Check reports the current gate state. Expiry is lazy and pull-based: the
// flag is examined on read and cleared when its timestamp is older than the
// TTL. No background sweeper exists.
func (g *Gate) Check(ctx context.Context) (*Status, error) {
	status := &Status{Question: g.cfg.Question}

	flag, err := g.store.Get(ctx)
	if err != nil {
		if errors.Is(err, ErrFlagNotFound) {
			return status, nil
		}
		return nil, err
	}
	if !flag.Authenticated {
		return status, nil
	}

	age := g.now().Sub(time.UnixMilli(flag.Timestamp))
	if age >= g.TTL() {
		// Expired: clear the stale flag so the next read is cheap.
		if err := g.store.Clear(ctx); err != nil {
			g.logger.Warn("failed to clear expired admin gate flag", "error", err)
		}
		g.logger.Info("admin gate unlock expired", "age", age)
		return status, nil
	}

	status.Authenticated = true
	status.Verified = flag.Verified
	return status, nil
}

// Lock clears the gate regardless of its current state.
func (g *Gate) Lock(ctx context.Context) error {
	if err := g.store.Clear(ctx); err != nil {
		return err
	}
	g.logger.Info("admin gate locked")
	return nil
}
