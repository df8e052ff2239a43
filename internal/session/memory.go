package session

import (
	"context"
	"sync"
	"time"
)

type memorySession struct {
	accountID    string
	createdAt    time.Time
	lastActiveAt time.Time
}

// memoryProvider keeps sessions in a map. Same lazy-expiry semantics as the
// Postgres provider.
type memoryProvider struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
	cfg      Config
}

func newMemoryProvider(cfg Config) *memoryProvider {
	return &memoryProvider{
		sessions: make(map[string]*memorySession),
		cfg:      cfg.withDefaults(),
	}
}

func (p *memoryProvider) Create(ctx context.Context, accountID string, userAgent string, ip string) (string, error) {
	raw, err := randomOpaque(32)
	if err != nil {
		return "", err
	}
	token := "auth:" + raw

	now := p.cfg.Now()
	p.mu.Lock()
	p.sessions[token] = &memorySession{accountID: accountID, createdAt: now, lastActiveAt: now}
	p.mu.Unlock()

	return token, nil
}

func (p *memoryProvider) GetAndExtend(ctx context.Context, token string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sess, ok := p.sessions[token]
	if !ok {
		return "", ErrNotFound
	}

	now := p.cfg.Now()
	if now.Sub(sess.createdAt) > p.cfg.AbsoluteTTL || now.Sub(sess.lastActiveAt) > p.cfg.SlidingTTL {
		delete(p.sessions, token)
		return "", ErrExpired
	}

	sess.lastActiveAt = now
	return sess.accountID, nil
}

func (p *memoryProvider) Delete(ctx context.Context, token string) error {
	p.mu.Lock()
	delete(p.sessions, token)
	p.mu.Unlock()
	return nil
}
