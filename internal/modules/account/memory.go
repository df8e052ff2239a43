package account

import (
	"context"
	"sync"
	"time"
)

// memoryRepository is the in-memory Repository used in demo mode. It holds
// everything in process memory behind one mutex: writes work for the lifetime
// of the process and vanish on restart, which is exactly the demo contract.
type memoryRepository struct {
	mu          sync.Mutex
	identities  map[string]*Identity // keyed by ID
	profiles    map[string]*Profile  // keyed by identity ID
	codes       map[string]*VerificationCode
	oauthStates map[string]*OAuthState
}

// NewMemoryRepository creates an empty in-memory account repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		identities:  make(map[string]*Identity),
		profiles:    make(map[string]*Profile),
		codes:       make(map[string]*VerificationCode),
		oauthStates: make(map[string]*OAuthState),
	}
}

// SeedAccount is a fixture account loaded into the demo repository at startup.
type SeedAccount struct {
	ID       string
	Email    string
	Password string
	FullName string
	Role     Role
}

// NewSeededMemoryRepository creates an in-memory repository pre-populated with
// fixture accounts, one per marketplace role, so the demo is explorable
// without registering first. Seed passwords are bcrypt-hashed like real ones.
func NewSeededMemoryRepository(seeds []SeedAccount) (Repository, error) {
	repo := NewMemoryRepository().(*memoryRepository)
	now := time.Now()
	for _, seed := range seeds {
		hash, err := hashPassword(seed.Password)
		if err != nil {
			return nil, err
		}
		repo.identities[seed.ID] = &Identity{
			ID:            seed.ID,
			Email:         seed.Email,
			PasswordHash:  hash,
			EmailVerified: true,
			MetaFullName:  seed.FullName,
			MetaRole:      seed.Role,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		repo.profiles[seed.ID] = &Profile{
			ID:               seed.ID,
			FullName:         seed.FullName,
			Role:             seed.Role,
			ProfileCompleted: true,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
	}
	return repo, nil
}

// --- Identities ---

func (m *memoryRepository) CreateIdentity(ctx context.Context, id *Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *id
	m.identities[id.ID] = &cp
	return nil
}

func (m *memoryRepository) FindIdentityByEmail(ctx context.Context, email string) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.identities {
		if id.Email == email {
			cp := *id
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryRepository) FindIdentityByID(ctx context.Context, id string) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	identity, ok := m.identities[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *identity
	return &cp, nil
}

func (m *memoryRepository) FindIdentityByPasswordResetToken(ctx context.Context, tokenHash string) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.identities {
		if id.PasswordResetToken != nil && *id.PasswordResetToken == tokenHash {
			cp := *id
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryRepository) SetEmailVerified(ctx context.Context, identityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	identity, ok := m.identities[identityID]
	if !ok {
		return ErrNotFound
	}
	identity.EmailVerified = true
	identity.UpdatedAt = time.Now()
	return nil
}

func (m *memoryRepository) UpdatePassword(ctx context.Context, identityID string, newPasswordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	identity, ok := m.identities[identityID]
	if !ok {
		return ErrNotFound
	}
	identity.PasswordHash = newPasswordHash
	identity.PasswordResetToken = nil
	identity.PasswordResetTokenExpiry = nil
	identity.UpdatedAt = time.Now()
	return nil
}

func (m *memoryRepository) UpdatePasswordResetInfo(ctx context.Context, identityID string, tokenHash string, expiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	identity, ok := m.identities[identityID]
	if !ok {
		return ErrNotFound
	}
	identity.PasswordResetToken = &tokenHash
	identity.PasswordResetTokenExpiry = &expiry
	identity.UpdatedAt = time.Now()
	return nil
}

// --- Profiles ---

func (m *memoryRepository) CreateProfile(ctx context.Context, p *Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.profiles[p.ID] = &cp
	return nil
}

func (m *memoryRepository) FindProfileByID(ctx context.Context, id string) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memoryRepository) UpdateProfile(ctx context.Context, p *Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.ID]; !ok {
		return ErrNotFound
	}
	cp := *p
	m.profiles[p.ID] = &cp
	return nil
}

// --- Verification codes ---

func (m *memoryRepository) UpsertVerificationCode(ctx context.Context, vc *VerificationCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *vc
	cp.ConsumedAt = nil
	m.codes[vc.Email] = &cp
	return nil
}

func (m *memoryRepository) GetVerificationCode(ctx context.Context, email string) (*VerificationCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	vc, ok := m.codes[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *vc
	return &cp, nil
}

func (m *memoryRepository) ConsumeVerificationCode(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	vc, ok := m.codes[email]
	if !ok || vc.ConsumedAt != nil {
		return ErrNotFound
	}
	now := time.Now()
	vc.ConsumedAt = &now
	return nil
}

// --- OAuth states ---

func (m *memoryRepository) InsertOAuthState(ctx context.Context, state *OAuthState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *state
	m.oauthStates[state.State] = &cp
	return nil
}

func (m *memoryRepository) GetOAuthStateByState(ctx context.Context, state string) (*OAuthState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.oauthStates[state]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (m *memoryRepository) DeleteOAuthState(ctx context.Context, state string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.oauthStates, state)
	return nil
}

func (m *memoryRepository) DeleteExpiredOAuthStates(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for k, v := range m.oauthStates {
		if now.After(v.ExpiresAt) {
			delete(m.oauthStates, k)
		}
	}
	return nil
}
