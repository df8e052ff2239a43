package sessionstate

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TokenStore persists the opaque session token between process runs, playing
// the part a browser's local storage plays for a web client.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// --- File-backed implementation ---

type fileTokenStore struct {
	mu   sync.Mutex
	path string
}

// NewFileTokenStore persists the token in a file under the given directory
// (typically the user's config dir). The directory is created on first save.
func NewFileTokenStore(dir string) TokenStore {
	return &fileTokenStore{path: filepath.Join(dir, "session-token")}
}

func (s *fileTokenStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *fileTokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(token), 0o600)
}

func (s *fileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// --- In-memory implementation ---

type memoryTokenStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryTokenStore keeps the token in process memory only. Used in tests
// and demo mode, where "forgetting" the session on restart is the point.
func NewMemoryTokenStore() TokenStore {
	return &memoryTokenStore{}
}

func (s *memoryTokenStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *memoryTokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *memoryTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
