package admingate

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrFlagNotFound is returned by Store.Get when no gate flag has been written.
var ErrFlagNotFound = errors.New("admingate: flag not found")

// Flag is the persisted gate state. Timestamp is unix milliseconds of the
// moment the gate was unlocked; expiry is computed lazily from it on read.
type Flag struct {
	Authenticated bool
	Timestamp     int64
	Verified      bool
}

// Store persists the gate flag. The live implementation uses Redis; demo mode
// uses process memory.
type Store interface {
	Get(ctx context.Context) (*Flag, error)
	Set(ctx context.Context, flag *Flag) error
	Clear(ctx context.Context) error
}

// --- Redis implementation ---

const (
	keyAuthenticated = "admin_authenticated"
	keyTimestamp     = "admin_timestamp"
	keyVerified      = "admin_verified"
)

type redisStore struct {
	client *redis.Client
}

// NewRedisStore creates a gate store backed by Redis.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Get(ctx context.Context) (*Flag, error) {
	vals, err := s.client.MGet(ctx, keyAuthenticated, keyTimestamp, keyVerified).Result()
	if err != nil {
		return nil, err
	}
	if vals[0] == nil {
		return nil, ErrFlagNotFound
	}

	flag := &Flag{}
	if v, ok := vals[0].(string); ok {
		flag.Authenticated = v == "true"
	}
	if v, ok := vals[1].(string); ok {
		ts, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, err
		}
		flag.Timestamp = ts
	}
	if v, ok := vals[2].(string); ok {
		flag.Verified = v == "true"
	}
	return flag, nil
}

func (s *redisStore) Set(ctx context.Context, flag *Flag) error {
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, keyAuthenticated, strconv.FormatBool(flag.Authenticated), 0)
		pipe.Set(ctx, keyTimestamp, strconv.FormatInt(flag.Timestamp, 10), 0)
		pipe.Set(ctx, keyVerified, strconv.FormatBool(flag.Verified), 0)
		return nil
	})
	return err
}

func (s *redisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, keyAuthenticated, keyTimestamp, keyVerified).Err()
}

// --- In-memory implementation (demo mode) ---

type memoryStore struct {
	mu   sync.Mutex
	flag *Flag
}

// NewMemoryStore creates a gate store held in process memory. State vanishes
// on restart, matching the demo contract.
func NewMemoryStore() Store {
	return &memoryStore{}
}

func (s *memoryStore) Get(ctx context.Context) (*Flag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flag == nil {
		return nil, ErrFlagNotFound
	}
	cp := *s.flag
	return &cp, nil
}

func (s *memoryStore) Set(ctx context.Context, flag *Flag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *flag
	s.flag = &cp
	return nil
}

func (s *memoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flag = nil
	return nil
}

// timestampMillis converts a time to the unix-millisecond representation the
// flag carries.
func timestampMillis(t time.Time) int64 {
	return t.UnixMilli()
}
