package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Keys mirrored into the durable store for every session namespace.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Store is the durable key-value backing of a session. Every call is scoped
// to one session id so two browsers never see each other's entries.
type Store interface {
	Get(ctx context.Context, sid, key string) (string, bool, error)
	Set(ctx context.Context, sid, key, value string) error
	Delete(ctx context.Context, sid string, keys ...string) error
}

// RedisStore keeps session keys under <prefix>:<sid>:<key>. Reads slide the TTL.
type RedisStore struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisStore(rdb redis.Cmdable, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "portal:session"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(sid, key string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, sid, key)
}

func (s *RedisStore) Get(ctx context.Context, sid, key string) (string, bool, error) {
	k := s.key(sid, key)
	val, err := s.rdb.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if err := s.rdb.Expire(ctx, k, s.ttl).Err(); err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, sid, key, value string) error {
	return s.rdb.Set(ctx, s.key(sid, key), value, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, sid string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, s.key(sid, k))
	}
	return s.rdb.Del(ctx, full...).Err()
}

// Ping is used as the store's readiness check.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// MemoryStore is a process-local Store for tests and single-node dev runs.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]map[string]string{}}
}

func (s *MemoryStore) Get(_ context.Context, sid, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[sid][key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, sid, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns := s.data[sid]
	if ns == nil {
		ns = map[string]string{}
		s.data[sid] = ns
	}
	ns[key] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sid string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns := s.data[sid]
	for _, k := range keys {
		delete(ns, k)
	}
	if len(ns) == 0 {
		delete(s.data, sid)
	}
	return nil
}
