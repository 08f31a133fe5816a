package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ZanzyTHEbar/mvp-o-meter/internal/analysis"
	"github.com/ZanzyTHEbar/mvp-o-meter/internal/cache"
)

// DefaultSessionID is used when a request names no session.
const DefaultSessionID = "default"

// SessionStore keeps the last stat line submitted per chat session.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (analysis.Profile, bool, error)
	Save(ctx context.Context, sessionID string, profile analysis.Profile) error
}

// MemorySessionStore keeps sessions in a TTL cache.
type MemorySessionStore struct {
	cache *cache.Cache
}

// NewMemorySessionStore stores sessions in c. Entries expire with c's default TTL.
func NewMemorySessionStore(c *cache.Cache) *MemorySessionStore {
	return &MemorySessionStore{cache: c}
}

func (s *MemorySessionStore) Load(_ context.Context, sessionID string) (analysis.Profile, bool, error) {
	data, ok := s.cache.Get(sessionKey(sessionID))
	if !ok {
		return nil, false, nil
	}
	var p analysis.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return p, true, nil
}

func (s *MemorySessionStore) Save(_ context.Context, sessionID string, profile analysis.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sessionID, err)
	}
	s.cache.Set(sessionKey(sessionID), data)
	return nil
}

// RedisSessionStore keeps sessions in Redis so every replica sees them.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore stores sessions in client, expiring after ttl of inactivity.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (s *RedisSessionStore) Load(ctx context.Context, sessionID string) (analysis.Profile, bool, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	var p analysis.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	// sliding expiry
	s.client.Expire(ctx, sessionKey(sessionID), s.ttl)
	return p, true, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, sessionID string, profile analysis.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sessionID, err)
	}
	if err := s.client.Set(ctx, sessionKey(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", sessionID, err)
	}
	return nil
}

func sessionKey(sessionID string) string {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	return "chat:session:" + sessionID
}
