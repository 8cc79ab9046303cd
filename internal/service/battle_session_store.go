package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"card-psycho/internal/domain"
)

// BattleSessionStore guarda sesiones de batalla en curso por ID, con TTL.
// Las sesiones son estado transitorio: expiran solas y se borran al resolver
// o abandonar el flujo.
type BattleSessionStore interface {
	Save(session domain.BattleSession, ttl time.Duration) error
	Get(id string) (domain.BattleSession, bool, error)
	Delete(id string) error
}

type memoryBattleSessionStore struct {
	mu    sync.Mutex
	items map[string]memorySessionEntry
}

type memorySessionEntry struct {
	session   domain.BattleSession
	expiresAt time.Time
}

func NewMemoryBattleSessionStore() BattleSessionStore {
	return &memoryBattleSessionStore{
		items: make(map[string]memorySessionEntry),
	}
}

func (s *memoryBattleSessionStore) Save(session domain.BattleSession, ttl time.Duration) error {
	if strings.TrimSpace(session.ID) == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[session.ID] = memorySessionEntry{
		session:   session,
		expiresAt: time.Now().UTC().Add(ttl),
	}
	return nil
}

func (s *memoryBattleSessionStore) Get(id string) (domain.BattleSession, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[id]
	if !ok {
		return domain.BattleSession{}, false, nil
	}
	if time.Now().UTC().After(entry.expiresAt) {
		delete(s.items, id)
		return domain.BattleSession{}, false, nil
	}
	return entry.session, true, nil
}

func (s *memoryBattleSessionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

type redisKVClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisBattleSessionStore struct {
	client redisKVClient
	prefix string
}

func NewRedisBattleSessionStore(client *redis.Client) BattleSessionStore {
	if client == nil {
		return nil
	}
	return &redisBattleSessionStore{
		client: client,
		prefix: "battle:session:",
	}
}

func (s *redisBattleSessionStore) Save(session domain.BattleSession, ttl time.Duration) error {
	if strings.TrimSpace(session.ID) == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	return s.client.Set(ctx, s.prefix+session.ID, payload, ttl).Err()
}

func (s *redisBattleSessionStore) Get(id string) (domain.BattleSession, bool, error) {
	if strings.TrimSpace(id) == "" {
		return domain.BattleSession{}, false, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	payload, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if err == redis.Nil {
		return domain.BattleSession{}, false, nil
	}
	if err != nil {
		return domain.BattleSession{}, false, err
	}
	var session domain.BattleSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return domain.BattleSession{}, false, err
	}
	return session, true, nil
}

func (s *redisBattleSessionStore) Delete(id string) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	return s.client.Del(ctx, s.prefix+id).Err()
}
