package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/ascend-engine/internal/core/domain"
)

var (
	_ domain.SnapshotStore = (*RedisSnapshotStore)(nil)
	_ domain.SnapshotStore = (*MemorySnapshotStore)(nil)
)

const DefaultSnapshotTTL = 15 * time.Minute

type RedisSnapshotStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSnapshotStore(rdb *redis.Client, ttl time.Duration) *RedisSnapshotStore {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &RedisSnapshotStore{rdb: rdb, ttl: ttl}
}

func snapshotKey(userID string) string {
	return fmt.Sprintf("analytics:snapshot:%s", userID)
}

func snapshotGenKey(userID string) string {
	return fmt.Sprintf("analytics:generation:%s", userID)
}

func (s *RedisSnapshotStore) Get(ctx context.Context, userID string) (*domain.Snapshot, error) {
	val, err := s.rdb.Get(ctx, snapshotKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		log.Printf("[CACHE] Corrupted snapshot for user %s, cleaning up key", userID)
		s.rdb.Del(ctx, snapshotKey(userID))
		return nil, domain.ErrSnapshotNotFound
	}
	return &snap, nil
}

func (s *RedisSnapshotStore) Generation(ctx context.Context, userID string) (uint64, error) {
	return ReadGeneration(ctx, s.rdb, snapshotGenKey(userID))
}

func (s *RedisSnapshotStore) Set(ctx context.Context, userID string, gen uint64, snapshot *domain.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	err = SetIfGeneration(ctx, s.rdb, snapshotGenKey(userID), gen, snapshotKey(userID), data, s.ttl)
	if errors.Is(err, ErrGenerationChanged) {
		return domain.ErrSnapshotStale
	}
	return err
}

func (s *RedisSnapshotStore) Delete(ctx context.Context, userID string) error {
	return BumpGeneration(ctx, s.rdb, snapshotGenKey(userID), snapshotKey(userID))
}

// MemorySnapshotStore is the process-local fallback used when Redis is not
// configured. Entries never expire; writes invalidate them.
type MemorySnapshotStore struct {
	mu    sync.RWMutex
	snaps map[string]*domain.Snapshot
	gens  map[string]uint64
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{
		snaps: make(map[string]*domain.Snapshot),
		gens:  make(map[string]uint64),
	}
}

func (s *MemorySnapshotStore) Get(ctx context.Context, userID string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snaps[userID]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	return snap, nil
}

func (s *MemorySnapshotStore) Generation(ctx context.Context, userID string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.gens[userID], nil
}

func (s *MemorySnapshotStore) Set(ctx context.Context, userID string, gen uint64, snapshot *domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gens[userID] != gen {
		return domain.ErrSnapshotStale
	}
	s.snaps[userID] = snapshot
	return nil
}

func (s *MemorySnapshotStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gens[userID]++
	delete(s.snaps, userID)
	return nil
}
