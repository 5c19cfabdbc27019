package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/ascend-engine/internal/adapters/cache"
	"github.com/comitanigiacomo/ascend-engine/internal/core/domain"
)

var _ domain.SessionRepository = (*CachedSessionRepository)(nil)

const defaultSessionCacheTTL = 30 * time.Minute

// CachedSessionRepository keeps each user's full session list in Redis. Only
// ListByUserID is served from cache; every write drops the user's entry and
// advances its generation, so a list read before the write is never cached.
type CachedSessionRepository struct {
	next  domain.SessionRepository
	cache *redis.Client
	ttl   time.Duration
}

func NewCachedSessionRepository(next domain.SessionRepository, cache *redis.Client, ttl time.Duration) *CachedSessionRepository {
	if ttl <= 0 {
		ttl = defaultSessionCacheTTL
	}
	return &CachedSessionRepository{
		next:  next,
		cache: cache,
		ttl:   ttl,
	}
}

func (r *CachedSessionRepository) cacheKey(userID string) string {
	return fmt.Sprintf("sessions:%s", userID)
}

func (r *CachedSessionRepository) generationKey(userID string) string {
	return fmt.Sprintf("sessions-generation:%s", userID)
}

func (r *CachedSessionRepository) invalidate(ctx context.Context, userID string) {
	if err := cache.BumpGeneration(ctx, r.cache, r.generationKey(userID), r.cacheKey(userID)); err != nil {
		log.Printf("[CACHE] Failed to invalidate sessions for user %s: %v", userID, err)
	}
}

func (r *CachedSessionRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Session, error) {
	key := r.cacheKey(userID)

	val, err := r.cache.Get(ctx, key).Result()
	if err == nil {
		var sessions []*domain.Session
		if err := json.Unmarshal([]byte(val), &sessions); err == nil {
			return sessions, nil
		}

		log.Printf("[CACHE] Corrupted session list for user %s, cleaning up key", userID)
		r.cache.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("[CACHE] Redis read error: %v", err)
	}

	gen, genErr := cache.ReadGeneration(ctx, r.cache, r.generationKey(userID))
	if genErr != nil {
		log.Printf("[CACHE] Redis generation read error: %v", genErr)
	}

	sessions, err := r.next.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		return sessions, nil
	}

	if data, err := json.Marshal(sessions); err == nil {
		setErr := cache.SetIfGeneration(ctx, r.cache, r.generationKey(userID), gen, key, data, r.ttl)
		switch {
		case errors.Is(setErr, cache.ErrGenerationChanged):
			log.Printf("[CACHE] Session list for user %s changed while loading, not cached", userID)
		case setErr != nil:
			log.Printf("[CACHE] Redis set error: %v", setErr)
		}
	}

	return sessions, nil
}

func (r *CachedSessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	return r.next.GetByID(ctx, id)
}

func (r *CachedSessionRepository) List(ctx context.Context, userID string, filter domain.SessionFilter) ([]*domain.Session, error) {
	return r.next.List(ctx, userID, filter)
}

func (r *CachedSessionRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Session, error) {
	return r.next.GetChanges(ctx, userID, since)
}

func (r *CachedSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if err := r.next.Create(ctx, session); err != nil {
		return err
	}
	r.invalidate(ctx, session.UserID)
	return nil
}

func (r *CachedSessionRepository) Update(ctx context.Context, session *domain.Session) error {
	if err := r.next.Update(ctx, session); err != nil {
		return err
	}
	r.invalidate(ctx, session.UserID)
	return nil
}

func (r *CachedSessionRepository) Delete(ctx context.Context, id string, userID string) error {
	if err := r.next.Delete(ctx, id, userID); err != nil {
		return err
	}
	r.invalidate(ctx, userID)
	return nil
}
