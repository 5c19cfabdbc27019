package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/comitanigiacomo/ascend-engine/internal/core/domain"
)

var _ domain.SessionRepository = (*InMemorySessionRepository)(nil)

// InMemorySessionRepository keeps sessions in a map. Values are copied on the
// way in and out so callers never share a record with the store.
type InMemorySessionRepository struct {
	store map[string]*domain.Session

	mu  sync.RWMutex
	now func() time.Time
}

func NewInMemorySessionRepository() *InMemorySessionRepository {
	return &InMemorySessionRepository{
		store: make(map[string]*domain.Session),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func clone(s *domain.Session) *domain.Session {
	c := *s
	if s.Notes != nil {
		n := *s.Notes
		c.Notes = &n
	}
	if s.DeletedAt != nil {
		d := *s.DeletedAt
		c.DeletedAt = &d
	}
	return &c
}

func (r *InMemorySessionRepository) Create(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if _, ok := r.store[session.ID]; ok {
		return domain.ErrSessionConflict
	}

	r.store[session.ID] = clone(session)
	return nil
}

func (r *InMemorySessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.store[id]
	if !ok || s.IsDeleted() {
		return nil, domain.ErrSessionNotFound
	}
	return clone(s), nil
}

func (r *InMemorySessionRepository) List(ctx context.Context, userID string, filter domain.SessionFilter) ([]*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*domain.Session, 0)
	for _, s := range r.store {
		if s.UserID != userID || s.IsDeleted() || !filter.Matches(s) {
			continue
		}
		matched = append(matched, clone(s))
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.After(matched[j].Date)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	limit, offset := filter.Page()
	if offset >= len(matched) {
		return []*domain.Session{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r *InMemorySessionRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*domain.Session, 0)
	for _, s := range r.store {
		if s.UserID == userID && !s.IsDeleted() {
			sessions = append(sessions, clone(s))
		}
	}

	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].Date.Equal(sessions[j].Date) {
			return sessions[i].Date.Before(sessions[j].Date)
		}
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	return sessions, nil
}

func (r *InMemorySessionRepository) Update(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.store[session.ID]
	if !ok || stored.IsDeleted() || stored.UserID != session.UserID {
		return domain.ErrSessionNotFound
	}
	if stored.Version != session.Version {
		return domain.ErrSessionConflict
	}

	session.Version++
	session.UpdatedAt = r.now()
	r.store[session.ID] = clone(session)
	return nil
}

func (r *InMemorySessionRepository) Delete(ctx context.Context, id string, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.store[id]
	if !ok || stored.IsDeleted() || stored.UserID != userID {
		return domain.ErrSessionNotFound
	}

	now := r.now()
	stored.DeletedAt = &now
	stored.UpdatedAt = now
	stored.Version++
	return nil
}

func (r *InMemorySessionRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	changes := make([]*domain.Session, 0)
	for _, s := range r.store {
		if s.UserID == userID && s.UpdatedAt.After(since) {
			changes = append(changes, clone(s))
		}
	}

	sort.Slice(changes, func(i, j int) bool {
		return changes[i].UpdatedAt.Before(changes[j].UpdatedAt)
	})

	return changes, nil
}
