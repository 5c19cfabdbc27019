package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/ascend-engine/internal/adapters/cache"
	"github.com/comitanigiacomo/ascend-engine/internal/core/analytics"
	"github.com/comitanigiacomo/ascend-engine/internal/core/domain"
	"github.com/comitanigiacomo/ascend-engine/internal/core/services"
)

func TestAnalyticsService_Snapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("Success: Cache hit skips the repository", func(t *testing.T) {
		repo := new(MockSessionRepo)
		store := new(MockSnapshotStore)
		svc := services.NewAnalyticsService(repo, store)

		cached := &domain.Snapshot{Overview: domain.Overview{TotalSessions: 42}}
		store.On("Get", ctx, "u1").Return(cached, nil)

		got, err := svc.Snapshot(ctx, "u1")
		require.NoError(t, err)
		assert.Same(t, cached, got)
		repo.AssertNotCalled(t, "ListByUserID", mock.Anything, mock.Anything)
	})

	t.Run("Success: Miss computes and stores", func(t *testing.T) {
		repo := new(MockSessionRepo)
		store := new(MockSnapshotStore)
		svc := services.NewAnalyticsService(repo, store)

		store.On("Get", ctx, "u1").Return(nil, domain.ErrSnapshotNotFound)
		repo.On("ListByUserID", ctx, "u1").Return([]*domain.Session{
			storedSession(t, "a", "u1", "BOULDER", "V2", "2025-01-02"),
			storedSession(t, "b", "u1", "BOULDER", "V6", "2025-01-03"),
		}, nil)
		store.On("Generation", ctx, "u1").Return(uint64(7), nil)
		store.On("Set", ctx, "u1", uint64(7), mock.AnythingOfType("*domain.Snapshot")).Return(nil)

		got, err := svc.Snapshot(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 2, got.Overview.TotalSessions)
		assert.Equal(t, 4.0, got.Overview.AverageDifficulty.Or(-1))
		store.AssertExpectations(t)
	})

	t.Run("Edge Case: Broken store is bypassed", func(t *testing.T) {
		repo := new(MockSessionRepo)
		store := new(MockSnapshotStore)
		svc := services.NewAnalyticsService(repo, store)

		store.On("Get", ctx, "u1").Return(nil, errors.New("redis down"))
		repo.On("ListByUserID", ctx, "u1").Return([]*domain.Session{}, nil)
		store.On("Generation", ctx, "u1").Return(uint64(0), errors.New("redis down"))

		got, err := svc.Snapshot(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 0, got.Overview.TotalSessions)
		assert.False(t, got.Overview.AverageDifficulty.HasData())
		store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Edge Case: Superseded snapshot is still returned", func(t *testing.T) {
		repo := new(MockSessionRepo)
		store := new(MockSnapshotStore)
		svc := services.NewAnalyticsService(repo, store)

		store.On("Get", ctx, "u1").Return(nil, domain.ErrSnapshotNotFound)
		store.On("Generation", ctx, "u1").Return(uint64(1), nil)
		repo.On("ListByUserID", ctx, "u1").Return([]*domain.Session{
			storedSession(t, "a", "u1", "LEAD", "5.9", "2025-01-02"),
		}, nil)
		store.On("Set", ctx, "u1", uint64(1), mock.Anything).Return(domain.ErrSnapshotStale)

		got, err := svc.Snapshot(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 1, got.Overview.TotalSessions)
	})

	t.Run("Fail: Corrupt record fails loud and is not cached", func(t *testing.T) {
		repo := new(MockSessionRepo)
		svc := services.NewAnalyticsService(repo, nil)

		corrupt := storedSession(t, "bad", "u1", "BOULDER", "V2", "2025-01-02")
		corrupt.Discipline = domain.DisciplineLead
		repo.On("ListByUserID", ctx, "u1").Return([]*domain.Session{corrupt}, nil)

		_, err := svc.Snapshot(ctx, "u1")
		assert.ErrorIs(t, err, domain.ErrInvalidGrade)
	})

	t.Run("Fail: Repo error", func(t *testing.T) {
		repo := new(MockSessionRepo)
		svc := services.NewAnalyticsService(repo, nil)

		repo.On("ListByUserID", ctx, "u1").Return(nil, errors.New("db down"))

		_, err := svc.Snapshot(ctx, "u1")
		assert.EqualError(t, err, "db down")
	})
}

func TestAnalyticsService_Views(t *testing.T) {
	ctx := context.Background()
	repo := new(MockSessionRepo)
	svc := services.NewAnalyticsService(repo, nil)

	repo.On("ListByUserID", ctx, "u1").Return([]*domain.Session{
		storedSession(t, "a", "u1", "BOULDER", "V3", "2025-01-02"),
		storedSession(t, "b", "u1", "BOULDER", "V7", "2025-01-09"),
		storedSession(t, "c", "u1", "LEAD", "5.10b", "2025-02-01"),
	}, nil)

	t.Run("Summary", func(t *testing.T) {
		got, err := svc.Summary(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 3, got.Overview.TotalSessions)
		assert.Len(t, got.ByDiscipline, 2)
		assert.Equal(t, 5.0, got.ByDiscipline[domain.DisciplineBoulder].AverageDifficulty)
	})

	t.Run("Progress: both series by default", func(t *testing.T) {
		got, err := svc.Progress(ctx, "u1", "")
		require.NoError(t, err)
		require.NotNil(t, got.Weekly)
		require.NotNil(t, got.Monthly)
		assert.Len(t, got.Weekly.Buckets, 3)
		assert.Len(t, got.Monthly.Buckets, 2)
	})

	t.Run("Progress: narrowed to one bucketing", func(t *testing.T) {
		got, err := svc.Progress(ctx, "u1", domain.BucketMonth)
		require.NoError(t, err)
		assert.Nil(t, got.Weekly)
		require.NotNil(t, got.Monthly)
	})

	t.Run("Progress: unknown bucketing", func(t *testing.T) {
		_, err := svc.Progress(ctx, "u1", domain.Bucketing("day"))
		assert.ErrorIs(t, err, analytics.ErrInvalidBucketing)
	})

	t.Run("HighestGrades", func(t *testing.T) {
		got, err := svc.HighestGrades(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "V7", got[domain.DisciplineBoulder].Label())
		assert.Equal(t, "5.10b", got[domain.DisciplineLead].Label())
		_, ok := got[domain.DisciplineTopRope]
		assert.False(t, ok)
	})

	t.Run("AverageGrades", func(t *testing.T) {
		got, err := svc.AverageGrades(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 10.25, got[domain.DisciplineLead])
	})

	t.Run("Invalidate without a store is a no-op", func(t *testing.T) {
		assert.NoError(t, svc.Invalidate(ctx, "u1"))
	})
}

// gatedLister holds its first ListByUserID call open after copying the
// session list, so a test can slip a write in between.
type gatedLister struct {
	mu       sync.Mutex
	sessions []*domain.Session
	gated    bool
	entered  chan struct{}
	release  chan struct{}
}

func (l *gatedLister) add(s *domain.Session) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sessions = append(l.sessions, s)
}

func (l *gatedLister) ListByUserID(ctx context.Context, userID string) ([]*domain.Session, error) {
	l.mu.Lock()
	out := append([]*domain.Session(nil), l.sessions...)
	gate := l.gated
	l.gated = false
	l.mu.Unlock()

	if gate {
		close(l.entered)
		<-l.release
	}
	return out, nil
}

func TestAnalyticsService_WriteDuringRecompute(t *testing.T) {
	ctx := context.Background()

	lister := &gatedLister{
		sessions: []*domain.Session{storedSession(t, "a", "u1", "BOULDER", "V2", "2025-01-02")},
		gated:    true,
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	store := cache.NewMemorySnapshotStore()
	svc := services.NewAnalyticsService(lister, store)

	done := make(chan *domain.Snapshot, 1)
	go func() {
		snap, err := svc.Snapshot(ctx, "u1")
		assert.NoError(t, err)
		done <- snap
	}()

	<-lister.entered
	lister.add(storedSession(t, "b", "u1", "BOULDER", "V6", "2025-01-03"))
	require.NoError(t, store.Delete(ctx, "u1"))
	close(lister.release)

	slow := <-done
	require.NotNil(t, slow)
	assert.Equal(t, 1, slow.Overview.TotalSessions)

	_, err := store.Get(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "outdated snapshot must not be memoised")

	fresh, err := svc.Snapshot(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.Overview.TotalSessions)
}
