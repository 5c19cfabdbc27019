package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/comitanigiacomo/ascend-engine/internal/core/analytics"
	"github.com/comitanigiacomo/ascend-engine/internal/core/domain"
)

type SessionLister interface {
	ListByUserID(ctx context.Context, userID string) ([]*domain.Session, error)
}

type AnalyticsService struct {
	repo  SessionLister
	store domain.SnapshotStore
	now   func() time.Time
}

func NewAnalyticsService(repo SessionLister, store domain.SnapshotStore) *AnalyticsService {
	return &AnalyticsService{
		repo:  repo,
		store: store,
		now:   time.Now,
	}
}

type Summary struct {
	Overview     domain.Overview                                 `json:"overview"`
	ByDiscipline map[domain.Discipline]domain.DisciplineSummary `json:"by_discipline"`
}

// ProgressReport holds the overview plus the requested series. A nil series
// was not asked for.
type ProgressReport struct {
	Overview domain.Overview        `json:"overview"`
	Weekly   *domain.ProgressSeries `json:"weekly,omitempty"`
	Monthly  *domain.ProgressSeries `json:"monthly,omitempty"`
}

// Snapshot returns the user's memoised snapshot, computing and storing it on a
// miss. A failing store only costs a recomputation. The store generation is
// read before the sessions, so a write that lands mid-computation keeps the
// result out of the store.
func (s *AnalyticsService) Snapshot(ctx context.Context, userID string) (*domain.Snapshot, error) {
	cacheable := false
	var gen uint64

	if s.store != nil {
		snap, err := s.store.Get(ctx, userID)
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, domain.ErrSnapshotNotFound) {
			log.Printf("[CACHE] Snapshot read failed for user %s: %v", userID, err)
		}

		gen, err = s.store.Generation(ctx, userID)
		if err != nil {
			log.Printf("[CACHE] Snapshot generation read failed for user %s: %v", userID, err)
		} else {
			cacheable = true
		}
	}

	sessions, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	snap, err := analytics.ComputeSnapshot(sessions, s.now().UTC())
	if err != nil {
		return nil, err
	}

	if cacheable {
		err := s.store.Set(ctx, userID, gen, snap)
		switch {
		case errors.Is(err, domain.ErrSnapshotStale):
			log.Printf("[CACHE] Snapshot for user %s superseded by a newer write, not stored", userID)
		case err != nil:
			log.Printf("[CACHE] Snapshot write failed for user %s: %v", userID, err)
		}
	}

	return snap, nil
}

func (s *AnalyticsService) Summary(ctx context.Context, userID string) (*Summary, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Summary{Overview: snap.Overview, ByDiscipline: snap.ByDiscipline}, nil
}

// Progress returns both series when bucketing is empty, otherwise only the
// requested one.
func (s *AnalyticsService) Progress(ctx context.Context, userID string, bucketing domain.Bucketing) (*ProgressReport, error) {
	if bucketing != "" && !bucketing.IsValid() {
		return nil, analytics.ErrInvalidBucketing
	}

	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	report := &ProgressReport{Overview: snap.Overview}
	if bucketing == "" || bucketing == domain.BucketWeek {
		weekly := snap.Weekly
		report.Weekly = &weekly
	}
	if bucketing == "" || bucketing == domain.BucketMonth {
		monthly := snap.Monthly
		report.Monthly = &monthly
	}
	return report, nil
}

func (s *AnalyticsService) HighestGrades(ctx context.Context, userID string) (map[domain.Discipline]domain.Grade, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return snap.HighestGrades, nil
}

func (s *AnalyticsService) AverageGrades(ctx context.Context, userID string) (map[domain.Discipline]float64, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return snap.AverageGrades, nil
}

func (s *AnalyticsService) Invalidate(ctx context.Context, userID string) error {
	if s.store == nil {
		return nil
	}
	return s.store.Delete(ctx, userID)
}
