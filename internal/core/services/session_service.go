package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/comitanigiacomo/ascend-engine/internal/core/domain"
	"github.com/comitanigiacomo/ascend-engine/internal/core/workers"
)

type SessionService struct {
	repo      domain.SessionRepository
	snapshots domain.SnapshotStore
	worker    *workers.SnapshotWorker
}

func NewSessionService(repo domain.SessionRepository, snapshots domain.SnapshotStore, worker *workers.SnapshotWorker) *SessionService {
	return &SessionService{
		repo:      repo,
		snapshots: snapshots,
		worker:    worker,
	}
}

type CreateSessionInput struct {
	UserID     string
	Discipline string
	Grade      string
	Date       string
	Sent       bool
	Notes      *string
}

type ReplaceSessionInput struct {
	ID         string
	UserID     string
	Discipline string
	Grade      string
	Date       string
	Sent       bool
	Notes      *string
	Version    int
}

// PatchSessionInput carries only the fields the client sent; nil means
// "keep the stored value".
type PatchSessionInput struct {
	ID         string
	UserID     string
	Discipline *string
	Grade      *string
	Date       *string
	Sent       *bool
	Notes      *string
	ClearNotes bool
	Version    int
}

func (s *SessionService) Create(ctx context.Context, input CreateSessionInput) (*domain.Session, error) {
	session, err := domain.NewSession(input.Discipline, input.Grade, input.Date, input.Sent, input.Notes)
	if err != nil {
		return nil, err
	}
	session.UserID = input.UserID

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}

	s.refreshAnalytics(ctx, session.UserID)

	return session, nil
}

func (s *SessionService) GetByID(ctx context.Context, id string, userID string) (*domain.Session, error) {
	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return session, nil
}

func (s *SessionService) List(ctx context.Context, userID string, filter domain.SessionFilter) ([]*domain.Session, error) {
	return s.repo.List(ctx, userID, filter)
}

func (s *SessionService) Replace(ctx context.Context, input ReplaceSessionInput) (*domain.Session, error) {
	existing, err := s.GetByID(ctx, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(existing, input.Version); err != nil {
		return nil, err
	}

	next, err := domain.NewSession(input.Discipline, input.Grade, input.Date, input.Sent, input.Notes)
	if err != nil {
		return nil, err
	}

	return s.store(ctx, existing, next)
}

func (s *SessionService) Patch(ctx context.Context, input PatchSessionInput) (*domain.Session, error) {
	existing, err := s.GetByID(ctx, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(existing, input.Version); err != nil {
		return nil, err
	}

	discipline := mergeString(input.Discipline, existing.Discipline.String())
	grade := mergeString(input.Grade, existing.GradeLabel())
	date := mergeString(input.Date, existing.Date.String())

	sent := existing.Sent
	if input.Sent != nil {
		sent = *input.Sent
	}

	notes := existing.Notes
	if input.Notes != nil {
		notes = input.Notes
	}
	if input.ClearNotes {
		notes = nil
	}

	// The merged record is validated as a whole: moving a session to another
	// discipline without a grade from that discipline's scale is rejected.
	next, err := domain.NewSession(discipline, grade, date, sent, notes)
	if err != nil {
		return nil, err
	}

	return s.store(ctx, existing, next)
}

func (s *SessionService) Delete(ctx context.Context, id string, userID string) error {
	if _, err := s.GetByID(ctx, id, userID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.refreshAnalytics(ctx, userID)

	return nil
}

func (s *SessionService) GetDelta(ctx context.Context, userID string, since time.Time) ([]*domain.Session, error) {
	return s.repo.GetChanges(ctx, userID, since)
}

type RankedGrade struct {
	Label string  `json:"label"`
	Rank  float64 `json:"rank"`
}

// GradeVocabulary is the ordered grade list of one discipline, easiest first.
type GradeVocabulary struct {
	Discipline domain.Discipline `json:"discipline"`
	Scale      domain.Scale      `json:"scale"`
	Grades     []RankedGrade     `json:"grades"`
}

// Grades returns the ranked vocabulary for a discipline.
func (s *SessionService) Grades(discipline string) (*GradeVocabulary, error) {
	return VocabularyFor(discipline)
}

func VocabularyFor(discipline string) (*GradeVocabulary, error) {
	d, err := domain.ParseDiscipline(discipline)
	if err != nil {
		return nil, err
	}

	grades := domain.GradesFor(d)
	ranked := make([]RankedGrade, 0, len(grades))
	for _, g := range grades {
		rank, err := domain.RankOf(d, g)
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, RankedGrade{Label: g.Label(), Rank: rank})
	}

	return &GradeVocabulary{Discipline: d, Scale: d.Scale(), Grades: ranked}, nil
}

func (s *SessionService) store(ctx context.Context, existing, next *domain.Session) (*domain.Session, error) {
	next.ID = existing.ID
	next.UserID = existing.UserID
	next.Version = existing.Version
	next.CreatedAt = existing.CreatedAt

	if err := s.repo.Update(ctx, next); err != nil {
		return nil, err
	}

	s.refreshAnalytics(ctx, next.UserID)

	return next, nil
}

// refreshAnalytics drops the memoised snapshot before returning, so no read
// after a successful write can observe the old one, then schedules a rebuild.
func (s *SessionService) refreshAnalytics(ctx context.Context, userID string) {
	if s.snapshots != nil {
		if err := s.snapshots.Delete(ctx, userID); err != nil {
			log.Printf("[CACHE] Failed to invalidate snapshot for user %s: %v", userID, err)
		}
	}
	if s.worker != nil {
		s.worker.Enqueue(userID)
	}
}

func checkVersion(existing *domain.Session, clientVersion int) error {
	if clientVersion > 0 && existing.Version != clientVersion {
		return fmt.Errorf("%w: client v%d vs server v%d", domain.ErrSessionConflict, clientVersion, existing.Version)
	}
	return nil
}

func mergeString(newVal *string, oldVal string) string {
	if newVal == nil {
		return oldVal
	}
	return *newVal
}
