package domain

import (
	"context"
	"strings"
	"time"
)

type SessionRepository interface {
	// Create persists a new session. The store assigns the ID when it is empty.
	Create(ctx context.Context, session *Session) error

	// Update replaces an existing session.
	// session.Version must be the version that was read; implementations reject
	// the write with ErrSessionConflict when the stored version differs, and
	// bump session.Version on success.
	Update(ctx context.Context, session *Session) error

	// Delete performs a soft delete of a session owned by userID.
	Delete(ctx context.Context, id string, userID string) error

	// GetByID retrieves a single active (non-deleted) session.
	GetByID(ctx context.Context, id string) (*Session, error)

	// List retrieves the active sessions of a user matching the filter,
	// most recent date first.
	List(ctx context.Context, userID string, filter SessionFilter) ([]*Session, error)

	// ListByUserID retrieves every active session of a user. It is the snapshot
	// handed to the analytics engine.
	ListByUserID(ctx context.Context, userID string) ([]*Session, error)

	// GetChanges returns creations, updates and soft-deletes after 'since'.
	GetChanges(ctx context.Context, userID string, since time.Time) ([]*Session, error)
}

type SessionFilter struct {
	Discipline Discipline
	Date       Date
	From       Date
	To         Date
	Search     string
	Limit      int
	Offset     int
}

const DefaultListLimit = 200

// Matches applies every filter field except paging.
func (f SessionFilter) Matches(s *Session) bool {
	if f.Discipline != "" && s.Discipline != f.Discipline {
		return false
	}
	if !f.Date.IsZero() && !s.Date.Equal(f.Date) {
		return false
	}
	if !f.From.IsZero() && s.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && s.Date.After(f.To) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		inGrade := strings.Contains(strings.ToLower(s.GradeLabel()), q)
		inNotes := s.Notes != nil && strings.Contains(strings.ToLower(*s.Notes), q)
		if !inGrade && !inNotes {
			return false
		}
	}
	return true
}

// Page normalises Limit and Offset.
func (f SessionFilter) Page() (limit, offset int) {
	limit = f.Limit
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	offset = f.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
