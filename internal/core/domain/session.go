package domain

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrSessionNotFound = errors.New("climbing session not found")
	ErrSessionConflict = errors.New("climbing session version conflict")
	ErrUnauthorized    = errors.New("unauthorized access to resource")
)

// Session is one logged climb. Records are not edited in place: a change is a
// new Session that replaces the stored one.
type Session struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Discipline Discipline `json:"discipline"`
	Grade      Grade      `json:"grade"`
	Date       Date       `json:"date"`
	Notes      *string    `json:"notes,omitempty"`
	Sent       bool       `json:"sent"`

	Version   int        `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// NewSession validates raw user input and builds a Session. The id is left
// empty: the store assigns it.
func NewSession(discipline, grade, date string, sent bool, notes *string) (*Session, error) {
	d, err := ParseDiscipline(discipline)
	if err != nil {
		return nil, err
	}

	g, err := ParseGrade(d, grade)
	if err != nil {
		return nil, err
	}

	day, err := ParseDate(date)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	return &Session{
		Discipline: d,
		Grade:      g,
		Date:       day,
		Notes:      copyNotes(notes),
		Sent:       sent,

		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Validate re-checks the admission rules on a record that did not come
// through NewSession, e.g. one loaded from storage.
func (s *Session) Validate() error {
	if !s.Discipline.IsValid() {
		return ErrInvalidDiscipline
	}
	if _, err := RankOf(s.Discipline, s.Grade); err != nil {
		return err
	}
	if s.Date.IsZero() {
		return &InvalidDateError{}
	}
	return nil
}

func (s *Session) Rank() (float64, error) {
	return RankOf(s.Discipline, s.Grade)
}

func (s *Session) IsDeleted() bool {
	return s.DeletedAt != nil
}

// GradeLabel is the raw label, or "" when the record carries no grade.
func (s *Session) GradeLabel() string {
	if s.Grade == nil {
		return ""
	}
	return s.Grade.Label()
}

func copyNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	n := *notes
	return &n
}

type sessionJSON struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Discipline string     `json:"discipline"`
	Grade      string     `json:"grade"`
	Date       Date       `json:"date"`
	Notes      *string    `json:"notes,omitempty"`
	Sent       bool       `json:"sent"`
	Version    int        `json:"version"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// UnmarshalJSON rebuilds the Grade union from its label, so a decoded record
// is subject to the same vocabulary check as a new one.
func (s *Session) UnmarshalJSON(data []byte) error {
	var raw sessionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	d, err := ParseDiscipline(raw.Discipline)
	if err != nil {
		return err
	}
	g, err := ParseGrade(d, raw.Grade)
	if err != nil {
		return err
	}

	*s = Session{
		ID:         raw.ID,
		UserID:     raw.UserID,
		Discipline: d,
		Grade:      g,
		Date:       raw.Date,
		Notes:      raw.Notes,
		Sent:       raw.Sent,
		Version:    raw.Version,
		CreatedAt:  raw.CreatedAt,
		UpdatedAt:  raw.UpdatedAt,
		DeletedAt:  raw.DeletedAt,
	}
	return nil
}
