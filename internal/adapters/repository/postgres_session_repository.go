package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/comitanigiacomo/ascend-engine/internal/core/domain"
)

var _ domain.SessionRepository = (*PostgresSessionRepository)(nil)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// likeEscaper makes the search term match literally under ILIKE, whose
// default escape character is the backslash.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

var sessionColumns = []string{
	"id", "user_id", "discipline", "grade", "session_date", "notes", "sent",
	"version", "created_at", "updated_at", "deleted_at",
}

// sessionRow is the storage shape of a Session: the grade travels as its
// label and is re-admitted through domain.ParseGrade on the way out.
type sessionRow struct {
	ID          string      `db:"id"`
	UserID      string      `db:"user_id"`
	Discipline  string      `db:"discipline"`
	Grade       string      `db:"grade"`
	SessionDate domain.Date `db:"session_date"`
	Notes       *string     `db:"notes"`
	Sent        bool        `db:"sent"`
	Version     int         `db:"version"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
	DeletedAt   *time.Time  `db:"deleted_at"`
}

func toRow(s *domain.Session) sessionRow {
	return sessionRow{
		ID:          s.ID,
		UserID:      s.UserID,
		Discipline:  s.Discipline.String(),
		Grade:       s.GradeLabel(),
		SessionDate: s.Date,
		Notes:       s.Notes,
		Sent:        s.Sent,
		Version:     s.Version,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		DeletedAt:   s.DeletedAt,
	}
}

func (r sessionRow) toSession() (*domain.Session, error) {
	d, err := domain.ParseDiscipline(r.Discipline)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", r.ID, err)
	}
	g, err := domain.ParseGrade(d, r.Grade)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", r.ID, err)
	}

	return &domain.Session{
		ID:         r.ID,
		UserID:     r.UserID,
		Discipline: d,
		Grade:      g,
		Date:       r.SessionDate,
		Notes:      r.Notes,
		Sent:       r.Sent,
		Version:    r.Version,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		DeletedAt:  r.DeletedAt,
	}, nil
}

func toSessions(rows []sessionRow) ([]*domain.Session, error) {
	sessions := make([]*domain.Session, 0, len(rows))
	for _, row := range rows {
		s, err := row.toSession()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

type PostgresSessionRepository struct {
	db *sqlx.DB
}

func NewPostgresSessionRepository(db *sqlx.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

func (r *PostgresSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}

	query := `
		INSERT INTO climb_sessions (
			id, user_id, discipline, grade, session_date, notes, sent,
			version, created_at, updated_at, deleted_at
		) VALUES (
			:id, :user_id, :discipline, :grade, :session_date, :notes, :sent,
			:version, :created_at, :updated_at, :deleted_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, toRow(session))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSessionConflict
		}
		return err
	}
	return nil
}

func (r *PostgresSessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrSessionNotFound
	}

	query, args, err := psql.Select(sessionColumns...).
		From("climb_sessions").
		Where(squirrel.Eq{"id": id, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row sessionRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return row.toSession()
}

func (r *PostgresSessionRepository) List(ctx context.Context, userID string, filter domain.SessionFilter) ([]*domain.Session, error) {
	q := psql.Select(sessionColumns...).
		From("climb_sessions").
		Where(squirrel.Eq{"user_id": userID, "deleted_at": nil})

	if filter.Discipline != "" {
		q = q.Where(squirrel.Eq{"discipline": filter.Discipline.String()})
	}
	if !filter.Date.IsZero() {
		q = q.Where(squirrel.Eq{"session_date": filter.Date})
	}
	if !filter.From.IsZero() {
		q = q.Where(squirrel.GtOrEq{"session_date": filter.From})
	}
	if !filter.To.IsZero() {
		q = q.Where(squirrel.LtOrEq{"session_date": filter.To})
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + likeEscaper.Replace(search) + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"grade": pattern},
			squirrel.ILike{"notes": pattern},
		})
	}

	limit, offset := filter.Page()
	q = q.OrderBy("session_date DESC", "created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows := []sessionRow{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return toSessions(rows)
}

func (r *PostgresSessionRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Session, error) {
	query, args, err := psql.Select(sessionColumns...).
		From("climb_sessions").
		Where(squirrel.Eq{"user_id": userID, "deleted_at": nil}).
		OrderBy("session_date ASC", "created_at ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows := []sessionRow{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return toSessions(rows)
}

func (r *PostgresSessionRepository) Update(ctx context.Context, session *domain.Session) error {
	readVersion := session.Version
	row := toRow(session)
	row.Version = readVersion + 1
	row.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE climb_sessions
		SET discipline = :discipline,
		    grade = :grade,
		    session_date = :session_date,
		    notes = :notes,
		    sent = :sent,
		    version = :version,
		    updated_at = :updated_at
		WHERE id = :id
		  AND user_id = :user_id
		  AND version = :version - 1
		  AND deleted_at IS NULL`

	result, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		exists, _ := r.exists(ctx, session.ID)
		if !exists {
			return domain.ErrSessionNotFound
		}
		return domain.ErrSessionConflict
	}

	session.Version = row.Version
	session.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *PostgresSessionRepository) Delete(ctx context.Context, id string, userID string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrSessionNotFound
	}

	now := time.Now().UTC()

	query := `
		UPDATE climb_sessions
		SET deleted_at = $1,
		    updated_at = $1,
		    version = version + 1
		WHERE id = $2
		  AND user_id = $3
		  AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, now, id, userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrSessionNotFound
	}

	return nil
}

func (r *PostgresSessionRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Session, error) {
	query, args, err := psql.Select(sessionColumns...).
		From("climb_sessions").
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.Gt{"updated_at": since}).
		OrderBy("updated_at ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows := []sessionRow{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return toSessions(rows)
}

func (r *PostgresSessionRepository) exists(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT count(*) FROM climb_sessions WHERE id = $1 AND deleted_at IS NULL", id)
	return count > 0, err
}

// isUniqueViolation recognises SQLSTATE 23505 from either driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
