package repository

import (
	"context"
	"database/sql"
	"errors"

	"gamedesk/backend/services/desk-service/internal/models"
)

// ErrSessionNotFound indicates a missing session row.
var ErrSessionNotFound = errors.New("session not found")

// ErrNoRowsUpdated indicates a conditional update matched nothing, usually
// because the row changed state underneath the caller.
var ErrNoRowsUpdated = errors.New("no rows updated")

const sessionColumns = `
	s.id, s.date, s.customer_name, s.station_id, st.name,
	s.state, s.planned_minutes, s.login_minutes, s.logout_minutes, s.actual_minutes,
	s.hourly_rate, s.extra_charges, s.total_due,
	s.payment_method, s.payment_status, s.notes, s.created_at, s.updated_at`

// SessionRepository handles persistence of desk sessions.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository returns repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session and fills in the generated fields.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) (*models.Session, error) {
	const query = `
		INSERT INTO sessions (date, customer_name, station_id, state, planned_minutes,
			login_minutes, hourly_rate, payment_method, payment_status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	var login sql.NullInt64
	if session.State != models.SessionStatePlanned {
		login = sql.NullInt64{Int64: int64(session.LoginMinutes), Valid: true}
	}
	err := r.db.QueryRowContext(ctx, query,
		session.Date,
		session.CustomerName,
		session.StationID,
		session.State,
		session.PlannedMinutes,
		login,
		session.HourlyRate,
		session.PaymentMethod,
		session.PaymentStatus,
		session.Notes,
	).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// GetByID returns one session joined with its station name.
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	const query = `
		SELECT` + sessionColumns + `
		FROM sessions s
		JOIN stations st ON s.station_id = st.id
		WHERE s.id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Activate moves a planned session to active and records the login time.
// Conditional on the current state so a concurrent activation cannot apply
// twice; returns ErrNoRowsUpdated when the session is no longer planned.
func (r *SessionRepository) Activate(ctx context.Context, id int64, loginMinutes int) error {
	const query = `
		UPDATE sessions
		SET state = $2, login_minutes = $3, updated_at = NOW()
		WHERE id = $1 AND state = $4
	`
	return r.execExpectingRow(ctx, query, id, models.SessionStateActive, loginMinutes, models.SessionStatePlanned)
}

// CompleteParams carries everything written at completion.
type CompleteParams struct {
	LogoutMinutes int
	ActualMinutes int
	ExtraCharges  float64
	TotalDue      float64
	PaymentMethod models.PaymentMethod
	PaymentStatus models.PaymentStatus
	Notes         string
}

// Complete finalizes an active session in a single conditional write.
func (r *SessionRepository) Complete(ctx context.Context, id int64, p CompleteParams) error {
	const query = `
		UPDATE sessions
		SET state = $2, logout_minutes = $3, actual_minutes = $4, extra_charges = $5,
		    total_due = $6, payment_method = $7, payment_status = $8, notes = $9, updated_at = NOW()
		WHERE id = $1 AND state = $10
	`
	return r.execExpectingRow(ctx, query, id,
		models.SessionStateCompleted, p.LogoutMinutes, p.ActualMinutes, p.ExtraCharges,
		p.TotalDue, p.PaymentMethod, p.PaymentStatus, p.Notes, models.SessionStateActive)
}

// Extend adds minutes to the planned duration of an active session.
func (r *SessionRepository) Extend(ctx context.Context, id int64, addMinutes int) error {
	const query = `
		UPDATE sessions
		SET planned_minutes = planned_minutes + $2, updated_at = NOW()
		WHERE id = $1 AND state = $3
	`
	return r.execExpectingRow(ctx, query, id, addMinutes, models.SessionStateActive)
}

// UpdatePaymentStatus corrects the payment status of a completed session.
func (r *SessionRepository) UpdatePaymentStatus(ctx context.Context, id int64, status models.PaymentStatus) error {
	const query = `
		UPDATE sessions
		SET payment_status = $2, updated_at = NOW()
		WHERE id = $1 AND state = $3
	`
	return r.execExpectingRow(ctx, query, id, status, models.SessionStateCompleted)
}

// Active returns currently running sessions, most recent login first.
func (r *SessionRepository) Active(ctx context.Context) ([]models.Session, error) {
	const query = `
		SELECT` + sessionColumns + `
		FROM sessions s
		JOIN stations st ON s.station_id = st.id
		WHERE s.state = 'active'
		ORDER BY s.login_minutes DESC
	`
	return r.query(ctx, query)
}

// ByDate returns all sessions for a date (YYYY-MM-DD).
func (r *SessionRepository) ByDate(ctx context.Context, date string) ([]models.Session, error) {
	const query = `
		SELECT` + sessionColumns + `
		FROM sessions s
		JOIN stations st ON s.station_id = st.id
		WHERE s.date = $1
		ORDER BY s.login_minutes DESC
	`
	return r.query(ctx, query, date)
}

// PendingPayment returns sessions still awaiting payment.
func (r *SessionRepository) PendingPayment(ctx context.Context) ([]models.Session, error) {
	const query = `
		SELECT` + sessionColumns + `
		FROM sessions s
		JOIN stations st ON s.station_id = st.id
		WHERE s.payment_status = 'pending'
		ORDER BY s.date DESC, s.login_minutes DESC
	`
	return r.query(ctx, query)
}

func (r *SessionRepository) execExpectingRow(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNoRowsUpdated
	}
	return nil
}

func (r *SessionRepository) query(ctx context.Context, query string, args ...any) ([]models.Session, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var (
		s      models.Session
		login  sql.NullInt64
		logout sql.NullInt64
		actual sql.NullInt64
		total  sql.NullFloat64
		notes  sql.NullString
	)
	if err := row.Scan(
		&s.ID,
		&s.Date,
		&s.CustomerName,
		&s.StationID,
		&s.StationName,
		&s.State,
		&s.PlannedMinutes,
		&login,
		&logout,
		&actual,
		&s.HourlyRate,
		&s.ExtraCharges,
		&total,
		&s.PaymentMethod,
		&s.PaymentStatus,
		&notes,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	s.LoginMinutes = int(login.Int64)
	s.LogoutMinutes = int(logout.Int64)
	s.ActualMinutes = int(actual.Int64)
	s.TotalDue = total.Float64
	s.Notes = notes.String
	return &s, nil
}
