// Package service implements the session orchestrator: the only writer of
// session and station state. Every entry point re-validates its raw input
// (the HTTP boundary is not trusted to have done so), drives the lifecycle
// planned -> active -> completed, and normalizes every failure into a
// *deskerr.SessionError before it crosses back out.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"gamedesk/backend/services/desk-service/internal/billing"
	"gamedesk/backend/services/desk-service/internal/deskerr"
	"gamedesk/backend/services/desk-service/internal/models"
	"gamedesk/backend/services/desk-service/internal/redisstore"
	"gamedesk/backend/services/desk-service/internal/repository"
	"gamedesk/backend/services/desk-service/internal/validate"
)

// SessionStore is the persistence contract for sessions.
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) (*models.Session, error)
	GetByID(ctx context.Context, id int64) (*models.Session, error)
	Activate(ctx context.Context, id int64, loginMinutes int) error
	Complete(ctx context.Context, id int64, p repository.CompleteParams) error
	Extend(ctx context.Context, id int64, addMinutes int) error
	UpdatePaymentStatus(ctx context.Context, id int64, status models.PaymentStatus) error
	Active(ctx context.Context) ([]models.Session, error)
	ByDate(ctx context.Context, date string) ([]models.Session, error)
	PendingPayment(ctx context.Context) ([]models.Session, error)
}

// StationStore is the persistence contract for stations. Claim must be
// atomic with respect to concurrent claims of the same station.
type StationStore interface {
	GetByID(ctx context.Context, id int64) (*models.Station, error)
	List(ctx context.Context, availableOnly bool) ([]models.Station, error)
	Upsert(ctx context.Context, station *models.Station) error
	Claim(ctx context.Context, id int64) error
	Release(ctx context.Context, id int64) error
}

// ActiveCache mirrors running sessions for the dashboard; all calls are
// best-effort.
type ActiveCache interface {
	Save(ctx context.Context, session redisstore.ActiveSession) error
	Delete(ctx context.Context, stationID int64) error
}

// DeskService orchestrates the session lifecycle.
type DeskService struct {
	sessions SessionStore
	stations StationStore
	cache    ActiveCache
	logger   *zap.Logger
}

// NewDeskService builds the orchestrator. cache may be nil.
func NewDeskService(sessions SessionStore, stations StationStore, cache ActiveCache, logger *zap.Logger) *DeskService {
	return &DeskService{
		sessions: sessions,
		stations: stations,
		cache:    cache,
		logger:   logger,
	}
}

// StartSessionInput carries raw boundary input for starting a session.
// LoginTime empty means the session is planned rather than started
// immediately; HourlyRate empty falls back to the station default.
type StartSessionInput struct {
	Date           string
	CustomerName   string
	StationID      int64
	LoginTime      string
	HourlyRate     string
	PlannedMinutes int
	PaymentMethod  string
	Notes          string
}

// StartSession validates input, creates a session and, when a login time is
// supplied, claims the station and activates immediately. Validators run in
// a fixed order: name, station, rate, time, notes.
func (s *DeskService) StartSession(ctx context.Context, input StartSessionInput) (*models.Session, error) {
	const op = "start session"

	name, verr := validate.CustomerName(input.CustomerName)
	if verr != nil {
		return nil, deskerr.WrapSession(op, verr)
	}

	station, err := s.stations.GetByID(ctx, input.StationID)
	if errors.Is(err, repository.ErrStationNotFound) {
		return nil, deskerr.WrapSession(op, &deskerr.NotFoundError{Kind: "station", ID: input.StationID})
	}
	if err != nil {
		return nil, deskerr.WrapSession(op, err)
	}

	rate := station.DefaultRate
	if input.HourlyRate != "" {
		if rate, verr = validate.HourlyRate(input.HourlyRate); verr != nil {
			return nil, deskerr.WrapSession(op, verr)
		}
	}

	loginMinutes := 0
	immediate := input.LoginTime != ""
	if immediate {
		if loginMinutes, verr = validate.Clock(validate.FieldLoginTime, input.LoginTime); verr != nil {
			return nil, deskerr.WrapSession(op, verr)
		}
	}

	notes, verr := validate.Notes(input.Notes)
	if verr != nil {
		return nil, deskerr.WrapSession(op, verr)
	}

	date := input.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	} else if date, verr = validate.Date(date); verr != nil {
		return nil, deskerr.WrapSession(op, verr)
	}

	method := models.PaymentMethod(input.PaymentMethod)
	if input.PaymentMethod == "" {
		method = models.PaymentMethodCash
	} else if !models.ValidPaymentMethod(method) {
		return nil, deskerr.WrapSession(op, deskerr.Validation("payment_method", "Payment method must be cash, online, or mixed."))
	}

	if input.PlannedMinutes < 0 {
		return nil, deskerr.WrapSession(op, deskerr.Validation("planned_minutes", "Planned duration cannot be negative."))
	}

	session := &models.Session{
		Date:           date,
		CustomerName:   name,
		StationID:      station.ID,
		StationName:    station.Name,
		State:          models.SessionStatePlanned,
		PlannedMinutes: input.PlannedMinutes,
		HourlyRate:     rate,
		PaymentMethod:  method,
		PaymentStatus:  models.PaymentStatusPending,
		Notes:          notes,
	}
	if immediate {
		session.State = models.SessionStateActive
		session.LoginMinutes = loginMinutes

		if err := s.stations.Claim(ctx, station.ID); err != nil {
			if errors.Is(err, repository.ErrStationInUse) {
				return nil, deskerr.WrapSession(op, &deskerr.StateError{From: string(models.StationInUse), Op: "start session"})
			}
			return nil, deskerr.WrapSession(op, err)
		}
	}

	session, err = s.sessions.Create(ctx, session)
	if err != nil {
		if immediate {
			// Compensate the claim so the station is not stranded in_use.
			if relErr := s.stations.Release(ctx, station.ID); relErr != nil {
				s.logger.Warn("failed to release station after create failure",
					zap.Int64("station_id", station.ID), zap.Error(relErr))
			}
		}
		return nil, deskerr.WrapSession(op, err)
	}

	if immediate {
		s.cacheActive(ctx, session)
	}

	s.logger.Info("session started",
		zap.Int64("session_id", session.ID),
		zap.Int64("station_id", session.StationID),
		zap.String("state", string(session.State)),
	)
	return session, nil
}

// ActivateSession moves a planned session to active at the given login time,
// claiming its station.
func (s *DeskService) ActivateSession(ctx context.Context, sessionID int64, loginTime string) (*models.Session, error) {
	const op = "activate session"

	session, err := s.loadSession(ctx, op, sessionID)
	if err != nil {
		return nil, err
	}
	if session.State != models.SessionStatePlanned {
		return nil, deskerr.WrapSession(op, &deskerr.StateError{SessionID: sessionID, From: string(session.State), Op: "activate"})
	}

	loginMinutes, verr := validate.Clock(validate.FieldLoginTime, loginTime)
	if verr != nil {
		return nil, deskerr.WrapSession(op, verr)
	}

	if err := s.stations.Claim(ctx, session.StationID); err != nil {
		if errors.Is(err, repository.ErrStationInUse) {
			return nil, deskerr.WrapSession(op, &deskerr.StateError{From: string(models.StationInUse), Op: "activate"})
		}
		return nil, deskerr.WrapSession(op, err)
	}

	if err := s.sessions.Activate(ctx, sessionID, loginMinutes); err != nil {
		if relErr := s.stations.Release(ctx, session.StationID); relErr != nil {
			s.logger.Warn("failed to release station after activate failure",
				zap.Int64("station_id", session.StationID), zap.Error(relErr))
		}
		if errors.Is(err, repository.ErrNoRowsUpdated) {
			return nil, deskerr.WrapSession(op, &deskerr.StateError{SessionID: sessionID, From: string(session.State), Op: "activate"})
		}
		return nil, deskerr.WrapSession(op, err)
	}

	session.State = models.SessionStateActive
	session.LoginMinutes = loginMinutes
	s.cacheActive(ctx, session)

	s.logger.Info("session activated", zap.Int64("session_id", sessionID), zap.Int64("station_id", session.StationID))
	return session, nil
}

// EndSessionInput carries raw boundary input for ending a session.
type EndSessionInput struct {
	SessionID     int64
	LogoutTime    string
	ExtraCharges  string
	PaymentMethod string
	PaymentStatus string
	Notes         string
}

// EndSession completes an active session: validates logout time, extra
// charges and notes, computes duration and total due, writes the completed
// record and releases the station.
func (s *DeskService) EndSession(ctx context.Context, input EndSessionInput) (*models.Session, error) {
	const op = "end session"

	session, err := s.loadSession(ctx, op, input.SessionID)
	if err != nil {
		return nil, err
	}
	if session.State != models.SessionStateActive {
		return nil, deskerr.WrapSession(op, &deskerr.StateError{SessionID: session.ID, From: string(session.State), Op: "end"})
	}

	logoutMinutes, verr := validate.Clock(validate.FieldLogoutTime, input.LogoutTime)
	if verr != nil {
		return nil, deskerr.WrapSession(op, verr)
	}

	extraRaw := input.ExtraCharges
	if extraRaw == "" {
		extraRaw = "0"
	}
	extra, verr := validate.ExtraCharges(extraRaw)
	if verr != nil {
		return nil, deskerr.WrapSession(op, verr)
	}

	notes := session.Notes
	if input.Notes != "" {
		if notes, verr = validate.Notes(input.Notes); verr != nil {
			return nil, deskerr.WrapSession(op, verr)
		}
	}

	method := session.PaymentMethod
	if input.PaymentMethod != "" {
		method = models.PaymentMethod(input.PaymentMethod)
		if !models.ValidPaymentMethod(method) {
			return nil, deskerr.WrapSession(op, deskerr.Validation("payment_method", "Payment method must be cash, online, or mixed."))
		}
	}

	status := models.PaymentStatusPaid
	if input.PaymentStatus != "" {
		status = models.PaymentStatus(input.PaymentStatus)
		if status != models.PaymentStatusPaid && status != models.PaymentStatusPending {
			return nil, deskerr.WrapSession(op, deskerr.Validation(validate.FieldPaymentStatus,
				"Payment status at completion must be paid or pending."))
		}
	}

	duration, err := billing.DurationMinutes(session.LoginMinutes, logoutMinutes)
	if err != nil {
		return nil, deskerr.WrapSession(op, err)
	}
	total := billing.TotalDue(session.HourlyRate, duration, extra)

	params := repository.CompleteParams{
		LogoutMinutes: logoutMinutes,
		ActualMinutes: duration,
		ExtraCharges:  extra,
		TotalDue:      total,
		PaymentMethod: method,
		PaymentStatus: status,
		Notes:         notes,
	}
	if err := s.sessions.Complete(ctx, session.ID, params); err != nil {
		if errors.Is(err, repository.ErrNoRowsUpdated) {
			return nil, deskerr.WrapSession(op, &deskerr.StateError{SessionID: session.ID, From: string(session.State), Op: "end"})
		}
		return nil, deskerr.WrapSession(op, err)
	}

	if err := s.stations.Release(ctx, session.StationID); err != nil {
		s.logger.Warn("failed to release station after session end",
			zap.Int64("station_id", session.StationID), zap.Error(err))
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, session.StationID); err != nil {
			s.logger.Warn("failed to drop active session cache", zap.Error(err))
		}
	}

	session.State = models.SessionStateCompleted
	session.LogoutMinutes = logoutMinutes
	session.ActualMinutes = duration
	session.ExtraCharges = extra
	session.TotalDue = total
	session.PaymentMethod = method
	session.PaymentStatus = status
	session.Notes = notes

	s.logger.Info("session completed",
		zap.Int64("session_id", session.ID),
		zap.Int64("station_id", session.StationID),
		zap.Int("duration_min", duration),
		zap.Float64("total_due", total),
	)
	return session, nil
}

// ExtendSession adds minutes to the planned duration of an active session.
func (s *DeskService) ExtendSession(ctx context.Context, sessionID int64, addMinutes int) (*models.Session, error) {
	const op = "extend session"

	if addMinutes <= 0 {
		return nil, deskerr.WrapSession(op, deskerr.Validation("additional_minutes", "Additional minutes must be greater than 0."))
	}

	session, err := s.loadSession(ctx, op, sessionID)
	if err != nil {
		return nil, err
	}
	if session.State != models.SessionStateActive {
		return nil, deskerr.WrapSession(op, &deskerr.StateError{SessionID: sessionID, From: string(session.State), Op: "extend"})
	}

	if err := s.sessions.Extend(ctx, sessionID, addMinutes); err != nil {
		if errors.Is(err, repository.ErrNoRowsUpdated) {
			return nil, deskerr.WrapSession(op, &deskerr.StateError{SessionID: sessionID, From: string(session.State), Op: "extend"})
		}
		return nil, deskerr.WrapSession(op, err)
	}

	session.PlannedMinutes += addMinutes
	return session, nil
}

// CorrectPaymentStatus adjusts the payment status of a completed session.
// This sits outside the lifecycle state machine; the only legal moves are
// pending -> paid and paid -> refunded.
func (s *DeskService) CorrectPaymentStatus(ctx context.Context, sessionID int64, status models.PaymentStatus) (*models.Session, error) {
	const op = "correct payment status"

	if !models.ValidPaymentStatus(status) {
		return nil, deskerr.WrapSession(op, deskerr.Validation(validate.FieldPaymentStatus,
			"Payment status must be paid, pending, or refunded."))
	}

	session, err := s.loadSession(ctx, op, sessionID)
	if err != nil {
		return nil, err
	}
	if session.State != models.SessionStateCompleted {
		return nil, deskerr.WrapSession(op, &deskerr.StateError{SessionID: sessionID, From: string(session.State), Op: "correct payment for"})
	}

	legal := (session.PaymentStatus == models.PaymentStatusPending && status == models.PaymentStatusPaid) ||
		(session.PaymentStatus == models.PaymentStatusPaid && status == models.PaymentStatusRefunded)
	if !legal {
		return nil, deskerr.WrapSession(op, deskerr.Validation(validate.FieldPaymentStatus,
			"Cannot change payment status from "+string(session.PaymentStatus)+" to "+string(status)+"."))
	}

	if err := s.sessions.UpdatePaymentStatus(ctx, sessionID, status); err != nil {
		if errors.Is(err, repository.ErrNoRowsUpdated) {
			return nil, deskerr.WrapSession(op, &deskerr.StateError{SessionID: sessionID, From: string(session.State), Op: "correct payment for"})
		}
		return nil, deskerr.WrapSession(op, err)
	}

	session.PaymentStatus = status
	return session, nil
}

// ActiveSessions returns all running sessions.
func (s *DeskService) ActiveSessions(ctx context.Context) ([]models.Session, error) {
	sessions, err := s.sessions.Active(ctx)
	if err != nil {
		return nil, deskerr.WrapSession("list active sessions", err)
	}
	return sessions, nil
}

// SessionsByDate returns all sessions for one date.
func (s *DeskService) SessionsByDate(ctx context.Context, date string) ([]models.Session, error) {
	const op = "list sessions by date"
	normalized, verr := validate.Date(date)
	if verr != nil {
		return nil, deskerr.WrapSession(op, verr)
	}
	sessions, err := s.sessions.ByDate(ctx, normalized)
	if err != nil {
		return nil, deskerr.WrapSession(op, err)
	}
	return sessions, nil
}

// PendingPayments returns sessions still awaiting payment.
func (s *DeskService) PendingPayments(ctx context.Context) ([]models.Session, error) {
	sessions, err := s.sessions.PendingPayment(ctx)
	if err != nil {
		return nil, deskerr.WrapSession("list pending payments", err)
	}
	return sessions, nil
}

// Stations lists stations, optionally only available ones.
func (s *DeskService) Stations(ctx context.Context, availableOnly bool) ([]models.Station, error) {
	stations, err := s.stations.List(ctx, availableOnly)
	if err != nil {
		return nil, deskerr.WrapSession("list stations", err)
	}
	return stations, nil
}

// SaveStation validates and upserts a station.
func (s *DeskService) SaveStation(ctx context.Context, name, stationType, rate string) (*models.Station, error) {
	const op = "save station"

	normalized, verr := validate.StationName(name)
	if verr != nil {
		return nil, deskerr.WrapSession(op, verr)
	}
	parsedRate, verr := validate.HourlyRate(rate)
	if verr != nil {
		return nil, deskerr.WrapSession(op, verr)
	}

	station := &models.Station{
		Name:        normalized,
		Type:        stationType,
		DefaultRate: parsedRate,
	}
	if err := s.stations.Upsert(ctx, station); err != nil {
		return nil, deskerr.WrapSession(op, err)
	}
	return station, nil
}

// LiveSession is a dashboard view of a running session.
type LiveSession struct {
	SessionID      int64   `json:"session_id"`
	StationID      int64   `json:"station_id"`
	StationName    string  `json:"station_name"`
	CustomerName   string  `json:"customer_name"`
	LoginTime      string  `json:"login_time"`
	ElapsedMinutes int     `json:"elapsed_minutes"`
	ElapsedDisplay string  `json:"elapsed_display"`
	HourlyRate     float64 `json:"hourly_rate"`
	RunningDue     float64 `json:"running_due"`
}

// DashboardSnapshot returns the running sessions with elapsed time computed
// against now. Sessions whose login is in the future (clock skew) show zero
// elapsed minutes.
func (s *DeskService) DashboardSnapshot(ctx context.Context, now time.Time) ([]LiveSession, error) {
	sessions, err := s.sessions.Active(ctx)
	if err != nil {
		return nil, deskerr.WrapSession("dashboard snapshot", err)
	}

	nowMinutes := now.Hour()*60 + now.Minute()
	live := make([]LiveSession, 0, len(sessions))
	for _, session := range sessions {
		elapsed := nowMinutes - session.LoginMinutes
		if elapsed < 0 {
			elapsed = 0
		}
		live = append(live, LiveSession{
			SessionID:      session.ID,
			StationID:      session.StationID,
			StationName:    session.StationName,
			CustomerName:   session.CustomerName,
			LoginTime:      deskerr.FormatMinutes(session.LoginMinutes),
			ElapsedMinutes: elapsed,
			ElapsedDisplay: billing.FormatDuration(elapsed),
			HourlyRate:     session.HourlyRate,
			RunningDue:     billing.TotalDue(session.HourlyRate, elapsed, 0),
		})
	}
	return live, nil
}

func (s *DeskService) loadSession(ctx context.Context, op string, id int64) (*models.Session, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil, deskerr.WrapSession(op, &deskerr.NotFoundError{Kind: "session", ID: id})
	}
	if err != nil {
		return nil, deskerr.WrapSession(op, err)
	}
	return session, nil
}

func (s *DeskService) cacheActive(ctx context.Context, session *models.Session) {
	if s.cache == nil {
		return
	}
	err := s.cache.Save(ctx, redisstore.ActiveSession{
		SessionID:    session.ID,
		StationID:    session.StationID,
		StationName:  session.StationName,
		CustomerName: session.CustomerName,
		LoginMinutes: session.LoginMinutes,
		HourlyRate:   session.HourlyRate,
	})
	if err != nil {
		s.logger.Warn("failed to cache active session", zap.Int64("session_id", session.ID), zap.Error(err))
	}
}
