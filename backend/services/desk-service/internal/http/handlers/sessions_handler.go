package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"gamedesk/backend/services/desk-service/internal/models"
	"gamedesk/backend/services/desk-service/internal/service"
	"gamedesk/backend/services/desk-service/internal/validate"
)

// SessionsHandler holds the session lifecycle endpoints. It validates fields
// at the boundary so obviously bad input is rejected with a field-specific
// message before the orchestrator runs; the orchestrator re-validates anyway.
type SessionsHandler struct {
	svc    *service.DeskService
	logger *zap.Logger
}

// NewSessionsHandler builds handler set.
func NewSessionsHandler(svc *service.DeskService, logger *zap.Logger) *SessionsHandler {
	return &SessionsHandler{svc: svc, logger: logger}
}

type startSessionRequest struct {
	Date           string `json:"date"`
	CustomerName   string `json:"customer_name"`
	StationID      int64  `json:"station_id"`
	LoginTime      string `json:"login_time"`
	HourlyRate     string `json:"hourly_rate"`
	PlannedMinutes int    `json:"planned_minutes"`
	PaymentMethod  string `json:"payment_method"`
	Notes          string `json:"notes"`
}

// HandleStart handles POST /sessions/start.
func (h *SessionsHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.StationID <= 0 {
		writeError(w, http.StatusBadRequest, "station_id is required")
		return
	}
	if _, verr := validate.CustomerName(req.CustomerName); verr != nil {
		writeValidationError(w, verr)
		return
	}
	if req.LoginTime != "" {
		if _, verr := validate.Clock(validate.FieldLoginTime, req.LoginTime); verr != nil {
			writeValidationError(w, verr)
			return
		}
	}

	session, err := h.svc.StartSession(r.Context(), service.StartSessionInput{
		Date:           req.Date,
		CustomerName:   req.CustomerName,
		StationID:      req.StationID,
		LoginTime:      req.LoginTime,
		HourlyRate:     req.HourlyRate,
		PlannedMinutes: req.PlannedMinutes,
		PaymentMethod:  req.PaymentMethod,
		Notes:          req.Notes,
	})
	if err != nil {
		h.logger.Error("start session failed", zap.Error(err))
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"session": session})
}

type activateSessionRequest struct {
	SessionID int64  `json:"session_id"`
	LoginTime string `json:"login_time"`
}

// HandleActivate handles POST /sessions/activate.
func (h *SessionsHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	var req activateSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SessionID <= 0 {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	if _, verr := validate.Clock(validate.FieldLoginTime, req.LoginTime); verr != nil {
		writeValidationError(w, verr)
		return
	}

	session, err := h.svc.ActivateSession(r.Context(), req.SessionID, req.LoginTime)
	if err != nil {
		h.logger.Error("activate session failed", zap.Int64("session_id", req.SessionID), zap.Error(err))
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"session": session})
}

type endSessionRequest struct {
	SessionID     int64  `json:"session_id"`
	LogoutTime    string `json:"logout_time"`
	ExtraCharges  string `json:"extra_charges"`
	PaymentMethod string `json:"payment_method"`
	PaymentStatus string `json:"payment_status"`
	Notes         string `json:"notes"`
}

// HandleEnd handles POST /sessions/end.
func (h *SessionsHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	var req endSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SessionID <= 0 {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	if _, verr := validate.Clock(validate.FieldLogoutTime, req.LogoutTime); verr != nil {
		writeValidationError(w, verr)
		return
	}
	if req.ExtraCharges != "" {
		if _, verr := validate.ExtraCharges(req.ExtraCharges); verr != nil {
			writeValidationError(w, verr)
			return
		}
	}

	session, err := h.svc.EndSession(r.Context(), service.EndSessionInput{
		SessionID:     req.SessionID,
		LogoutTime:    req.LogoutTime,
		ExtraCharges:  req.ExtraCharges,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: req.PaymentStatus,
		Notes:         req.Notes,
	})
	if err != nil {
		h.logger.Error("end session failed", zap.Int64("session_id", req.SessionID), zap.Error(err))
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"session": session})
}

type extendSessionRequest struct {
	SessionID         int64 `json:"session_id"`
	AdditionalMinutes int   `json:"additional_minutes"`
}

// HandleExtend handles POST /sessions/extend.
func (h *SessionsHandler) HandleExtend(w http.ResponseWriter, r *http.Request) {
	var req extendSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SessionID <= 0 {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	session, err := h.svc.ExtendSession(r.Context(), req.SessionID, req.AdditionalMinutes)
	if err != nil {
		h.logger.Error("extend session failed", zap.Int64("session_id", req.SessionID), zap.Error(err))
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"session": session})
}

type paymentStatusRequest struct {
	SessionID     int64  `json:"session_id"`
	PaymentStatus string `json:"payment_status"`
}

// HandlePaymentStatus handles POST /sessions/payment-status.
func (h *SessionsHandler) HandlePaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req paymentStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SessionID <= 0 {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	session, err := h.svc.CorrectPaymentStatus(r.Context(), req.SessionID, models.PaymentStatus(req.PaymentStatus))
	if err != nil {
		h.logger.Error("payment status update failed", zap.Int64("session_id", req.SessionID), zap.Error(err))
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"session": session})
}

// HandleActive handles GET /sessions/active.
func (h *SessionsHandler) HandleActive(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.svc.ActiveSessions(r.Context())
	if err != nil {
		h.logger.Error("list active sessions failed", zap.Error(err))
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// HandleByDate handles GET /sessions?date=YYYY-MM-DD.
func (h *SessionsHandler) HandleByDate(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if _, verr := validate.Date(date); verr != nil {
		writeValidationError(w, verr)
		return
	}

	sessions, err := h.svc.SessionsByDate(r.Context(), date)
	if err != nil {
		h.logger.Error("list sessions by date failed", zap.String("date", date), zap.Error(err))
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// HandlePending handles GET /sessions/pending.
func (h *SessionsHandler) HandlePending(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.svc.PendingPayments(r.Context())
	if err != nil {
		h.logger.Error("list pending payments failed", zap.Error(err))
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}
