package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"gamedesk/backend/services/desk-service/internal/service"
	"gamedesk/backend/services/desk-service/internal/validate"
)

// StationsHandler holds station endpoints.
type StationsHandler struct {
	svc    *service.DeskService
	logger *zap.Logger
}

// NewStationsHandler builds handler set.
func NewStationsHandler(svc *service.DeskService, logger *zap.Logger) *StationsHandler {
	return &StationsHandler{svc: svc, logger: logger}
}

// HandleList handles GET /stations (?available=true filters).
func (h *StationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	availableOnly := r.URL.Query().Get("available") == "true"
	stations, err := h.svc.Stations(r.Context(), availableOnly)
	if err != nil {
		h.logger.Error("list stations failed", zap.Error(err))
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"stations": stations})
}

type saveStationRequest struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	HourlyRate string `json:"hourly_rate"`
}

// HandleSave handles POST /stations.
func (h *StationsHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var req saveStationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if _, verr := validate.StationName(req.Name); verr != nil {
		writeValidationError(w, verr)
		return
	}
	if _, verr := validate.HourlyRate(req.HourlyRate); verr != nil {
		writeValidationError(w, verr)
		return
	}

	station, err := h.svc.SaveStation(r.Context(), req.Name, req.Type, req.HourlyRate)
	if err != nil {
		h.logger.Error("save station failed", zap.Error(err))
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"station": station})
}
