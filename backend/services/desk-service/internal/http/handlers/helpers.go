package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"gamedesk/backend/services/desk-service/internal/deskerr"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeValidationError(w http.ResponseWriter, verr *deskerr.ValidationError) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": verr.Reason,
		"field": verr.Field,
	})
}

// writeSessionError maps the orchestrator's failure kinds to status codes.
// Only the SessionError's safe message crosses the wire; the cause stays on
// the server for logging.
func writeSessionError(w http.ResponseWriter, err error) {
	var se *deskerr.SessionError
	if !errors.As(err, &se) {
		writeError(w, http.StatusInternalServerError, deskerr.GenericMessage)
		return
	}

	var (
		ve *deskerr.ValidationError
		ne *deskerr.NotFoundError
		st *deskerr.StateError
		de *deskerr.DurationError
	)
	switch {
	case errors.As(se.Cause, &ve):
		writeValidationError(w, ve)
	case errors.As(se.Cause, &ne):
		writeError(w, http.StatusNotFound, se.Message)
	case errors.As(se.Cause, &st):
		writeError(w, http.StatusConflict, se.Message)
	case errors.As(se.Cause, &de):
		writeError(w, http.StatusUnprocessableEntity, se.Message)
	default:
		writeError(w, http.StatusInternalServerError, se.Message)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}
