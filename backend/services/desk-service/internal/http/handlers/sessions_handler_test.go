package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"gamedesk/backend/services/desk-service/internal/deskerr"
)

// Boundary rejections happen before the orchestrator is consulted, so these
// tests run the handlers with no service wired at all.

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var payload map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("response not json: %v", err)
	}
	return payload
}

func TestHandleStartRejectsInvalidJSON(t *testing.T) {
	h := NewSessionsHandler(nil, zap.NewNop())
	rec := postJSON(t, h.HandleStart, "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleStartRejectsBadNameAtBoundary(t *testing.T) {
	h := NewSessionsHandler(nil, zap.NewNop())
	rec := postJSON(t, h.HandleStart, `{"customer_name":"A","station_id":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	payload := decodeError(t, rec)
	if payload["field"] != "customer_name" {
		t.Fatalf("field = %q, want customer_name", payload["field"])
	}
	if payload["error"] == "" {
		t.Fatal("missing human-readable reason")
	}
}

func TestHandleStartRejectsBadLoginTime(t *testing.T) {
	h := NewSessionsHandler(nil, zap.NewNop())
	rec := postJSON(t, h.HandleStart, `{"customer_name":"John Doe","station_id":1,"login_time":"25:99"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	payload := decodeError(t, rec)
	if payload["field"] != "login_time" {
		t.Fatalf("field = %q, want login_time", payload["field"])
	}
	if !strings.Contains(payload["error"], "HH:MM") {
		t.Fatalf("reason %q does not name the accepted formats", payload["error"])
	}
}

func TestHandleEndRequiresSessionID(t *testing.T) {
	h := NewSessionsHandler(nil, zap.NewNop())
	rec := postJSON(t, h.HandleEnd, `{"logout_time":"5:30 PM"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestWriteSessionErrorMapping(t *testing.T) {
	cases := []struct {
		cause error
		want  int
	}{
		{deskerr.Validation("hourly_rate", "Hourly rate must be greater than 0."), http.StatusBadRequest},
		{&deskerr.NotFoundError{Kind: "session", ID: 1}, http.StatusNotFound},
		{&deskerr.StateError{SessionID: 1, From: "completed", Op: "end"}, http.StatusConflict},
		{&deskerr.DurationError{LoginMinutes: 870, LogoutMinutes: 840}, http.StatusUnprocessableEntity},
		{errors.New("pq: connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeSessionError(rec, deskerr.WrapSession("end session", tc.cause))
		if rec.Code != tc.want {
			t.Errorf("cause %T: status = %d, want %d", tc.cause, rec.Code, tc.want)
		}
	}
}

func TestPersistenceFailureMessageIsGeneric(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSessionError(rec, deskerr.WrapSession("end session", errors.New("pq: deadlock")))
	payload := decodeError(t, rec)
	if payload["error"] != deskerr.GenericMessage {
		t.Fatalf("error = %q, want generic message", payload["error"])
	}
	if strings.Contains(payload["error"], "pq:") {
		t.Fatal("technical detail leaked to caller")
	}
}
