package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"gamedesk/backend/services/desk-service/internal/deskerr"
	"gamedesk/backend/services/desk-service/internal/models"
	"gamedesk/backend/services/desk-service/internal/redisstore"
	"gamedesk/backend/services/desk-service/internal/repository"
)

type fakeSessionStore struct {
	sessions  map[int64]*models.Session
	nextID    int64
	createErr error
	getErr    error
	writeErr  error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[int64]*models.Session), nextID: 1}
}

func (f *fakeSessionStore) put(s models.Session) {
	f.sessions[s.ID] = &s
	if s.ID >= f.nextID {
		f.nextID = s.ID + 1
	}
}

func (f *fakeSessionStore) Create(_ context.Context, session *models.Session) (*models.Session, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	session.ID = f.nextID
	f.nextID++
	session.CreatedAt = time.Now()
	session.UpdatedAt = session.CreatedAt
	stored := *session
	f.sessions[session.ID] = &stored
	return session, nil
}

func (f *fakeSessionStore) GetByID(_ context.Context, id int64) (*models.Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	stored, ok := f.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	copied := *stored
	return &copied, nil
}

func (f *fakeSessionStore) Activate(_ context.Context, id int64, loginMinutes int) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	stored, ok := f.sessions[id]
	if !ok || stored.State != models.SessionStatePlanned {
		return repository.ErrNoRowsUpdated
	}
	stored.State = models.SessionStateActive
	stored.LoginMinutes = loginMinutes
	return nil
}

func (f *fakeSessionStore) Complete(_ context.Context, id int64, p repository.CompleteParams) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	stored, ok := f.sessions[id]
	if !ok || stored.State != models.SessionStateActive {
		return repository.ErrNoRowsUpdated
	}
	stored.State = models.SessionStateCompleted
	stored.LogoutMinutes = p.LogoutMinutes
	stored.ActualMinutes = p.ActualMinutes
	stored.ExtraCharges = p.ExtraCharges
	stored.TotalDue = p.TotalDue
	stored.PaymentMethod = p.PaymentMethod
	stored.PaymentStatus = p.PaymentStatus
	stored.Notes = p.Notes
	return nil
}

func (f *fakeSessionStore) Extend(_ context.Context, id int64, addMinutes int) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	stored, ok := f.sessions[id]
	if !ok || stored.State != models.SessionStateActive {
		return repository.ErrNoRowsUpdated
	}
	stored.PlannedMinutes += addMinutes
	return nil
}

func (f *fakeSessionStore) UpdatePaymentStatus(_ context.Context, id int64, status models.PaymentStatus) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	stored, ok := f.sessions[id]
	if !ok || stored.State != models.SessionStateCompleted {
		return repository.ErrNoRowsUpdated
	}
	stored.PaymentStatus = status
	return nil
}

func (f *fakeSessionStore) Active(_ context.Context) ([]models.Session, error) {
	var out []models.Session
	for _, s := range f.sessions {
		if s.State == models.SessionStateActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSessionStore) ByDate(_ context.Context, date string) ([]models.Session, error) {
	var out []models.Session
	for _, s := range f.sessions {
		if s.Date == date {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSessionStore) PendingPayment(_ context.Context) ([]models.Session, error) {
	var out []models.Session
	for _, s := range f.sessions {
		if s.PaymentStatus == models.PaymentStatusPending {
			out = append(out, *s)
		}
	}
	return out, nil
}

type fakeStationStore struct {
	stations map[int64]*models.Station
	claims   []int64
	releases []int64
}

func newFakeStationStore(stations ...models.Station) *fakeStationStore {
	f := &fakeStationStore{stations: make(map[int64]*models.Station)}
	for _, s := range stations {
		stored := s
		f.stations[s.ID] = &stored
	}
	return f
}

func (f *fakeStationStore) GetByID(_ context.Context, id int64) (*models.Station, error) {
	stored, ok := f.stations[id]
	if !ok {
		return nil, repository.ErrStationNotFound
	}
	copied := *stored
	return &copied, nil
}

func (f *fakeStationStore) List(_ context.Context, availableOnly bool) ([]models.Station, error) {
	var out []models.Station
	for _, s := range f.stations {
		if availableOnly && s.Availability != models.StationAvailable {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeStationStore) Upsert(_ context.Context, station *models.Station) error {
	station.ID = int64(len(f.stations) + 1)
	station.Availability = models.StationAvailable
	stored := *station
	f.stations[station.ID] = &stored
	return nil
}

func (f *fakeStationStore) Claim(_ context.Context, id int64) error {
	stored, ok := f.stations[id]
	if !ok {
		return repository.ErrStationNotFound
	}
	if stored.Availability != models.StationAvailable {
		return repository.ErrStationInUse
	}
	stored.Availability = models.StationInUse
	f.claims = append(f.claims, id)
	return nil
}

func (f *fakeStationStore) Release(_ context.Context, id int64) error {
	stored, ok := f.stations[id]
	if !ok {
		return repository.ErrStationNotFound
	}
	stored.Availability = models.StationAvailable
	f.releases = append(f.releases, id)
	return nil
}

type fakeCache struct {
	saved   []redisstore.ActiveSession
	deleted []int64
}

func (f *fakeCache) Save(_ context.Context, session redisstore.ActiveSession) error {
	f.saved = append(f.saved, session)
	return nil
}

func (f *fakeCache) Delete(_ context.Context, stationID int64) error {
	f.deleted = append(f.deleted, stationID)
	return nil
}

func availableStation() models.Station {
	return models.Station{
		ID:           1,
		Name:         "PC-01",
		Type:         "pc",
		DefaultRate:  50,
		Availability: models.StationAvailable,
	}
}

func activeSession(id int64, loginMinutes int) models.Session {
	return models.Session{
		ID:            id,
		Date:          "2025-03-14",
		CustomerName:  "John Doe",
		StationID:     1,
		StationName:   "PC-01",
		State:         models.SessionStateActive,
		LoginMinutes:  loginMinutes,
		HourlyRate:    50,
		PaymentMethod: models.PaymentMethodCash,
		PaymentStatus: models.PaymentStatusPending,
	}
}

func newService(sessions *fakeSessionStore, stations *fakeStationStore, cache *fakeCache) *DeskService {
	if cache == nil {
		return NewDeskService(sessions, stations, nil, zap.NewNop())
	}
	return NewDeskService(sessions, stations, cache, zap.NewNop())
}

func asValidation(t *testing.T, err error) *deskerr.ValidationError {
	t.Helper()
	var ve *deskerr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want ValidationError in chain", err)
	}
	return ve
}

func TestStartSessionImmediateActivation(t *testing.T) {
	sessions := newFakeSessionStore()
	stations := newFakeStationStore(availableStation())
	cache := &fakeCache{}
	svc := newService(sessions, stations, cache)

	session, err := svc.StartSession(context.Background(), StartSessionInput{
		CustomerName: "John Doe",
		StationID:    1,
		LoginTime:    "2:30 PM",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.State != models.SessionStateActive {
		t.Fatalf("state = %q, want active", session.State)
	}
	if session.LoginMinutes != 870 {
		t.Fatalf("login minutes = %d, want 870", session.LoginMinutes)
	}
	if session.HourlyRate != 50 {
		t.Fatalf("rate = %v, want station default 50", session.HourlyRate)
	}
	if session.PaymentStatus != models.PaymentStatusPending {
		t.Fatalf("payment status = %q, want pending", session.PaymentStatus)
	}
	if stations.stations[1].Availability != models.StationInUse {
		t.Fatal("station not marked in_use")
	}
	if len(cache.saved) != 1 || cache.saved[0].SessionID != session.ID {
		t.Fatalf("cache saved = %v, want the new session", cache.saved)
	}
}

func TestStartSessionWithoutLoginIsPlanned(t *testing.T) {
	sessions := newFakeSessionStore()
	stations := newFakeStationStore(availableStation())
	svc := newService(sessions, stations, nil)

	session, err := svc.StartSession(context.Background(), StartSessionInput{
		CustomerName:   "John Doe",
		StationID:      1,
		PlannedMinutes: 120,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.State != models.SessionStatePlanned {
		t.Fatalf("state = %q, want planned", session.State)
	}
	if len(stations.claims) != 0 {
		t.Fatal("planned session must not claim the station")
	}
}

func TestStartSessionRejectsShortName(t *testing.T) {
	sessions := newFakeSessionStore()
	stations := newFakeStationStore(availableStation())
	svc := newService(sessions, stations, nil)

	_, err := svc.StartSession(context.Background(), StartSessionInput{
		CustomerName: "A",
		StationID:    1,
		LoginTime:    "2:30 PM",
	})
	ve := asValidation(t, err)
	if ve.Field != "customer_name" {
		t.Fatalf("field = %q, want customer_name", ve.Field)
	}
	if len(sessions.sessions) != 0 {
		t.Fatal("session persisted despite validation failure")
	}
	if len(stations.claims) != 0 {
		t.Fatal("station claimed despite validation failure")
	}
}

func TestStartSessionValidatesNameBeforeRate(t *testing.T) {
	svc := newService(newFakeSessionStore(), newFakeStationStore(availableStation()), nil)

	_, err := svc.StartSession(context.Background(), StartSessionInput{
		CustomerName: "A",
		StationID:    1,
		HourlyRate:   "not-a-number",
	})
	if ve := asValidation(t, err); ve.Field != "customer_name" {
		t.Fatalf("field = %q, want customer_name (fixed validator order)", ve.Field)
	}
}

func TestStartSessionUnknownStation(t *testing.T) {
	svc := newService(newFakeSessionStore(), newFakeStationStore(), nil)

	_, err := svc.StartSession(context.Background(), StartSessionInput{
		CustomerName: "John Doe",
		StationID:    99,
	})
	var ne *deskerr.NotFoundError
	if !errors.As(err, &ne) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
	if ne.Kind != "station" || ne.ID != 99 {
		t.Fatalf("not found = %+v, want station 99", ne)
	}
}

func TestStartSessionBusyStation(t *testing.T) {
	station := availableStation()
	station.Availability = models.StationInUse
	sessions := newFakeSessionStore()
	svc := newService(sessions, newFakeStationStore(station), nil)

	_, err := svc.StartSession(context.Background(), StartSessionInput{
		CustomerName: "John Doe",
		StationID:    1,
		LoginTime:    "2:30 PM",
	})
	var se *deskerr.StateError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want StateError", err)
	}
	if len(sessions.sessions) != 0 {
		t.Fatal("session persisted despite busy station")
	}
}

func TestStartSessionReleasesClaimWhenCreateFails(t *testing.T) {
	sessions := newFakeSessionStore()
	sessions.createErr = errors.New("pq: disk full")
	stations := newFakeStationStore(availableStation())
	svc := newService(sessions, stations, nil)

	_, err := svc.StartSession(context.Background(), StartSessionInput{
		CustomerName: "John Doe",
		StationID:    1,
		LoginTime:    "2:30 PM",
	})
	var serr *deskerr.SessionError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want SessionError", err)
	}
	if serr.Message != deskerr.GenericMessage {
		t.Fatalf("message = %q, want generic", serr.Message)
	}
	if stations.stations[1].Availability != models.StationAvailable {
		t.Fatal("station left in_use after failed create")
	}
}

func TestEndSessionComputesBill(t *testing.T) {
	sessions := newFakeSessionStore()
	sessions.put(activeSession(7, 870)) // login 2:30 PM
	station := availableStation()
	station.Availability = models.StationInUse
	stations := newFakeStationStore(station)
	cache := &fakeCache{}
	svc := newService(sessions, stations, cache)

	session, err := svc.EndSession(context.Background(), EndSessionInput{
		SessionID:    7,
		LogoutTime:   "5:30 PM",
		ExtraCharges: "10",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.State != models.SessionStateCompleted {
		t.Fatalf("state = %q, want completed", session.State)
	}
	if session.ActualMinutes != 180 {
		t.Fatalf("duration = %d, want 180", session.ActualMinutes)
	}
	if session.TotalDue != 160.0 {
		t.Fatalf("total due = %v, want 160.0", session.TotalDue)
	}
	if session.PaymentStatus != models.PaymentStatusPaid {
		t.Fatalf("payment status = %q, want paid", session.PaymentStatus)
	}
	if stations.stations[1].Availability != models.StationAvailable {
		t.Fatal("station not released")
	}
	if len(cache.deleted) != 1 || cache.deleted[0] != 1 {
		t.Fatalf("cache deletes = %v, want station 1", cache.deleted)
	}
	stored := sessions.sessions[7]
	if stored.State != models.SessionStateCompleted || stored.TotalDue != 160.0 {
		t.Fatalf("stored record not completed: %+v", stored)
	}
}

func TestEndSessionRejectsLogoutBeforeLogin(t *testing.T) {
	sessions := newFakeSessionStore()
	sessions.put(activeSession(7, 870))
	svc := newService(sessions, newFakeStationStore(availableStation()), nil)

	_, err := svc.EndSession(context.Background(), EndSessionInput{
		SessionID:  7,
		LogoutTime: "2:00 PM",
	})
	var de *deskerr.DurationError
	if !errors.As(err, &de) {
		t.Fatalf("error = %v, want DurationError", err)
	}
	if sessions.sessions[7].State != models.SessionStateActive {
		t.Fatal("session mutated despite duration failure")
	}
}

func TestEndSessionWrongState(t *testing.T) {
	planned := activeSession(1, 0)
	planned.State = models.SessionStatePlanned
	planned.LoginMinutes = 0
	completed := activeSession(2, 870)
	completed.State = models.SessionStateCompleted

	sessions := newFakeSessionStore()
	sessions.put(planned)
	sessions.put(completed)
	svc := newService(sessions, newFakeStationStore(availableStation()), nil)

	for _, id := range []int64{1, 2} {
		before := *sessions.sessions[id]
		_, err := svc.EndSession(context.Background(), EndSessionInput{
			SessionID:  id,
			LogoutTime: "5:30 PM",
		})
		var se *deskerr.StateError
		if !errors.As(err, &se) {
			t.Fatalf("session %d: error = %v, want StateError", id, err)
		}
		if *sessions.sessions[id] != before {
			t.Fatalf("session %d mutated by rejected end", id)
		}
	}
}

func TestEndSessionNotFound(t *testing.T) {
	svc := newService(newFakeSessionStore(), newFakeStationStore(availableStation()), nil)

	_, err := svc.EndSession(context.Background(), EndSessionInput{SessionID: 404, LogoutTime: "5:30 PM"})
	var ne *deskerr.NotFoundError
	if !errors.As(err, &ne) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
}

func TestEndSessionPersistenceFailureIsGeneric(t *testing.T) {
	sessions := newFakeSessionStore()
	sessions.put(activeSession(7, 870))
	sessions.writeErr = errors.New("pq: deadlock detected")
	svc := newService(sessions, newFakeStationStore(availableStation()), nil)

	_, err := svc.EndSession(context.Background(), EndSessionInput{
		SessionID:  7,
		LogoutTime: "5:30 PM",
	})
	var serr *deskerr.SessionError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want SessionError", err)
	}
	if serr.Message != deskerr.GenericMessage {
		t.Fatalf("message = %q, want generic non-technical message", serr.Message)
	}
}

func TestActivatePlannedSession(t *testing.T) {
	planned := activeSession(3, 0)
	planned.State = models.SessionStatePlanned
	sessions := newFakeSessionStore()
	sessions.put(planned)
	stations := newFakeStationStore(availableStation())
	svc := newService(sessions, stations, &fakeCache{})

	session, err := svc.ActivateSession(context.Background(), 3, "10:15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.State != models.SessionStateActive || session.LoginMinutes != 615 {
		t.Fatalf("session = %+v, want active at 615", session)
	}
	if stations.stations[1].Availability != models.StationInUse {
		t.Fatal("station not claimed on activation")
	}
}

func TestActivateRejectsNonPlanned(t *testing.T) {
	sessions := newFakeSessionStore()
	sessions.put(activeSession(3, 870))
	svc := newService(sessions, newFakeStationStore(availableStation()), nil)

	_, err := svc.ActivateSession(context.Background(), 3, "10:15")
	var se *deskerr.StateError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want StateError", err)
	}
}

func TestExtendSession(t *testing.T) {
	active := activeSession(5, 870)
	active.PlannedMinutes = 60
	sessions := newFakeSessionStore()
	sessions.put(active)
	svc := newService(sessions, newFakeStationStore(availableStation()), nil)

	session, err := svc.ExtendSession(context.Background(), 5, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.PlannedMinutes != 90 {
		t.Fatalf("planned minutes = %d, want 90", session.PlannedMinutes)
	}

	if _, err := svc.ExtendSession(context.Background(), 5, 0); err == nil {
		t.Fatal("zero extension accepted")
	}
}

func TestCorrectPaymentStatus(t *testing.T) {
	completed := activeSession(9, 870)
	completed.State = models.SessionStateCompleted
	completed.PaymentStatus = models.PaymentStatusPending
	sessions := newFakeSessionStore()
	sessions.put(completed)
	svc := newService(sessions, newFakeStationStore(availableStation()), nil)

	session, err := svc.CorrectPaymentStatus(context.Background(), 9, models.PaymentStatusPaid)
	if err != nil {
		t.Fatalf("pending -> paid rejected: %v", err)
	}
	if session.PaymentStatus != models.PaymentStatusPaid {
		t.Fatalf("status = %q, want paid", session.PaymentStatus)
	}

	if _, err := svc.CorrectPaymentStatus(context.Background(), 9, models.PaymentStatusRefunded); err != nil {
		t.Fatalf("paid -> refunded rejected: %v", err)
	}
	if _, err := svc.CorrectPaymentStatus(context.Background(), 9, models.PaymentStatusPaid); err == nil {
		t.Fatal("refunded -> paid accepted")
	}
}

func TestCorrectPaymentStatusRequiresCompleted(t *testing.T) {
	sessions := newFakeSessionStore()
	sessions.put(activeSession(9, 870))
	svc := newService(sessions, newFakeStationStore(availableStation()), nil)

	_, err := svc.CorrectPaymentStatus(context.Background(), 9, models.PaymentStatusPaid)
	var se *deskerr.StateError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want StateError", err)
	}
}

func TestDashboardSnapshot(t *testing.T) {
	sessions := newFakeSessionStore()
	sessions.put(activeSession(7, 870)) // login 2:30 PM
	svc := newService(sessions, newFakeStationStore(availableStation()), nil)

	now := time.Date(2025, 3, 14, 17, 30, 0, 0, time.UTC)
	live, err := svc.DashboardSnapshot(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(live) != 1 {
		t.Fatalf("live sessions = %d, want 1", len(live))
	}
	if live[0].ElapsedMinutes != 180 {
		t.Fatalf("elapsed = %d, want 180", live[0].ElapsedMinutes)
	}
	if live[0].RunningDue != 150.0 {
		t.Fatalf("running due = %v, want 150.0", live[0].RunningDue)
	}
	if live[0].LoginTime != "14:30" {
		t.Fatalf("login time = %q, want 14:30", live[0].LoginTime)
	}
}

func TestSaveStation(t *testing.T) {
	stations := newFakeStationStore()
	svc := newService(newFakeSessionStore(), stations, nil)

	station, err := svc.SaveStation(context.Background(), "PS5 - Seat 1", "console", "60")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if station.ID == 0 || station.DefaultRate != 60 {
		t.Fatalf("station = %+v", station)
	}

	if _, err := svc.SaveStation(context.Background(), "X", "console", "60"); err == nil {
		t.Fatal("one-char station name accepted")
	}
	if _, err := svc.SaveStation(context.Background(), "PS5", "console", "-1"); err == nil {
		t.Fatal("negative rate accepted")
	}
}
