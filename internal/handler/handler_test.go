package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"costy-calendar/internal/booking"
	"costy-calendar/internal/calendar"
	"costy-calendar/internal/handler"
	"costy-calendar/internal/middleware"
	"costy-calendar/internal/model"
	"costy-calendar/internal/store"
)

const secret = "test-secret"

// fakeStore is an in-memory stand-in for the postgres adapter.
type fakeStore struct {
	mu    sync.Mutex
	users map[string]model.User
	appts map[string]*model.Appointment
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]model.User{}, appts: map[string]*model.Appointment{}}
}

func (f *fakeStore) UpsertUser(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.Email] = *u
	return nil
}

func (f *fakeStore) ListUsers(_ context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeStore) ListAppointments(_ context.Context) ([]model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Appointment, 0, len(f.appts))
	for _, a := range f.appts {
		c := *a
		c.Participants = append([]string(nil), a.Participants...)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f *fakeStore) GetAppointment(_ context.Context, id string) (*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *a
	c.Participants = append([]string(nil), a.Participants...)
	return &c, nil
}

func (f *fakeStore) InsertAppointment(_ context.Context, a *model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *a
	c.Participants = append([]string(nil), a.Participants...)
	f.appts[a.ID] = &c
	return nil
}

func (f *fakeStore) UpdateAppointment(_ context.Context, a *model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.appts[a.ID]
	if !ok {
		return store.ErrNotFound
	}
	cur.Title, cur.Description = a.Title, a.Description
	cur.StartTime, cur.EndTime = a.StartTime, a.EndTime
	return nil
}

func (f *fakeStore) DeleteAppointment(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.appts[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.appts, id)
	return nil
}

func (f *fakeStore) AddParticipant(_ context.Context, id, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok {
		return store.ErrNotFound
	}
	if a.HasParticipant(email) {
		return store.ErrDuplicate
	}
	if len(a.Participants) >= model.Capacity {
		return store.ErrFull
	}
	a.Participants = append(a.Participants, email)
	return nil
}

func (f *fakeStore) RemoveParticipant(_ context.Context, id, email string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	kept := a.Participants[:0]
	for _, p := range a.Participants {
		if p != email {
			kept = append(kept, p)
		}
	}
	a.Participants = kept
	if len(kept) == 0 {
		delete(f.appts, id)
	}
	return len(kept), nil
}

func newServer(t *testing.T) http.Handler {
	t.Helper()
	repo := booking.New(newFakeStore(), log.New(io.Discard, "", 0))
	return handler.NewRouter(repo, secret, log.New(io.Discard, "", 0), middleware.NewRateLimiter(100, 100))
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, h http.Handler, name, email string) string {
	t.Helper()
	rec := doJSON(t, h, "POST", "/api/v1/auth/login", "", map[string]string{"name": name, "email": email})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil || out.Token == "" {
		t.Fatalf("login response: %v %q", err, rec.Body.String())
	}
	return out.Token
}

func createAppointment(t *testing.T, h http.Handler, token, title, date string) model.Appointment {
	t.Helper()
	rec := doJSON(t, h, "POST", "/api/v1/appointments", token, booking.SlotInput{
		Title: title, Description: "d", Date: date, Start: "09:00", End: "10:00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	var a model.Appointment
	if err := json.NewDecoder(rec.Body).Decode(&a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return a
}

func listAppointments(t *testing.T, h http.Handler, token, query string) []model.Appointment {
	t.Helper()
	rec := doJSON(t, h, "GET", "/api/v1/appointments"+query, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d %s", rec.Code, rec.Body.String())
	}
	var out []model.Appointment
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestLogin(t *testing.T) {
	h := newServer(t)

	rec := doJSON(t, h, "POST", "/api/v1/auth/login", "", map[string]string{"name": "Alice", "email": "a@x.com"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var hasCookie bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session" && c.HttpOnly && c.Value != "" {
			hasCookie = true
		}
	}
	if !hasCookie {
		t.Error("missing httponly session cookie")
	}

	var out struct {
		Token string     `json:"token"`
		User  model.User `json:"user"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.User.Name != "Alice" || out.User.Email != "a@x.com" {
		t.Errorf("user: %+v", out.User)
	}
}

func TestLoginValidation(t *testing.T) {
	h := newServer(t)

	tests := []map[string]string{
		{"name": "", "email": "a@x.com"},
		{"name": "Alice", "email": ""},
	}
	for i, body := range tests {
		rec := doJSON(t, h, "POST", "/api/v1/auth/login", "", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("case %d: expected 400, got %d", i, rec.Code)
		}
	}
}

func TestAuthRequired(t *testing.T) {
	h := newServer(t)

	rec := doJSON(t, h, "GET", "/api/v1/appointments", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}

	rec = doJSON(t, h, "GET", "/api/v1/appointments", "bogus-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad token, got %d", rec.Code)
	}
}

func TestCookieAuth(t *testing.T) {
	h := newServer(t)
	token := login(t, h, "Alice", "a@x.com")

	req := httptest.NewRequest("GET", "/api/v1/appointments", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: token})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("cookie auth failed: %d", rec.Code)
	}
}

func TestCreateAndFilteredList(t *testing.T) {
	h := newServer(t)
	alice := login(t, h, "Alice", "a@x.com")
	bob := login(t, h, "Bob", "b@x.com")

	a := createAppointment(t, h, alice, "Coffee", "2025-03-10")
	if len(a.Participants) != 1 || a.Participants[0] != "a@x.com" {
		t.Fatalf("participants: %v", a.Participants)
	}

	if got := listAppointments(t, h, alice, "?view=mine"); len(got) != 1 {
		t.Errorf("alice mine: %d", len(got))
	}
	if got := listAppointments(t, h, bob, "?view=mine"); len(got) != 0 {
		t.Errorf("bob mine: %d", len(got))
	}
	if got := listAppointments(t, h, bob, "?view=available"); len(got) != 1 {
		t.Errorf("bob available: %d", len(got))
	}
	if got := listAppointments(t, h, alice, "?view=available"); len(got) != 0 {
		t.Errorf("alice available: %d", len(got))
	}
	if got := listAppointments(t, h, alice, "?date=2025-03-10"); len(got) != 1 {
		t.Errorf("date filter: %d", len(got))
	}
	if got := listAppointments(t, h, alice, "?date=2025-03-11"); len(got) != 0 {
		t.Errorf("wrong-day filter: %d", len(got))
	}
}

func TestBadViewParam(t *testing.T) {
	h := newServer(t)
	alice := login(t, h, "Alice", "a@x.com")

	rec := doJSON(t, h, "GET", "/api/v1/appointments?view=bogus", alice, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestCreateValidation(t *testing.T) {
	h := newServer(t)
	alice := login(t, h, "Alice", "a@x.com")

	rec := doJSON(t, h, "POST", "/api/v1/appointments", alice, booking.SlotInput{
		Title: "X", Date: "2025-03-10", Start: "10:00", End: "09:00",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for inverted window, got %d", rec.Code)
	}
}

func TestJoinConflicts(t *testing.T) {
	h := newServer(t)
	alice := login(t, h, "Alice", "a@x.com")
	bob := login(t, h, "Bob", "b@x.com")
	carol := login(t, h, "Carol", "c@x.com")

	a := createAppointment(t, h, alice, "Coffee", "2025-03-10")

	if rec := doJSON(t, h, "POST", "/api/v1/appointments/"+a.ID+"/join", bob, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("bob join: %d %s", rec.Code, rec.Body.String())
	}
	if rec := doJSON(t, h, "POST", "/api/v1/appointments/"+a.ID+"/join", carol, nil); rec.Code != http.StatusConflict {
		t.Errorf("carol join on full slot: %d", rec.Code)
	}
	if rec := doJSON(t, h, "POST", "/api/v1/appointments/"+a.ID+"/join", bob, nil); rec.Code != http.StatusConflict {
		t.Errorf("repeat join: %d", rec.Code)
	}
}

func TestLeaveCascade(t *testing.T) {
	h := newServer(t)
	alice := login(t, h, "Alice", "a@x.com")

	a := createAppointment(t, h, alice, "Coffee", "2025-03-10")
	if rec := doJSON(t, h, "POST", "/api/v1/appointments/"+a.ID+"/leave", alice, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("leave: %d", rec.Code)
	}
	if got := listAppointments(t, h, alice, ""); len(got) != 0 {
		t.Errorf("emptied appointment still listed: %d", len(got))
	}
}

func TestEditAndDeleteOwnership(t *testing.T) {
	h := newServer(t)
	alice := login(t, h, "Alice", "a@x.com")
	bob := login(t, h, "Bob", "b@x.com")

	a := createAppointment(t, h, alice, "Coffee", "2025-03-10")

	edit := booking.SlotInput{Title: "Hijacked", Date: "2025-03-10", Start: "09:00", End: "10:00"}
	if rec := doJSON(t, h, "PUT", "/api/v1/appointments/"+a.ID, bob, edit); rec.Code != http.StatusForbidden {
		t.Errorf("bob edit: %d", rec.Code)
	}
	if rec := doJSON(t, h, "DELETE", "/api/v1/appointments/"+a.ID, bob, nil); rec.Code != http.StatusForbidden {
		t.Errorf("bob delete: %d", rec.Code)
	}

	edit.Title = "Renamed"
	if rec := doJSON(t, h, "PUT", "/api/v1/appointments/"+a.ID, alice, edit); rec.Code != http.StatusOK {
		t.Errorf("alice edit: %d %s", rec.Code, rec.Body.String())
	}
	if rec := doJSON(t, h, "DELETE", "/api/v1/appointments/"+a.ID, alice, nil); rec.Code != http.StatusNoContent {
		t.Errorf("alice delete: %d", rec.Code)
	}

	if rec := doJSON(t, h, "DELETE", "/api/v1/appointments/"+a.ID, alice, nil); rec.Code != http.StatusNotFound {
		t.Errorf("delete vanished: %d", rec.Code)
	}
}

func TestCalendarEndpoint(t *testing.T) {
	h := newServer(t)
	alice := login(t, h, "Alice", "a@x.com")
	createAppointment(t, h, alice, "Coffee", "2025-03-10")

	rec := doJSON(t, h, "GET", "/api/v1/calendar?year=2025&month=3", alice, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("calendar: %d %s", rec.Code, rec.Body.String())
	}

	var out struct {
		Year  int             `json:"year"`
		Month int             `json:"month"`
		Cells []calendar.Cell `json:"cells"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Year != 2025 || out.Month != 3 {
		t.Errorf("header: %d-%d", out.Year, out.Month)
	}
	if len(out.Cells) != 36 {
		t.Fatalf("expected 36 cells for March 2025, got %d", len(out.Cells))
	}
	for i := 0; i < 5; i++ {
		if !out.Cells[i].Empty {
			t.Errorf("cell %d should be a leading blank", i)
		}
	}
	marked := 0
	for _, c := range out.Cells {
		if c.HasAppointment {
			marked++
			if c.Day != 10 {
				t.Errorf("wrong day marked: %d", c.Day)
			}
		}
	}
	if marked != 1 {
		t.Errorf("expected exactly one marked day, got %d", marked)
	}

	if rec := doJSON(t, h, "GET", "/api/v1/calendar?month=13", alice, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad month: %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	h := newServer(t)
	rec := doJSON(t, h, "GET", "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("health: %d", rec.Code)
	}
}
