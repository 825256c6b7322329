package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"costy-calendar/internal/model"
	"costy-calendar/internal/store"
)

// Store is the record-store surface the repository needs. The pgx
// implementation lives in internal/store; tests swap in a fake.
type Store interface {
	UpsertUser(ctx context.Context, u *model.User) error
	ListUsers(ctx context.Context) ([]model.User, error)

	ListAppointments(ctx context.Context) ([]model.Appointment, error)
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	InsertAppointment(ctx context.Context, a *model.Appointment) error
	UpdateAppointment(ctx context.Context, a *model.Appointment) error
	DeleteAppointment(ctx context.Context, id string) error
	AddParticipant(ctx context.Context, id, email string) error
	RemoveParticipant(ctx context.Context, id, email string) (remaining int, err error)
}

// Repository owns the appointment business rules. It keeps a read
// cache of the full appointment list; every successful mutation is
// followed by a full refetch, never a partial update.
type Repository struct {
	store  Store
	logger *log.Logger

	mu     sync.Mutex
	cached []model.Appointment
	users  map[string]string // email -> display name
}

func New(st Store, logger *log.Logger) *Repository {
	if logger == nil {
		logger = log.Default()
	}
	return &Repository{store: st, logger: logger, users: map[string]string{}}
}

// SlotInput carries the new-appointment form fields: a civil date plus
// two times of day, all interpreted in the local timezone.
type SlotInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`  // YYYY-MM-DD
	Start       string `json:"start"` // HH:MM
	End         string `json:"end"`   // HH:MM
}

// Login upserts the user by email. There is no credential check:
// whoever presents a name and email acts as that user.
func (r *Repository) Login(ctx context.Context, name, email string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrValidation)
	}
	u := &model.User{Email: email, Name: name}
	if err := r.store.UpsertUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ListAll returns every appointment ordered by start time, with
// creator and participant display names filled in. Backend read
// failures are logged and the previous cached list is served instead;
// ListAll never returns an error.
func (r *Repository) ListAll(ctx context.Context) []model.Appointment {
	users, err := r.store.ListUsers(ctx)
	if err != nil {
		r.logger.Printf("booking: user lookup failed, keeping cached names: %v", err)
	}

	appts, apptErr := r.store.ListAppointments(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err == nil {
		m := make(map[string]string, len(users))
		for _, u := range users {
			m[u.Email] = u.Name
		}
		r.users = m
	}
	if apptErr != nil {
		r.logger.Printf("booking: appointment fetch failed, serving cached list: %v", apptErr)
	} else {
		for i := range appts {
			r.denormalize(&appts[i])
		}
		r.cached = appts
	}

	out := make([]model.Appointment, len(r.cached))
	copy(out, r.cached)
	return out
}

func (r *Repository) denormalize(a *model.Appointment) {
	a.CreatorName = r.users[a.CreatedBy]
	a.ParticipantNames = make([]string, len(a.Participants))
	for i, email := range a.Participants {
		a.ParticipantNames[i] = r.users[email]
	}
}

// Create books a new slot with the creator as sole participant.
func (r *Repository) Create(ctx context.Context, in SlotInput, creator string) (*model.Appointment, error) {
	start, end, err := composeWindow(in)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	a := &model.Appointment{
		ID:           uuid.New().String(),
		Title:        in.Title,
		Description:  in.Description,
		StartTime:    start,
		EndTime:      end,
		CreatedBy:    creator,
		Participants: []string{creator},
	}
	if err := r.store.InsertAppointment(ctx, a); err != nil {
		return nil, err
	}
	r.refresh(ctx)
	return a, nil
}

// Edit rewrites title, description and the time window. Creator only.
func (r *Repository) Edit(ctx context.Context, id string, in SlotInput, requester string) (*model.Appointment, error) {
	cur, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.CreatedBy != requester {
		return nil, ErrNotCreator
	}

	start, end, err := composeWindow(in)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	cur.Title = in.Title
	cur.Description = in.Description
	cur.StartTime = start
	cur.EndTime = end
	if err := r.store.UpdateAppointment(ctx, cur); err != nil {
		return nil, mapStoreErr(err)
	}
	r.refresh(ctx)
	return cur, nil
}

// Join appends the requester to the participant set.
func (r *Repository) Join(ctx context.Context, id, requester string) error {
	cur, err := r.get(ctx, id)
	if err != nil {
		return err
	}
	if cur.HasParticipant(requester) {
		return ErrAlreadyJoined
	}
	if cur.Full() {
		return ErrFull
	}
	// The store re-checks under a row lock, so a racing join still
	// cannot overfill the slot.
	if err := r.store.AddParticipant(ctx, id, requester); err != nil {
		return mapStoreErr(err)
	}
	r.refresh(ctx)
	return nil
}

// Leave removes the requester from the participant set. An appointment
// left with no participants is deleted outright. The creator may leave
// too; if another participant remains, created_by keeps pointing at
// the departed creator rather than being reassigned.
func (r *Repository) Leave(ctx context.Context, id, requester string) error {
	if _, err := r.store.RemoveParticipant(ctx, id, requester); err != nil {
		return mapStoreErr(err)
	}
	r.refresh(ctx)
	return nil
}

// Remove deletes the appointment regardless of who joined. Creator only.
func (r *Repository) Remove(ctx context.Context, id, requester string) error {
	cur, err := r.get(ctx, id)
	if err != nil {
		return err
	}
	if cur.CreatedBy != requester {
		return ErrNotCreator
	}
	if err := r.store.DeleteAppointment(ctx, id); err != nil {
		return mapStoreErr(err)
	}
	r.refresh(ctx)
	return nil
}

func (r *Repository) get(ctx context.Context, id string) (*model.Appointment, error) {
	a, err := r.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return a, nil
}

func (r *Repository) refresh(ctx context.Context) {
	r.ListAll(ctx)
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrDuplicate):
		return ErrAlreadyJoined
	case errors.Is(err, store.ErrFull):
		return ErrFull
	default:
		return err
	}
}

// composeWindow assembles start and end timestamps from the form's
// date and time-of-day fields, interpreted in the local timezone.
func composeWindow(in SlotInput) (start, end time.Time, err error) {
	day, err := time.ParseInLocation("2006-01-02", in.Date, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: bad date %q", ErrValidation, in.Date)
	}
	s, err := time.ParseInLocation("15:04", in.Start, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: bad start time %q", ErrValidation, in.Start)
	}
	e, err := time.ParseInLocation("15:04", in.End, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: bad end time %q", ErrValidation, in.End)
	}

	start = time.Date(day.Year(), day.Month(), day.Day(), s.Hour(), s.Minute(), 0, 0, time.Local)
	end = time.Date(day.Year(), day.Month(), day.Day(), e.Hour(), e.Minute(), 0, 0, time.Local)
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end must be after start", ErrValidation)
	}
	return start, end, nil
}
