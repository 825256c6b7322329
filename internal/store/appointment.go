package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"costy-calendar/internal/model"
)

// ListAppointments returns every appointment ordered by start time,
// with participant emails in join order.
func (s *Store) ListAppointments(ctx context.Context) ([]model.Appointment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT a.id, a.title, a.description, a.start_time, a.end_time,
		        a.created_by, a.created_at, a.updated_at, p.user_email
		 FROM appointments a
		 LEFT JOIN appointment_participants p ON p.appointment_id = a.id
		 ORDER BY a.start_time, a.id, p.joined_at, p.user_email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	var cur *model.Appointment
	for rows.Next() {
		var a model.Appointment
		var participant *string
		if err := rows.Scan(
			&a.ID, &a.Title, &a.Description, &a.StartTime, &a.EndTime,
			&a.CreatedBy, &a.CreatedAt, &a.UpdatedAt, &participant,
		); err != nil {
			return nil, err
		}
		if cur == nil || cur.ID != a.ID {
			out = append(out, a)
			cur = &out[len(out)-1]
		}
		if participant != nil {
			cur.Participants = append(cur.Participants, *participant)
		}
	}
	return out, rows.Err()
}

func (s *Store) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	a := &model.Appointment{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, description, start_time, end_time,
		        created_by, created_at, updated_at
		 FROM appointments WHERE id = $1`, id,
	).Scan(&a.ID, &a.Title, &a.Description, &a.StartTime, &a.EndTime,
		&a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT user_email FROM appointment_participants
		 WHERE appointment_id = $1 ORDER BY joined_at, user_email`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		a.Participants = append(a.Participants, email)
	}
	return a, rows.Err()
}

func (s *Store) InsertAppointment(ctx context.Context, a *model.Appointment) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO appointments (id, title, description, start_time, end_time, created_by)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ID, a.Title, a.Description, a.StartTime, a.EndTime, a.CreatedBy,
	)
	if err != nil {
		return err
	}

	for _, email := range a.Participants {
		_, err = tx.Exec(ctx,
			`INSERT INTO appointment_participants (appointment_id, user_email) VALUES ($1,$2)`,
			a.ID, email,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// UpdateAppointment rewrites title, description and the time window.
// Participants are managed through AddParticipant/RemoveParticipant.
func (s *Store) UpdateAppointment(ctx context.Context, a *model.Appointment) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE appointments
		 SET title=$1, description=$2, start_time=$3, end_time=$4, updated_at=NOW()
		 WHERE id=$5`,
		a.Title, a.Description, a.StartTime, a.EndTime, a.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteAppointment(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddParticipant appends email to the appointment's participant set.
// The appointment row is locked for the duration of the transaction so
// two concurrent joins cannot both pass the capacity check.
func (s *Store) AddParticipant(ctx context.Context, id, email string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var locked string
	err = tx.QueryRow(ctx,
		`SELECT id FROM appointments WHERE id = $1 FOR UPDATE`, id,
	).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	var count int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment_participants WHERE appointment_id = $1`, id,
	).Scan(&count)
	if err != nil {
		return err
	}
	if count >= model.Capacity {
		return ErrFull
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO appointment_participants (appointment_id, user_email) VALUES ($1,$2)`,
		id, email,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// RemoveParticipant removes email from the appointment and returns the
// number of participants left. An appointment that would end up empty
// is deleted in the same transaction.
func (s *Store) RemoveParticipant(ctx context.Context, id, email string) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var locked string
	err = tx.QueryRow(ctx,
		`SELECT id FROM appointments WHERE id = $1 FOR UPDATE`, id,
	).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	_, err = tx.Exec(ctx,
		`DELETE FROM appointment_participants WHERE appointment_id = $1 AND user_email = $2`,
		id, email,
	)
	if err != nil {
		return 0, err
	}

	var remaining int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment_participants WHERE appointment_id = $1`, id,
	).Scan(&remaining)
	if err != nil {
		return 0, err
	}

	if remaining == 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id); err != nil {
			return 0, err
		}
	}

	return remaining, tx.Commit(ctx)
}
