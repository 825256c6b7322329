package store

import (
	"context"

	"costy-calendar/internal/model"
)

// UpsertUser inserts the user or, if the email is already known,
// refreshes the display name.
func (s *Store) UpsertUser(ctx context.Context, u *model.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (email, name) VALUES ($1,$2)
		 ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, updated_at = NOW()`,
		u.Email, u.Name,
	)
	return err
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT email, name, created_at, updated_at FROM users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
