package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CreateUser inserts a new clinician account.
func (s *Store) CreateUser(ctx context.Context, clinicName, email, passwordHash, role string) (*User, error) {
	if role == "" {
		role = "BCBA"
	}
	var u User
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (clinic_name, email, password_hash, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, clinic_name, email, role, created_at`,
		clinicName, email, passwordHash, role,
	).Scan(&u.ID, &u.ClinicName, &u.Email, &u.Role, &u.CreatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

// UserByEmail fetches a clinician by email, including the password hash for
// login verification.
func (s *Store) UserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.db.QueryRow(ctx,
		`SELECT id, COALESCE(clinic_name, ''), email, password_hash, role, created_at
		 FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.ClinicName, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("user by email: %w", err)
	}
	return &u, nil
}

// UserByID fetches a clinician's profile.
func (s *Store) UserByID(ctx context.Context, id int64) (*User, error) {
	var u User
	err := s.db.QueryRow(ctx,
		`SELECT id, COALESCE(clinic_name, ''), email, role, created_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.ClinicName, &u.Email, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("user by id: %w", err)
	}
	return &u, nil
}

// UpdateUserProfile updates the clinic name and email of a clinician.
func (s *Store) UpdateUserProfile(ctx context.Context, id int64, clinicName, email string) (*User, error) {
	var u User
	err := s.db.QueryRow(ctx,
		`UPDATE users SET clinic_name = $1, email = $2 WHERE id = $3
		 RETURNING id, COALESCE(clinic_name, ''), email, role, created_at`,
		clinicName, email, id,
	).Scan(&u.ID, &u.ClinicName, &u.Email, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isDuplicateKey(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("update user profile: %w", err)
	}
	return &u, nil
}

// Contacts lists every other clinician in the clinic available for chat.
func (s *Store) Contacts(ctx context.Context, excludeID int64) ([]Contact, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, COALESCE(clinic_name, ''), role
		 FROM users WHERE id != $1 ORDER BY clinic_name ASC`,
		excludeID,
	)
	if err != nil {
		return nil, fmt.Errorf("contacts: %w", err)
	}
	defer rows.Close()

	contacts := []Contact{}
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Role); err != nil {
			return nil, fmt.Errorf("contacts scan: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
