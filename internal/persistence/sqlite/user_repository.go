package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/teamboard/internal/persistence"
)

const userColumns = `id, username, email, password_hash, email_verified, created_at, updated_at`

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func scanUser(row rowScanner) (persistence.User, error) {
	var (
		user                 persistence.User
		createdAt, updatedAt string
		err                  error
	)
	if err = row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.EmailVerified, &createdAt, &updatedAt); err != nil {
		return persistence.User{}, err
	}
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return user, nil
}

// CreateUser inserts a new user.
func (s *Store) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := s.helper.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		user.ID,
		strings.TrimSpace(user.Username),
		normalizeEmail(user.Email),
		user.PasswordHash,
		user.EmailVerified,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	return s.mapper.MapError(err)
}

// UpdateUser updates an existing user. An empty PasswordHash keeps the stored one.
func (s *Store) UpdateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrConstraintViolation
	}
	err := requireAffected(s.helper.Exec(ctx, `
		UPDATE users
		SET username = ?, email = ?, password_hash = COALESCE(NULLIF(?, ''), password_hash),
		    email_verified = ?, updated_at = ?
		WHERE id = ?
	`,
		strings.TrimSpace(user.Username),
		normalizeEmail(user.Email),
		user.PasswordHash,
		user.EmailVerified,
		formatTime(user.UpdatedAt),
		user.ID,
	))
	return s.mapper.MapError(err)
}

// DeleteUser removes a user. Sessions and verification tokens go with it
// through the foreign key cascade.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.mapper.MapError(requireAffected(s.helper.Exec(ctx, `DELETE FROM users WHERE id = ?`, id)))
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (persistence.User, error) {
	user, err := scanUser(s.helper.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	return user, s.mapper.MapError(err)
}

// GetUserByEmail retrieves a user by email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	user, err := scanUser(s.helper.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, normalizeEmail(email)))
	return user, s.mapper.MapError(err)
}

// GetUserByUsername retrieves a user by username, ignoring case.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (persistence.User, error) {
	user, err := scanUser(s.helper.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? COLLATE NOCASE`, strings.TrimSpace(username)))
	return user, s.mapper.MapError(err)
}
