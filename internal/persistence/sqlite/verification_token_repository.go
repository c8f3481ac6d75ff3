package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/teamboard/internal/persistence"
)

// CreateVerificationToken stores a new verification token.
func (s *Store) CreateVerificationToken(ctx context.Context, token persistence.VerificationToken) error {
	if strings.TrimSpace(token.Token) == "" || token.UserID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := s.helper.Exec(ctx, `
		INSERT INTO verification_tokens (token, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`, token.Token, token.UserID, formatTime(token.ExpiresAt), formatTime(token.CreatedAt))
	return s.mapper.MapError(err)
}

// GetVerificationToken retrieves a verification token.
func (s *Store) GetVerificationToken(ctx context.Context, token string) (persistence.VerificationToken, error) {
	var (
		record               persistence.VerificationToken
		expiresAt, createdAt string
	)
	err := s.helper.QueryRow(ctx, `
		SELECT token, user_id, expires_at, created_at
		FROM verification_tokens
		WHERE token = ?
	`, strings.TrimSpace(token)).Scan(&record.Token, &record.UserID, &expiresAt, &createdAt)
	if err != nil {
		return persistence.VerificationToken{}, s.mapper.MapError(err)
	}
	if record.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return persistence.VerificationToken{}, fmt.Errorf("failed to parse expires_at: %w", err)
	}
	if record.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.VerificationToken{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return record, nil
}

// DeleteVerificationToken removes a single token.
func (s *Store) DeleteVerificationToken(ctx context.Context, token string) error {
	err := requireAffected(s.helper.Exec(ctx, `DELETE FROM verification_tokens WHERE token = ?`, strings.TrimSpace(token)))
	return s.mapper.MapError(err)
}

// DeleteVerificationTokensForUser removes every token issued to userID.
func (s *Store) DeleteVerificationTokensForUser(ctx context.Context, userID string) error {
	_, err := s.helper.Exec(ctx, `DELETE FROM verification_tokens WHERE user_id = ?`, userID)
	return s.mapper.MapError(err)
}

// DeleteExpiredVerificationTokens removes tokens that expired on or before reference.
func (s *Store) DeleteExpiredVerificationTokens(ctx context.Context, reference time.Time) (int, error) {
	result, err := s.helper.Exec(ctx, `DELETE FROM verification_tokens WHERE expires_at <= ?`, formatTime(reference))
	if err != nil {
		return 0, s.mapper.MapError(err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(removed), nil
}
