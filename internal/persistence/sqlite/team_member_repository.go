package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/teamboard/internal/persistence"
)

const teamMemberColumns = `id, name, email, availability_status, next_available, created_at, updated_at`

func scanTeamMember(row rowScanner) (persistence.TeamMember, error) {
	var (
		member               persistence.TeamMember
		nextAvailable        sql.NullString
		createdAt, updatedAt string
		err                  error
	)
	if err = row.Scan(&member.ID, &member.Name, &member.Email, &member.AvailabilityStatus, &nextAvailable, &createdAt, &updatedAt); err != nil {
		return persistence.TeamMember{}, err
	}
	member.NextAvailable = stringPtr(nextAvailable)
	if member.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.TeamMember{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if member.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.TeamMember{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return member, nil
}

func availabilityOrUnknown(status string) string {
	if status == "" {
		return "unknown"
	}
	return status
}

// CreateTeamMember inserts a new team member.
func (s *Store) CreateTeamMember(ctx context.Context, member persistence.TeamMember) error {
	if member.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := s.helper.Exec(ctx, `
		INSERT INTO team_members (`+teamMemberColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		member.ID,
		member.Name,
		member.Email,
		availabilityOrUnknown(member.AvailabilityStatus),
		nullableString(member.NextAvailable),
		formatTime(member.CreatedAt),
		formatTime(member.UpdatedAt),
	)
	return s.mapper.MapError(err)
}

// UpdateTeamMember replaces the mutable fields of a team member.
func (s *Store) UpdateTeamMember(ctx context.Context, member persistence.TeamMember) error {
	err := requireAffected(s.helper.Exec(ctx, `
		UPDATE team_members
		SET name = ?, email = ?, availability_status = ?, next_available = ?, updated_at = ?
		WHERE id = ?
	`,
		member.Name,
		member.Email,
		availabilityOrUnknown(member.AvailabilityStatus),
		nullableString(member.NextAvailable),
		formatTime(member.UpdatedAt),
		member.ID,
	))
	return s.mapper.MapError(err)
}

// GetTeamMember retrieves a team member by ID.
func (s *Store) GetTeamMember(ctx context.Context, id string) (persistence.TeamMember, error) {
	member, err := scanTeamMember(s.helper.QueryRow(ctx, `SELECT `+teamMemberColumns+` FROM team_members WHERE id = ?`, id))
	return member, s.mapper.MapError(err)
}

// ListTeamMembers returns every team member in insertion order.
func (s *Store) ListTeamMembers(ctx context.Context) ([]persistence.TeamMember, error) {
	rows, err := s.helper.Query(ctx, `SELECT `+teamMemberColumns+` FROM team_members ORDER BY rowid ASC`)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	members := make([]persistence.TeamMember, 0)
	for rows.Next() {
		member, err := scanTeamMember(rows)
		if err != nil {
			return nil, s.mapper.MapError(err)
		}
		members = append(members, member)
	}
	return members, s.mapper.MapError(rows.Err())
}

// DeleteTeamMember removes a team member and their meeting participations.
func (s *Store) DeleteTeamMember(ctx context.Context, id string) error {
	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM meeting_participants WHERE member_id = ?`, id); err != nil {
			return s.mapper.MapError(err)
		}
		return s.mapper.MapError(requireAffected(tx.ExecContext(ctx, `DELETE FROM team_members WHERE id = ?`, id)))
	})
}
