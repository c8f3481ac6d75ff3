package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/teamboard/internal/persistence"
)

const meetingColumns = `id, title, date, time, duration_minutes, notes, created_by, created_at, updated_at`

func scanMeeting(row rowScanner) (persistence.Meeting, error) {
	var (
		meeting              persistence.Meeting
		notes                sql.NullString
		createdAt, updatedAt string
		err                  error
	)
	if err = row.Scan(&meeting.ID, &meeting.Title, &meeting.Date, &meeting.Time, &meeting.DurationMinutes, &notes, &meeting.CreatedBy, &createdAt, &updatedAt); err != nil {
		return persistence.Meeting{}, err
	}
	meeting.Notes = stringPtr(notes)
	if meeting.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Meeting{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if meeting.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Meeting{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return meeting, nil
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}

func replaceParticipants(ctx context.Context, tx *sql.Tx, meetingID string, participants []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM meeting_participants WHERE meeting_id = ?`, meetingID); err != nil {
		return err
	}
	for position, memberID := range uniqueStrings(participants) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO meeting_participants (meeting_id, member_id, position) VALUES (?, ?, ?)`,
			meetingID, memberID, position,
		); err != nil {
			return err
		}
	}
	return nil
}

// CreateMeeting inserts a meeting and its participants in one transaction.
func (s *Store) CreateMeeting(ctx context.Context, meeting persistence.Meeting) error {
	if meeting.ID == "" {
		return persistence.ErrConstraintViolation
	}
	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO meetings (`+meetingColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			meeting.ID,
			meeting.Title,
			meeting.Date,
			meeting.Time,
			meeting.DurationMinutes,
			nullableString(meeting.Notes),
			meeting.CreatedBy,
			formatTime(meeting.CreatedAt),
			formatTime(meeting.UpdatedAt),
		)
		if err != nil {
			return s.mapper.MapError(err)
		}
		return s.mapper.MapError(replaceParticipants(ctx, tx, meeting.ID, meeting.Participants))
	})
}

// UpdateMeeting replaces the mutable fields and participants of a meeting.
// The creator and creation time are kept.
func (s *Store) UpdateMeeting(ctx context.Context, meeting persistence.Meeting) error {
	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		err := requireAffected(tx.ExecContext(ctx, `
			UPDATE meetings
			SET title = ?, date = ?, time = ?, duration_minutes = ?, notes = ?, updated_at = ?
			WHERE id = ?
		`,
			meeting.Title,
			meeting.Date,
			meeting.Time,
			meeting.DurationMinutes,
			nullableString(meeting.Notes),
			formatTime(meeting.UpdatedAt),
			meeting.ID,
		))
		if err != nil {
			return s.mapper.MapError(err)
		}
		return s.mapper.MapError(replaceParticipants(ctx, tx, meeting.ID, meeting.Participants))
	})
}

// GetMeeting retrieves a meeting with its participants.
func (s *Store) GetMeeting(ctx context.Context, id string) (persistence.Meeting, error) {
	meeting, err := scanMeeting(s.helper.QueryRow(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id = ?`, id))
	if err != nil {
		return persistence.Meeting{}, s.mapper.MapError(err)
	}
	participants, err := s.participantsByMeeting(ctx, id)
	if err != nil {
		return persistence.Meeting{}, err
	}
	meeting.Participants = participants[id]
	if meeting.Participants == nil {
		meeting.Participants = []string{}
	}
	return meeting, nil
}

// ListMeetings returns every meeting in insertion order.
func (s *Store) ListMeetings(ctx context.Context) ([]persistence.Meeting, error) {
	rows, err := s.helper.Query(ctx, `SELECT `+meetingColumns+` FROM meetings ORDER BY rowid ASC`)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	meetings := make([]persistence.Meeting, 0)
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, s.mapper.MapError(err)
		}
		meetings = append(meetings, meeting)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}
	rows.Close()

	participants, err := s.participantsByMeeting(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range meetings {
		meetings[i].Participants = participants[meetings[i].ID]
		if meetings[i].Participants == nil {
			meetings[i].Participants = []string{}
		}
	}
	return meetings, nil
}

// participantsByMeeting loads participant ids in position order, for one
// meeting or, when meetingID is empty, for all of them.
func (s *Store) participantsByMeeting(ctx context.Context, meetingID string) (map[string][]string, error) {
	query := `SELECT meeting_id, member_id FROM meeting_participants`
	var args []any
	if meetingID != "" {
		query += ` WHERE meeting_id = ?`
		args = append(args, meetingID)
	}
	query += ` ORDER BY meeting_id, position`

	rows, err := s.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	result := make(map[string][]string)
	for rows.Next() {
		var mid, member string
		if err := rows.Scan(&mid, &member); err != nil {
			return nil, s.mapper.MapError(err)
		}
		result[mid] = append(result[mid], member)
	}
	return result, s.mapper.MapError(rows.Err())
}

// DeleteMeeting removes a meeting and its participant rows.
func (s *Store) DeleteMeeting(ctx context.Context, id string) error {
	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM meeting_participants WHERE meeting_id = ?`, id); err != nil {
			return s.mapper.MapError(err)
		}
		return s.mapper.MapError(requireAffected(tx.ExecContext(ctx, `DELETE FROM meetings WHERE id = ?`, id)))
	})
}
