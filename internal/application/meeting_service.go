package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// DefaultMeetingDuration is applied when a meeting is created without a duration.
const DefaultMeetingDuration = 30

// MeetingDurations lists the durations, in minutes, a meeting may be booked for.
var MeetingDurations = []int{15, 30, 45, 60, 90, 120}

// MeetingService validates and persists meetings. Overlapping meetings are allowed.
type MeetingService struct {
	meetings MeetingRepository
	opts     ServiceOptions
}

// NewMeetingService constructs a meeting service over the given repository.
func NewMeetingService(meetings MeetingRepository, opts ServiceOptions) *MeetingService {
	return &MeetingService{meetings: meetings, opts: opts.withDefaults()}
}

func (s *MeetingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.opts.Logger, "MeetingService", operation, attrs...)
}

func (s *MeetingService) ready() error {
	if s == nil {
		return fmt.Errorf("MeetingService is nil")
	}
	if s.meetings == nil {
		return fmt.Errorf("meeting repository not configured")
	}
	return nil
}

func validateMeeting(m Meeting) *ValidationError {
	vErr := &ValidationError{}
	if m.Title == "" {
		vErr.add("title", "Meeting title is required")
	}
	if m.Date == "" {
		vErr.add("date", "Meeting date is required")
	} else if _, err := time.Parse(DateLayout, m.Date); err != nil {
		vErr.add("date", "Meeting date must be a valid date (YYYY-MM-DD)")
	}
	if m.Time == "" {
		vErr.add("time", "Meeting time is required")
	} else if _, err := time.Parse(ClockLayout, m.Time); err != nil {
		vErr.add("time", "Meeting time must use the HH:MM format")
	}
	if !validDuration(m.DurationMinutes) {
		vErr.add("duration", "Duration must be one of 15, 30, 45, 60, 90, 120 minutes")
	}
	return vErr
}

func validDuration(minutes int) bool {
	for _, allowed := range MeetingDurations {
		if minutes == allowed {
			return true
		}
	}
	return false
}

// normalizeParticipants trims ids and drops blanks and duplicates, keeping first-seen order.
func normalizeParticipants(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// SortMeetings orders meetings by date, then start time.
func SortMeetings(meetings []Meeting) {
	sort.SliceStable(meetings, func(i, j int) bool {
		if meetings[i].Date != meetings[j].Date {
			return meetings[i].Date < meetings[j].Date
		}
		return meetings[i].Time < meetings[j].Time
	})
}

// MeetingsOn returns the meetings scheduled on date.
func MeetingsOn(meetings []Meeting, date string) []Meeting {
	out := make([]Meeting, 0)
	for _, m := range meetings {
		if m.Date == date {
			out = append(out, m)
		}
	}
	return out
}

// List returns meetings ordered by date and time. A non-empty date restricts
// the result to that day.
func (s *MeetingService) List(ctx context.Context, date string) (meetings []Meeting, err error) {
	if err = s.ready(); err != nil {
		return
	}

	date = strings.TrimSpace(date)
	logger := s.loggerWith(ctx, "List", "date", date)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list meetings", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "meetings listed", "count", len(meetings))
	}()

	if date != "" {
		if _, parseErr := time.Parse(DateLayout, date); parseErr != nil {
			err = NewValidationError("date", "Meeting date must be a valid date (YYYY-MM-DD)")
			return
		}
	}

	if err = s.opts.Latency.Wait(ctx, OpMeetingList); err != nil {
		return
	}

	meetings, err = s.meetings.List(ctx)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if date != "" {
		meetings = MeetingsOn(meetings, date)
	}
	SortMeetings(meetings)
	return
}

// Get returns a single meeting.
func (s *MeetingService) Get(ctx context.Context, id string) (meeting Meeting, err error) {
	if err = s.ready(); err != nil {
		return
	}
	if err = s.opts.Latency.Wait(ctx, OpMeetingGet); err != nil {
		return
	}
	meeting, err = s.meetings.Get(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "Get", "meeting_id", id).ErrorContext(ctx, "failed to load meeting", "error", err, "error_kind", ErrorKind(err))
	}
	return
}

// Create validates input and stores a new meeting.
func (s *MeetingService) Create(ctx context.Context, input MeetingInput) (meeting Meeting, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "Create", "created_by", input.CreatedBy)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create meeting", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("meeting_id", meeting.ID).InfoContext(ctx, "meeting created")
	}()

	if err = s.opts.Latency.Wait(ctx, OpMeetingCreate); err != nil {
		return
	}

	duration := input.DurationMinutes
	if duration == 0 {
		duration = DefaultMeetingDuration
	}
	now := s.opts.Now()
	candidate := Meeting{
		ID:              s.opts.IDGenerator(),
		Title:           strings.TrimSpace(input.Title),
		Date:            strings.TrimSpace(input.Date),
		Time:            strings.TrimSpace(input.Time),
		DurationMinutes: duration,
		ParticipantIDs:  normalizeParticipants(input.ParticipantIDs),
		Notes:           strings.TrimSpace(input.Notes),
		CreatedBy:       strings.TrimSpace(input.CreatedBy),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if vErr := validateMeeting(candidate); vErr.HasErrors() {
		err = vErr
		return
	}

	meeting, err = s.meetings.Create(ctx, candidate)
	err = mapRepoError(err)
	return
}

// Update merges patch into the stored meeting and re-validates the result.
func (s *MeetingService) Update(ctx context.Context, id string, patch MeetingPatch) (meeting Meeting, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "Update", "meeting_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update meeting", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "meeting updated")
	}()

	if err = s.opts.Latency.Wait(ctx, OpMeetingUpdate); err != nil {
		return
	}

	var existing Meeting
	existing, err = s.meetings.Get(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	updated := existing
	updated.ParticipantIDs = cloneStrings(existing.ParticipantIDs)
	applyPatch(&updated.Title, patch.Title)
	applyPatch(&updated.Date, patch.Date)
	applyPatch(&updated.Time, patch.Time)
	applyPatch(&updated.DurationMinutes, patch.DurationMinutes)
	applyPatch(&updated.Notes, patch.Notes)
	if patch.ParticipantIDs != nil {
		updated.ParticipantIDs = normalizeParticipants(*patch.ParticipantIDs)
	}
	updated.Title = strings.TrimSpace(updated.Title)
	updated.Date = strings.TrimSpace(updated.Date)
	updated.Time = strings.TrimSpace(updated.Time)
	updated.Notes = strings.TrimSpace(updated.Notes)

	if vErr := validateMeeting(updated); vErr.HasErrors() {
		err = vErr
		return
	}

	updated.UpdatedAt = s.opts.Now()
	meeting, err = s.meetings.Update(ctx, updated)
	err = mapRepoError(err)
	return
}

// Delete removes a meeting.
func (s *MeetingService) Delete(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}

	logger := s.loggerWith(ctx, "Delete", "meeting_id", id)
	if err := s.opts.Latency.Wait(ctx, OpMeetingDelete); err != nil {
		logger.ErrorContext(ctx, "meeting deletion interrupted", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if err := s.meetings.Delete(ctx, id); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete meeting", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "meeting deleted")
	return nil
}
