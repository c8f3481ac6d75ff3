package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// TeamMemberService manages the team directory.
type TeamMemberService struct {
	members TeamMemberRepository
	opts    ServiceOptions
}

// NewTeamMemberService constructs a team member service over the given repository.
func NewTeamMemberService(members TeamMemberRepository, opts ServiceOptions) *TeamMemberService {
	return &TeamMemberService{members: members, opts: opts.withDefaults()}
}

func (s *TeamMemberService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.opts.Logger, "TeamMemberService", operation, attrs...)
}

func (s *TeamMemberService) ready() error {
	if s == nil {
		return fmt.Errorf("TeamMemberService is nil")
	}
	if s.members == nil {
		return fmt.Errorf("team member repository not configured")
	}
	return nil
}

func validateMember(m TeamMember) *ValidationError {
	vErr := &ValidationError{}
	if m.Name == "" {
		vErr.add("name", "Name is required")
	}
	if m.Email != "" && !emailPattern.MatchString(m.Email) {
		vErr.add("email", "Please enter a valid email address")
	}
	return vErr
}

func normalizeAvailability(a Availability) Availability {
	a.Status = AvailabilityStatus(strings.ToLower(strings.TrimSpace(string(a.Status)))).Normalize()
	a.NextAvailable = strings.TrimSpace(a.NextAvailable)
	return a
}

// List returns every team member.
func (s *TeamMemberService) List(ctx context.Context) (members []TeamMember, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "List")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list team members", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "team members listed", "count", len(members))
	}()

	if err = s.opts.Latency.Wait(ctx, OpMemberList); err != nil {
		return
	}
	members, err = s.members.List(ctx)
	err = mapRepoError(err)
	return
}

// Get returns a single team member.
func (s *TeamMemberService) Get(ctx context.Context, id string) (member TeamMember, err error) {
	if err = s.ready(); err != nil {
		return
	}
	if err = s.opts.Latency.Wait(ctx, OpMemberGet); err != nil {
		return
	}
	member, err = s.members.Get(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "Get", "member_id", id).ErrorContext(ctx, "failed to load team member", "error", err, "error_kind", ErrorKind(err))
	}
	return
}

// Create stores a new team member.
func (s *TeamMemberService) Create(ctx context.Context, input TeamMemberInput) (member TeamMember, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "Create")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create team member", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("member_id", member.ID).InfoContext(ctx, "team member created")
	}()

	if err = s.opts.Latency.Wait(ctx, OpMemberCreate); err != nil {
		return
	}

	now := s.opts.Now()
	candidate := TeamMember{
		ID:           s.opts.IDGenerator(),
		Name:         strings.TrimSpace(input.Name),
		Email:        normalizeEmail(input.Email),
		Availability: normalizeAvailability(input.Availability),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if vErr := validateMember(candidate); vErr.HasErrors() {
		err = vErr
		return
	}

	member, err = s.members.Create(ctx, candidate)
	err = mapRepoError(err)
	return
}

// Update merges patch into the stored team member.
func (s *TeamMemberService) Update(ctx context.Context, id string, patch TeamMemberPatch) (member TeamMember, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "Update", "member_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update team member", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "team member updated")
	}()

	if err = s.opts.Latency.Wait(ctx, OpMemberUpdate); err != nil {
		return
	}

	var existing TeamMember
	existing, err = s.members.Get(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	updated := existing
	applyPatch(&updated.Name, patch.Name)
	applyPatch(&updated.Email, patch.Email)
	applyPatch(&updated.Availability, patch.Availability)
	updated.Name = strings.TrimSpace(updated.Name)
	updated.Email = normalizeEmail(updated.Email)
	updated.Availability = normalizeAvailability(updated.Availability)

	if vErr := validateMember(updated); vErr.HasErrors() {
		err = vErr
		return
	}

	updated.UpdatedAt = s.opts.Now()
	member, err = s.members.Update(ctx, updated)
	err = mapRepoError(err)
	return
}

// Delete removes a team member.
func (s *TeamMemberService) Delete(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}

	logger := s.loggerWith(ctx, "Delete", "member_id", id)
	if err := s.opts.Latency.Wait(ctx, OpMemberDelete); err != nil {
		logger.ErrorContext(ctx, "team member deletion interrupted", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if err := s.members.Delete(ctx, id); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete team member", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "team member deleted")
	return nil
}
