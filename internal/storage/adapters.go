// Package storage binds a persistence.Store to the repository contracts of
// the application layer.
package storage

import (
	"context"
	"strings"
	"time"

	"github.com/example/teamboard/internal/application"
	"github.com/example/teamboard/internal/persistence"
)

// Repositories holds the application facing views of one store.
type Repositories struct {
	Tasks    application.TaskRepository
	Meetings application.MeetingRepository
	Members  application.TeamMemberRepository
	Users    application.UserRepository
	Sessions application.SessionRepository
	Tokens   application.VerificationTokenRepository
}

// NewRepositories adapts store. now stamps user updates; nil means time.Now.
func NewRepositories(store persistence.Store, now func() time.Time) Repositories {
	if now == nil {
		now = time.Now
	}
	return Repositories{
		Tasks:    &taskRepositoryAdapter{repo: store},
		Meetings: &meetingRepositoryAdapter{repo: store},
		Members:  &teamMemberRepositoryAdapter{repo: store},
		Users:    &userRepositoryAdapter{repo: store, now: now},
		Sessions: &sessionRepositoryAdapter{repo: store},
		Tokens:   &verificationTokenRepositoryAdapter{repo: store},
	}
}

type taskRepositoryAdapter struct {
	repo persistence.TaskRepository
}

func (a *taskRepositoryAdapter) Create(ctx context.Context, task application.Task) (application.Task, error) {
	if err := a.repo.CreateTask(ctx, toPersistenceTask(task)); err != nil {
		return application.Task{}, err
	}
	return a.Get(ctx, task.ID)
}

func (a *taskRepositoryAdapter) Get(ctx context.Context, id string) (application.Task, error) {
	stored, err := a.repo.GetTask(ctx, id)
	if err != nil {
		return application.Task{}, err
	}
	return toApplicationTask(stored), nil
}

func (a *taskRepositoryAdapter) Update(ctx context.Context, task application.Task) (application.Task, error) {
	if err := a.repo.UpdateTask(ctx, toPersistenceTask(task)); err != nil {
		return application.Task{}, err
	}
	return a.Get(ctx, task.ID)
}

func (a *taskRepositoryAdapter) Delete(ctx context.Context, id string) error {
	return a.repo.DeleteTask(ctx, id)
}

func (a *taskRepositoryAdapter) List(ctx context.Context) ([]application.Task, error) {
	models, err := a.repo.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	tasks := make([]application.Task, 0, len(models))
	for _, model := range models {
		tasks = append(tasks, toApplicationTask(model))
	}
	return tasks, nil
}

type meetingRepositoryAdapter struct {
	repo persistence.MeetingRepository
}

func (a *meetingRepositoryAdapter) Create(ctx context.Context, meeting application.Meeting) (application.Meeting, error) {
	if err := a.repo.CreateMeeting(ctx, toPersistenceMeeting(meeting)); err != nil {
		return application.Meeting{}, err
	}
	return a.Get(ctx, meeting.ID)
}

func (a *meetingRepositoryAdapter) Get(ctx context.Context, id string) (application.Meeting, error) {
	stored, err := a.repo.GetMeeting(ctx, id)
	if err != nil {
		return application.Meeting{}, err
	}
	return toApplicationMeeting(stored), nil
}

func (a *meetingRepositoryAdapter) Update(ctx context.Context, meeting application.Meeting) (application.Meeting, error) {
	if err := a.repo.UpdateMeeting(ctx, toPersistenceMeeting(meeting)); err != nil {
		return application.Meeting{}, err
	}
	return a.Get(ctx, meeting.ID)
}

func (a *meetingRepositoryAdapter) Delete(ctx context.Context, id string) error {
	return a.repo.DeleteMeeting(ctx, id)
}

func (a *meetingRepositoryAdapter) List(ctx context.Context) ([]application.Meeting, error) {
	models, err := a.repo.ListMeetings(ctx)
	if err != nil {
		return nil, err
	}
	meetings := make([]application.Meeting, 0, len(models))
	for _, model := range models {
		meetings = append(meetings, toApplicationMeeting(model))
	}
	return meetings, nil
}

type teamMemberRepositoryAdapter struct {
	repo persistence.TeamMemberRepository
}

func (a *teamMemberRepositoryAdapter) Create(ctx context.Context, member application.TeamMember) (application.TeamMember, error) {
	if err := a.repo.CreateTeamMember(ctx, toPersistenceTeamMember(member)); err != nil {
		return application.TeamMember{}, err
	}
	return a.Get(ctx, member.ID)
}

func (a *teamMemberRepositoryAdapter) Get(ctx context.Context, id string) (application.TeamMember, error) {
	stored, err := a.repo.GetTeamMember(ctx, id)
	if err != nil {
		return application.TeamMember{}, err
	}
	return toApplicationTeamMember(stored), nil
}

func (a *teamMemberRepositoryAdapter) Update(ctx context.Context, member application.TeamMember) (application.TeamMember, error) {
	if err := a.repo.UpdateTeamMember(ctx, toPersistenceTeamMember(member)); err != nil {
		return application.TeamMember{}, err
	}
	return a.Get(ctx, member.ID)
}

func (a *teamMemberRepositoryAdapter) Delete(ctx context.Context, id string) error {
	return a.repo.DeleteTeamMember(ctx, id)
}

func (a *teamMemberRepositoryAdapter) List(ctx context.Context) ([]application.TeamMember, error) {
	models, err := a.repo.ListTeamMembers(ctx)
	if err != nil {
		return nil, err
	}
	members := make([]application.TeamMember, 0, len(models))
	for _, model := range models {
		members = append(members, toApplicationTeamMember(model))
	}
	return members, nil
}

type userRepositoryAdapter struct {
	repo persistence.UserRepository
	now  func() time.Time
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, creds application.UserCredentials) (application.User, error) {
	model := toPersistenceUser(creds.User, creds.PasswordHash)
	model.UpdatedAt = model.CreatedAt
	if err := a.repo.CreateUser(ctx, model); err != nil {
		return application.User{}, err
	}
	return a.GetUser(ctx, creds.User.ID)
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

func (a *userRepositoryAdapter) GetUserByUsername(ctx context.Context, username string) (application.User, error) {
	stored, err := a.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

// UpdateUser never touches the password hash.
func (a *userRepositoryAdapter) UpdateUser(ctx context.Context, user application.User) (application.User, error) {
	model := toPersistenceUser(user, "")
	model.UpdatedAt = a.now()
	if err := a.repo.UpdateUser(ctx, model); err != nil {
		return application.User{}, err
	}
	return a.GetUser(ctx, user.ID)
}

func (a *userRepositoryAdapter) DeleteUser(ctx context.Context, id string) error {
	return a.repo.DeleteUser(ctx, id)
}

type sessionRepositoryAdapter struct {
	repo persistence.SessionRepository
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) (int, error) {
	return a.repo.DeleteExpiredSessions(ctx, reference)
}

type verificationTokenRepositoryAdapter struct {
	repo persistence.VerificationTokenRepository
}

func (a *verificationTokenRepositoryAdapter) CreateToken(ctx context.Context, token application.VerificationToken) error {
	return a.repo.CreateVerificationToken(ctx, persistence.VerificationToken{
		Token:     token.Token,
		UserID:    token.UserID,
		ExpiresAt: token.ExpiresAt,
		CreatedAt: token.CreatedAt,
	})
}

func (a *verificationTokenRepositoryAdapter) GetToken(ctx context.Context, token string) (application.VerificationToken, error) {
	stored, err := a.repo.GetVerificationToken(ctx, token)
	if err != nil {
		return application.VerificationToken{}, err
	}
	return application.VerificationToken{
		Token:     stored.Token,
		UserID:    stored.UserID,
		ExpiresAt: stored.ExpiresAt,
		CreatedAt: stored.CreatedAt,
	}, nil
}

func (a *verificationTokenRepositoryAdapter) DeleteToken(ctx context.Context, token string) error {
	return a.repo.DeleteVerificationToken(ctx, token)
}

func (a *verificationTokenRepositoryAdapter) DeleteTokensForUser(ctx context.Context, userID string) error {
	return a.repo.DeleteVerificationTokensForUser(ctx, userID)
}

func (a *verificationTokenRepositoryAdapter) DeleteExpiredTokens(ctx context.Context, reference time.Time) (int, error) {
	return a.repo.DeleteExpiredVerificationTokens(ctx, reference)
}

func toApplicationTask(model persistence.Task) application.Task {
	dueDate := ""
	if model.DueDate != nil {
		dueDate = *model.DueDate
	}
	return application.Task{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		DueDate:     dueDate,
		Category:    application.TaskCategory(model.Category),
		Completed:   model.Completed,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toPersistenceTask(task application.Task) persistence.Task {
	return persistence.Task{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		DueDate:     optionalString(task.DueDate),
		Category:    string(task.Category),
		Completed:   task.Completed,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

func toApplicationMeeting(model persistence.Meeting) application.Meeting {
	notes := ""
	if model.Notes != nil {
		notes = *model.Notes
	}
	return application.Meeting{
		ID:              model.ID,
		Title:           model.Title,
		Date:            model.Date,
		Time:            model.Time,
		DurationMinutes: model.DurationMinutes,
		ParticipantIDs:  append([]string{}, model.Participants...),
		Notes:           notes,
		CreatedBy:       model.CreatedBy,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

func toPersistenceMeeting(meeting application.Meeting) persistence.Meeting {
	return persistence.Meeting{
		ID:              meeting.ID,
		Title:           meeting.Title,
		Date:            meeting.Date,
		Time:            meeting.Time,
		DurationMinutes: meeting.DurationMinutes,
		Participants:    append([]string{}, meeting.ParticipantIDs...),
		Notes:           optionalString(meeting.Notes),
		CreatedBy:       meeting.CreatedBy,
		CreatedAt:       meeting.CreatedAt,
		UpdatedAt:       meeting.UpdatedAt,
	}
}

func toApplicationTeamMember(model persistence.TeamMember) application.TeamMember {
	next := ""
	if model.NextAvailable != nil {
		next = *model.NextAvailable
	}
	return application.TeamMember{
		ID:    model.ID,
		Name:  model.Name,
		Email: model.Email,
		Availability: application.Availability{
			Status:        application.AvailabilityStatus(model.AvailabilityStatus).Normalize(),
			NextAvailable: next,
		},
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceTeamMember(member application.TeamMember) persistence.TeamMember {
	return persistence.TeamMember{
		ID:                 member.ID,
		Name:               member.Name,
		Email:              member.Email,
		AvailabilityStatus: string(member.Availability.Status.Normalize()),
		NextAvailable:      optionalString(member.Availability.NextAvailable),
		CreatedAt:          member.CreatedAt,
		UpdatedAt:          member.UpdatedAt,
	}
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:            model.ID,
		Username:      model.Username,
		Email:         model.Email,
		EmailVerified: model.EmailVerified,
		CreatedAt:     model.CreatedAt,
	}
}

func toPersistenceUser(user application.User, passwordHash string) persistence.User {
	return persistence.User{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		PasswordHash:  passwordHash,
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt,
	}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:        model.ID,
		UserID:    model.UserID,
		Token:     model.Token,
		ExpiresAt: model.ExpiresAt,
		CreatedAt: model.CreatedAt,
		RevokedAt: cloneTime(model.RevokedAt),
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		RevokedAt: cloneTime(session.RevokedAt),
	}
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
