package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/teamboard/internal/application"
	"github.com/example/teamboard/internal/persistence"
)

var (
	taskCounter    uint64
	meetingCounter uint64
	memberCounter  uint64
	userCounter    uint64
	sessionCounter uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate is ReferenceTime formatted with application.DateLayout.
func ReferenceDate() string {
	return referenceTime.Format(application.DateLayout)
}

func stringPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// ----------------------------- Task fixtures -----------------------------

// TaskFixture is a deterministic task record.
type TaskFixture struct {
	ID          string
	Title       string
	Description string
	DueDate     string
	Category    application.TaskCategory
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskOption configures a TaskFixture.
type TaskOption func(*TaskFixture)

// NewTaskFixture returns a pending Personal task due on ReferenceDate.
func NewTaskFixture(opts ...TaskOption) TaskFixture {
	idx := atomic.AddUint64(&taskCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := TaskFixture{
		ID:          fmt.Sprintf("task-%03d", idx),
		Title:       fmt.Sprintf("Task %03d", idx),
		Description: "",
		DueDate:     ReferenceDate(),
		Category:    application.TaskCategoryPersonal,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithTaskID(id string) TaskOption {
	return func(f *TaskFixture) { f.ID = id }
}

func WithTaskTitle(title string) TaskOption {
	return func(f *TaskFixture) { f.Title = title }
}

func WithTaskDescription(description string) TaskOption {
	return func(f *TaskFixture) { f.Description = description }
}

// WithTaskDueDate sets the due date; "" leaves the task undated.
func WithTaskDueDate(date string) TaskOption {
	return func(f *TaskFixture) { f.DueDate = date }
}

func WithTaskCategory(category application.TaskCategory) TaskOption {
	return func(f *TaskFixture) { f.Category = category }
}

func WithTaskCompleted(completed bool) TaskOption {
	return func(f *TaskFixture) { f.Completed = completed }
}

// Application materialises the fixture as an application task.
func (f TaskFixture) Application() application.Task {
	return application.Task{
		ID:          f.ID,
		Title:       f.Title,
		Description: f.Description,
		DueDate:     f.DueDate,
		Category:    f.Category,
		Completed:   f.Completed,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Persistence materialises the fixture as a storage record.
func (f TaskFixture) Persistence() persistence.Task {
	return persistence.Task{
		ID:          f.ID,
		Title:       f.Title,
		Description: f.Description,
		DueDate:     stringPtr(f.DueDate),
		Category:    string(f.Category),
		Completed:   f.Completed,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Input returns the caller supplied portion of the fixture.
func (f TaskFixture) Input() application.TaskInput {
	return application.TaskInput{
		Title:       f.Title,
		Description: f.Description,
		DueDate:     f.DueDate,
		Category:    f.Category,
	}
}

// ---------------------------- Meeting fixtures ----------------------------

// MeetingFixture is a deterministic meeting record.
type MeetingFixture struct {
	ID              string
	Title           string
	Date            string
	Time            string
	DurationMinutes int
	Participants    []string
	Notes           string
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MeetingOption configures a MeetingFixture.
type MeetingOption func(*MeetingFixture)

// NewMeetingFixture returns a 30 minute 10:00 meeting on ReferenceDate.
func NewMeetingFixture(opts ...MeetingOption) MeetingFixture {
	idx := atomic.AddUint64(&meetingCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := MeetingFixture{
		ID:              fmt.Sprintf("meeting-%03d", idx),
		Title:           fmt.Sprintf("Meeting %03d", idx),
		Date:            ReferenceDate(),
		Time:            "10:00",
		DurationMinutes: 30,
		Participants:    []string{},
		CreatedBy:       "user-001",
		CreatedAt:       created,
		UpdatedAt:       created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithMeetingID(id string) MeetingOption {
	return func(f *MeetingFixture) { f.ID = id }
}

func WithMeetingTitle(title string) MeetingOption {
	return func(f *MeetingFixture) { f.Title = title }
}

// WithMeetingSlot sets the date, start time and duration together.
func WithMeetingSlot(date, clock string, minutes int) MeetingOption {
	return func(f *MeetingFixture) {
		f.Date = date
		f.Time = clock
		f.DurationMinutes = minutes
	}
}

func WithMeetingParticipants(ids ...string) MeetingOption {
	return func(f *MeetingFixture) { f.Participants = append([]string{}, ids...) }
}

func WithMeetingNotes(notes string) MeetingOption {
	return func(f *MeetingFixture) { f.Notes = notes }
}

func WithMeetingCreator(userID string) MeetingOption {
	return func(f *MeetingFixture) { f.CreatedBy = userID }
}

// Application materialises the fixture as an application meeting.
func (f MeetingFixture) Application() application.Meeting {
	return application.Meeting{
		ID:              f.ID,
		Title:           f.Title,
		Date:            f.Date,
		Time:            f.Time,
		DurationMinutes: f.DurationMinutes,
		ParticipantIDs:  append([]string{}, f.Participants...),
		Notes:           f.Notes,
		CreatedBy:       f.CreatedBy,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}

// Persistence materialises the fixture as a storage record.
func (f MeetingFixture) Persistence() persistence.Meeting {
	return persistence.Meeting{
		ID:              f.ID,
		Title:           f.Title,
		Date:            f.Date,
		Time:            f.Time,
		DurationMinutes: f.DurationMinutes,
		Participants:    append([]string{}, f.Participants...),
		Notes:           stringPtr(f.Notes),
		CreatedBy:       f.CreatedBy,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}

// Input returns the caller supplied portion of the fixture.
func (f MeetingFixture) Input() application.MeetingInput {
	return application.MeetingInput{
		Title:           f.Title,
		Date:            f.Date,
		Time:            f.Time,
		DurationMinutes: f.DurationMinutes,
		ParticipantIDs:  append([]string{}, f.Participants...),
		Notes:           f.Notes,
		CreatedBy:       f.CreatedBy,
	}
}

// -------------------------- Team member fixtures --------------------------

// TeamMemberFixture is a deterministic team member record.
type TeamMemberFixture struct {
	ID            string
	Name          string
	Email         string
	Status        application.AvailabilityStatus
	NextAvailable string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TeamMemberOption configures a TeamMemberFixture.
type TeamMemberOption func(*TeamMemberFixture)

// NewTeamMemberFixture returns an available member.
func NewTeamMemberFixture(opts ...TeamMemberOption) TeamMemberFixture {
	idx := atomic.AddUint64(&memberCounter, 1)
	id := fmt.Sprintf("member-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := TeamMemberFixture{
		ID:        id,
		Name:      fmt.Sprintf("Member %03d", idx),
		Email:     fmt.Sprintf("%s@example.com", id),
		Status:    application.AvailabilityAvailable,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithMemberID(id string) TeamMemberOption {
	return func(f *TeamMemberFixture) { f.ID = id }
}

func WithMemberName(name string) TeamMemberOption {
	return func(f *TeamMemberFixture) { f.Name = name }
}

func WithMemberEmail(email string) TeamMemberOption {
	return func(f *TeamMemberFixture) { f.Email = email }
}

func WithMemberAvailability(status application.AvailabilityStatus, next string) TeamMemberOption {
	return func(f *TeamMemberFixture) {
		f.Status = status
		f.NextAvailable = next
	}
}

// Application materialises the fixture as an application team member.
func (f TeamMemberFixture) Application() application.TeamMember {
	return application.TeamMember{
		ID:    f.ID,
		Name:  f.Name,
		Email: f.Email,
		Availability: application.Availability{
			Status:        f.Status,
			NextAvailable: f.NextAvailable,
		},
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Persistence materialises the fixture as a storage record.
func (f TeamMemberFixture) Persistence() persistence.TeamMember {
	return persistence.TeamMember{
		ID:                 f.ID,
		Name:               f.Name,
		Email:              f.Email,
		AvailabilityStatus: string(f.Status),
		NextAvailable:      stringPtr(f.NextAvailable),
		CreatedAt:          f.CreatedAt,
		UpdatedAt:          f.UpdatedAt,
	}
}

// Input returns the caller supplied portion of the fixture.
func (f TeamMemberFixture) Input() application.TeamMemberInput {
	return application.TeamMemberInput{
		Name:  f.Name,
		Email: f.Email,
		Availability: application.Availability{
			Status:        f.Status,
			NextAvailable: f.NextAvailable,
		},
	}
}

// ----------------------------- User fixtures -----------------------------

// UserFixture is a deterministic account record.
type UserFixture struct {
	ID            string
	Username      string
	Email         string
	PasswordHash  string
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UserOption configures a UserFixture.
type UserOption func(*UserFixture)

// NewUserFixture returns an unverified user with a placeholder hash.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           id,
		Username:     fmt.Sprintf("user%03d", idx),
		Email:        fmt.Sprintf("%s@example.com", id),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithUserID(id string) UserOption {
	return func(f *UserFixture) { f.ID = id }
}

func WithUsername(username string) UserOption {
	return func(f *UserFixture) { f.Username = username }
}

func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) { f.Email = email }
}

func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) { f.PasswordHash = hash }
}

func WithUserVerified(verified bool) UserOption {
	return func(f *UserFixture) { f.EmailVerified = verified }
}

// Application materialises the fixture as an application user.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:            f.ID,
		Username:      f.Username,
		Email:         f.Email,
		EmailVerified: f.EmailVerified,
		CreatedAt:     f.CreatedAt,
	}
}

// Credentials pairs the application user with its hash.
func (f UserFixture) Credentials() application.UserCredentials {
	return application.UserCredentials{User: f.Application(), PasswordHash: f.PasswordHash}
}

// Persistence materialises the fixture as a storage record.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:            f.ID,
		Username:      f.Username,
		Email:         f.Email,
		PasswordHash:  f.PasswordHash,
		EmailVerified: f.EmailVerified,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// ---------------------------- Session fixtures ----------------------------

// SessionFixture is a deterministic session record.
type SessionFixture struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// SessionOption configures a SessionFixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a live session expiring a week after ReferenceTime.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    "user-001",
		Token:     fmt.Sprintf("token-%03d", idx),
		CreatedAt: referenceTime,
		ExpiresAt: referenceTime.Add(application.DefaultSessionTTL),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithSessionUser(userID string) SessionOption {
	return func(f *SessionFixture) { f.UserID = userID }
}

func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) { f.Token = token }
}

func WithSessionExpiry(expiresAt time.Time) SessionOption {
	return func(f *SessionFixture) { f.ExpiresAt = expiresAt }
}

func WithSessionRevokedAt(revokedAt time.Time) SessionOption {
	return func(f *SessionFixture) { f.RevokedAt = &revokedAt }
}

// Application materialises the fixture as an application session.
func (f SessionFixture) Application() application.Session {
	return application.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		RevokedAt: f.RevokedAt,
	}
}

// Persistence materialises the fixture as a storage record.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		RevokedAt: f.RevokedAt,
	}
}
