// Package seed installs the starter tasks, meetings and team directory into an
// empty store.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/teamboard/internal/persistence"
)

// Demo account credentials installed alongside the fixture collections.
const (
	DemoUsername = "demo"
	DemoEmail    = "demo@example.com"
	DemoPassword = "password"
)

const dateLayout = "2006-01-02"

//go:embed fixtures.json
var fixturesJSON []byte

type fixtureFile struct {
	TeamMembers []memberFixture  `json:"team_members"`
	Tasks       []taskFixture    `json:"tasks"`
	Meetings    []meetingFixture `json:"meetings"`
}

type memberFixture struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Availability  string `json:"availability"`
	NextAvailable string `json:"next_available"`
}

type taskFixture struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	// DueInDays is relative to the seeding date; absent means no due date.
	DueInDays *int   `json:"due_in_days"`
	Category  string `json:"category"`
	Completed bool   `json:"completed"`
}

type meetingFixture struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	InDays       int      `json:"in_days"`
	Time         string   `json:"time"`
	Duration     int      `json:"duration"`
	Participants []string `json:"participants"`
	Notes        string   `json:"notes"`
}

// Result counts the records written by Load. A collection that already held
// data is skipped and reported as zero.
type Result struct {
	TeamMembers int
	Tasks       int
	Meetings    int
}

// Load writes the embedded collections relative to now in loc. Each
// collection is seeded only when it is empty, so Load is safe to run on every
// start against a durable store.
func Load(ctx context.Context, store persistence.Store, now time.Time, loc *time.Location, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}

	var fixtures fixtureFile
	if err := json.Unmarshal(fixturesJSON, &fixtures); err != nil {
		return Result{}, fmt.Errorf("failed to decode seed fixtures: %w", err)
	}

	var result Result
	today := now.In(loc)
	stamp := now.UTC()

	members, err := store.ListTeamMembers(ctx)
	if err != nil {
		return result, err
	}
	if len(members) == 0 {
		for _, f := range fixtures.TeamMembers {
			if err := store.CreateTeamMember(ctx, persistence.TeamMember{
				ID:                 f.ID,
				Name:               f.Name,
				Email:              f.Email,
				AvailabilityStatus: f.Availability,
				NextAvailable:      optional(f.NextAvailable),
				CreatedAt:          stamp,
				UpdatedAt:          stamp,
			}); err != nil {
				return result, fmt.Errorf("failed to seed team member %s: %w", f.ID, err)
			}
			result.TeamMembers++
		}
	}

	tasks, err := store.ListTasks(ctx)
	if err != nil {
		return result, err
	}
	if len(tasks) == 0 {
		for _, f := range fixtures.Tasks {
			var due *string
			if f.DueInDays != nil {
				due = optional(today.AddDate(0, 0, *f.DueInDays).Format(dateLayout))
			}
			if err := store.CreateTask(ctx, persistence.Task{
				ID:          f.ID,
				Title:       f.Title,
				Description: f.Description,
				DueDate:     due,
				Category:    f.Category,
				Completed:   f.Completed,
				CreatedAt:   stamp,
				UpdatedAt:   stamp,
			}); err != nil {
				return result, fmt.Errorf("failed to seed task %s: %w", f.ID, err)
			}
			result.Tasks++
		}
	}

	meetings, err := store.ListMeetings(ctx)
	if err != nil {
		return result, err
	}
	if len(meetings) == 0 {
		for _, f := range fixtures.Meetings {
			if err := store.CreateMeeting(ctx, persistence.Meeting{
				ID:              f.ID,
				Title:           f.Title,
				Date:            today.AddDate(0, 0, f.InDays).Format(dateLayout),
				Time:            f.Time,
				DurationMinutes: f.Duration,
				Participants:    append([]string{}, f.Participants...),
				Notes:           optional(f.Notes),
				CreatedBy:       DemoUsername,
				CreatedAt:       stamp,
				UpdatedAt:       stamp,
			}); err != nil {
				return result, fmt.Errorf("failed to seed meeting %s: %w", f.ID, err)
			}
			result.Meetings++
		}
	}

	logger.InfoContext(ctx, "seed data loaded",
		"component", "seed",
		"team_members", result.TeamMembers,
		"tasks", result.Tasks,
		"meetings", result.Meetings,
	)
	return result, nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
