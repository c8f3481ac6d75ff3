package testfixtures

import (
	"context"
	"testing"

	"github.com/example/teamboard/internal/application"
)

func TestServiceFactoryNewTaskService(t *testing.T) {
	t.Parallel()

	factory := NewServiceFactory()
	svc := factory.NewTaskService()

	task, err := svc.Create(context.Background(), application.TaskInput{
		Title:    "Write report",
		DueDate:  factory.Clock.Today(),
		Category: application.TaskCategoryTeam,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if task.ID != "id-1" {
		t.Fatalf("expected generated ID id-1, got %q", task.ID)
	}
	if !task.CreatedAt.Equal(factory.Clock.Now()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Now(), task.CreatedAt)
	}

	stored, err := factory.Repositories().Tasks.Get(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("repository lookup failed: %v", err)
	}
	if stored.Title != "Write report" {
		t.Fatalf("unexpected stored title %q", stored.Title)
	}
}

func TestServiceFactoryAuthUsesSequentialTokens(t *testing.T) {
	t.Parallel()

	factory := NewServiceFactory()
	auth := factory.NewAuthService(AuthOptions{})

	result, err := auth.Register(context.Background(), application.RegisterParams{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if result.VerificationToken != "token-1" {
		t.Fatalf("expected token-1, got %q", result.VerificationToken)
	}
	if result.User.ID != "id-1" {
		t.Fatalf("expected user id id-1, got %q", result.User.ID)
	}
}
