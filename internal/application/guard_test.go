package application

import (
	"context"
	"errors"
	"testing"
)

type resolverFunc func(ctx context.Context, token string) (User, bool, error)

func (f resolverFunc) CurrentUser(ctx context.Context, token string) (User, bool, error) {
	return f(ctx, token)
}

func TestRouteGuard(t *testing.T) {
	t.Parallel()

	alice := User{ID: "u1", Username: "alice"}
	resolver := resolverFunc(func(ctx context.Context, token string) (User, bool, error) {
		switch token {
		case "good":
			return alice, true, nil
		case "broken":
			return User{}, false, errors.New("store offline")
		}
		return User{}, false, nil
	})

	t.Run("authenticated visitors pass", func(t *testing.T) {
		t.Parallel()
		guard := NewRouteGuard("/tasks")
		if guard.State() != GuardChecking {
			t.Fatalf("guard must start in checking, got %s", guard.State())
		}
		if _, ok := guard.Redirect(""); ok {
			t.Fatal("no redirect while checking")
		}

		state, err := guard.Check(context.Background(), resolver, "good")
		if err != nil || state != GuardAuthenticated || guard.User().ID != "u1" {
			t.Fatalf("unexpected result state=%s err=%v", state, err)
		}
		if _, ok := guard.Redirect(""); ok {
			t.Fatal("authenticated guard must not redirect")
		}
	})

	t.Run("anonymous visitors are sent to login with the destination", func(t *testing.T) {
		t.Parallel()
		guard := NewRouteGuard("/meetings?date=2024-01-02")
		state, err := guard.Check(context.Background(), resolver, "")
		if err != nil || state != GuardUnauthenticated {
			t.Fatalf("unexpected result state=%s err=%v", state, err)
		}
		location, ok := guard.Redirect("")
		if !ok || location != "/login?next=%2Fmeetings%3Fdate%3D2024-01-02" {
			t.Fatalf("unexpected redirect %q ok=%v", location, ok)
		}
	})

	t.Run("lookup errors settle unauthenticated", func(t *testing.T) {
		t.Parallel()
		guard := NewRouteGuard("/")
		state, err := guard.Check(context.Background(), resolver, "broken")
		if err == nil || state != GuardUnauthenticated {
			t.Fatalf("expected unauthenticated with error, got state=%s err=%v", state, err)
		}
		if location, _ := guard.Redirect("/signin"); location != "/signin" {
			t.Fatalf("root destination needs no next parameter, got %q", location)
		}
	})

	t.Run("settles only once", func(t *testing.T) {
		t.Parallel()
		guard := NewRouteGuard("/team")
		guard.Settle(User{}, false)
		if state := guard.Settle(alice, true); state != GuardUnauthenticated {
			t.Fatalf("second settle must be ignored, got %s", state)
		}
	})
}

func TestSafeReturnPath(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"/tasks":               "/tasks",
		"/calendar?month=2024": "/calendar?month=2024",
		"":                     "/",
		"tasks":                "/",
		"//evil.example":       "/",
		"/\\evil.example":      "/",
		"https://evil.example": "/",
	}
	for input, want := range cases {
		if got := SafeReturnPath(input); got != want {
			t.Fatalf("SafeReturnPath(%q) = %q, want %q", input, got, want)
		}
	}
}
