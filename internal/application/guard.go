package application

import (
	"context"
	"net/url"
	"strings"
)

// DefaultLoginPath is where unauthenticated visitors are sent.
const DefaultLoginPath = "/login"

// GuardState is the resolution state of a RouteGuard.
type GuardState int

const (
	GuardChecking GuardState = iota
	GuardAuthenticated
	GuardUnauthenticated
)

func (s GuardState) String() string {
	switch s {
	case GuardAuthenticated:
		return "authenticated"
	case GuardUnauthenticated:
		return "unauthenticated"
	}
	return "checking"
}

// CurrentUserResolver is the slice of AuthService consulted by the guard.
type CurrentUserResolver interface {
	CurrentUser(ctx context.Context, token string) (User, bool, error)
}

// RouteGuard gates a protected destination behind authentication. It starts
// in GuardChecking and moves exactly once to one of the terminal states.
type RouteGuard struct {
	state       GuardState
	destination string
	user        User
}

// NewRouteGuard returns a guard in GuardChecking for the requested destination.
func NewRouteGuard(destination string) *RouteGuard {
	return &RouteGuard{state: GuardChecking, destination: SafeReturnPath(destination)}
}

// State returns the current guard state.
func (g *RouteGuard) State() GuardState { return g.state }

// Destination returns the remembered, sanitised destination.
func (g *RouteGuard) Destination() string { return g.destination }

// User returns the resolved user. Only meaningful in GuardAuthenticated.
func (g *RouteGuard) User() User { return g.user }

// Settle applies the outcome of the current user lookup. Calls after the
// guard has left GuardChecking are ignored.
func (g *RouteGuard) Settle(user User, ok bool) GuardState {
	if g.state != GuardChecking {
		return g.state
	}
	if ok {
		g.state = GuardAuthenticated
		g.user = user
	} else {
		g.state = GuardUnauthenticated
	}
	return g.state
}

// Check resolves the guard against the session token. Lookup errors leave the
// visitor unauthenticated and are returned for logging.
func (g *RouteGuard) Check(ctx context.Context, resolver CurrentUserResolver, token string) (GuardState, error) {
	if resolver == nil || strings.TrimSpace(token) == "" {
		return g.Settle(User{}, false), nil
	}
	user, ok, err := resolver.CurrentUser(ctx, token)
	if err != nil {
		return g.Settle(User{}, false), err
	}
	return g.Settle(user, ok), nil
}

// Redirect returns the login location carrying the remembered destination.
// It reports false unless the guard settled as unauthenticated.
func (g *RouteGuard) Redirect(loginPath string) (string, bool) {
	if g.state != GuardUnauthenticated {
		return "", false
	}
	return LoginRedirect(loginPath, g.destination), true
}

// LoginRedirect builds loginPath?next=destination.
func LoginRedirect(loginPath, destination string) string {
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	destination = SafeReturnPath(destination)
	if destination == "/" {
		return loginPath
	}
	return loginPath + "?next=" + url.QueryEscape(destination)
}

// SafeReturnPath accepts only same-origin absolute paths and falls back to "/".
func SafeReturnPath(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}
