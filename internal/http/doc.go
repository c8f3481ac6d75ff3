// Package http provides the HTTP API of the teamboard service.
//
// Public endpoints:
//   - POST /auth/register: {"username","email","password","confirm_password"}.
//     Creates an unverified account. 201 with {"user","verification_token"};
//     the token is only echoed when the deployment exposes it.
//   - POST /auth/login: {"email","password","next"}. 200 with
//     {"user","token","expires_at","redirect_to"} and a `session_token` cookie
//     (HttpOnly, SameSite=Lax, Max-Age equal to the session lifetime).
//     redirect_to is next reduced to a same-origin path.
//   - POST /auth/logout: revokes the current session and clears the cookie. 204.
//   - GET /auth/me: {"user": {...}} or {"user": null}.
//   - POST /auth/verify-email {"token"}, POST /auth/resend-verification {"email"}.
//   - GET /healthz.
//
// Protected endpoints accept the session cookie or `Authorization: Bearer`.
// Browser navigations (Accept: text/html) without a session are redirected to
// the login page with ?next=, other clients get 401.
//   - /tasks, /tasks/{id}, POST /tasks/{id}/toggle; GET /tasks?filter=.
//   - /meetings, /meetings/{id}; GET /meetings?date=YYYY-MM-DD.
//   - /team-members, /team-members/{id}.
//   - GET /agenda/today, GET /calendar?month=&selected=, GET /availability/heatmap?date=.
//
// PUT bodies are partial. Errors use {"error_code","message","errors"} with
// 400 for malformed JSON, 401, 404, 409, 422 for field errors and 500.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
