// Package http provides HTTP handlers and middleware for the workforce
// attendance API.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a session token. Body: {"email","password"}.
//     Response: {"token","expires_at","user"} with the token also surfaced via the
//     `X-Session-Token` header and a `session_token` cookie.
//   - DELETE /sessions/current: revokes the current session token extracted from
//     the Authorization header or session cookie. Returns 204 No Content.
//   - GET /users, POST /users: directory endpoints. Listing is scoped to the
//     caller's visibility; creation follows the provisioning matrix (admins
//     provision HR and employees, HR provisions employees).
//   - GET /attendance: attendance records for subjects in the caller's scope.
//   - POST /attendance: marks attendance for one subject and calendar day.
//     A second record for the same (subject, day) pair yields 409 Conflict
//     carrying the existing record.
//   - GET /attendance/today: the current day's records (HR and admin only).
//   - GET /attendance/subjects: the employees the caller may mark (HR and
//     admin only).
//   - GET /meetings, POST /meetings, PATCH /meetings/{id}/status: meeting
//     scheduling and lifecycle endpoints.
//   - GET /leave-requests, POST /leave-requests,
//     PATCH /leave-requests/{id}/status: leave request endpoints.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
