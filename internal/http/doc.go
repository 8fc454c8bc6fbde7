// Package http provides HTTP handlers and middleware for the clubhouse API.
//
// Every endpoint except /hours, /durations, /healthz, and /metrics requires an
// identity provider bearer token. The token subject is resolved to a stored
// user on each request, so level and membership changes apply immediately.
//
// The router exposes the following endpoints:
//   - GET /me: the caller's profile and club memberships.
//   - GET /users, POST /users: admin user directory; POST maps an identity
//     provider subject to a new user.
//   - PUT /users/{id}/permission: change a user's level. Body: {"level"}.
//   - GET /clubs, POST /clubs, GET|PUT|DELETE /clubs/{id}: clubs visible to the
//     caller. Creating and deleting clubs is reserved for super admins.
//   - GET /clubs/{id}/members, POST /clubs/{id}/members,
//     DELETE /clubs/{id}/members/{userID}: club membership.
//   - GET /appointments, POST /appointments, GET|PUT|DELETE /appointments/{id}:
//     bookings using {"date":"2026-10-19","time":"9:30 AM","duration":60}.
//   - GET /addresses, POST /addresses, GET|PUT|DELETE /addresses/{id} and the
//     same shape under /consists: numbered club resources.
//   - GET /issues, POST /issues, GET|PUT|DELETE /issues/{id}.
//   - GET /notices, POST /notices, GET|PUT|DELETE /notices/{id}.
//   - GET /hours?date=YYYY-MM-DD: opening hours and bookable slots.
//   - GET /durations: the allowed appointment lengths in minutes.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
