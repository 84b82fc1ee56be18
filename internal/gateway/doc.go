// Package gateway is the authenticated HTTP client for the Little Steps
// API gateway.
//
// A Client owns the request pipeline for the three logical services
// (AUTH, CHILD_PROFILE, ACTIVITY_LOG). It attaches the held access token
// as a bearer credential, and when an authenticated request comes back
// 401 it refreshes the access token once and replays the request once:
//
//	attempt ──401──▶ refreshing ──ok──▶ replaying ──▶ done
//	   │                 │                  │
//	   └──other error────┴──failure─────────┴──────▶ failed
//
// Concurrent callers that hit 401 at the same time share a single
// refresh call. A refresh that cannot happen (no refresh token) or that
// the server rejects tears the session down and fails with
// *SessionExpiredError.
//
// Token state lives in a *session.Session injected at construction; the
// client never keeps a second copy.
package gateway
