// Package domain defines the Little Steps resource models.
//
// The models mirror the JSON the backend services exchange:
//
//   - User: the authenticated account, as returned by /auth/me
//   - Child: a child profile, with its supervisor linking code
//   - Activity: one entry of a child's activity feed
//   - MealLog, NapLog, DrawingLog, BehaviorLog: activity log payloads
//   - Errors: coded client-side error catalogue
//
// Identifier fields are normalised at the JSON boundary: the services are
// inconsistent about id vs child_id vs activity_id vs _id, so callers only
// ever see ID.
package domain
