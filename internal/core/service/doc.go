// Package service provides the resource operations of the Little Steps
// client.
//
// Services validate input locally, then call the gateway through the
// API interface, which *gateway.Client satisfies. They hold no state of
// their own and are safe for concurrent use.
//
// This package contains:
//
//   - AccountService: registration, password change, identity lookup
//   - ChildService: child profiles and supervisor linking
//   - ActivityService: activity feed and the four log kinds
package service
