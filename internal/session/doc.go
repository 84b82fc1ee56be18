// Package session owns the client's authentication state: the access and
// refresh token pair and the cached identity of the logged-in user.
//
// A Session is the single owner of that state. Every mutation is written
// through to a Store before it becomes visible to readers, and readers take
// consistent snapshots, so no request ever observes a half-cleared session.
//
// Only the two tokens are persisted, under the keys accessToken and
// refreshToken. The user is re-fetched from the identity endpoint after a
// restore.
//
// Stores:
//
//   - MemoryStore: process lifetime only
//   - FileStore: a JSON file (mode 0600), optionally sealed with
//     pkg/crypto/adaptive, that can be watched for changes made by other
//     processes
//   - BadgerStore: keys under session/ in an embedded Badger database
package session
