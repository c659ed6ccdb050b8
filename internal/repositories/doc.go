// Package repositories implements SQLite persistence for the client's local state.
//
// Key Implementations:
//   - [LocalStorageRepository] : key/value items holding the JSON snapshot mirrors (ssTracks, ssPlaylists)
//   - [CookieRepository] : the session cookie store used by session.Accessor
//
// Both operate on tables created by the embedded migrations in internal/shared.
package repositories
