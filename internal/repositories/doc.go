// Package repositories implements SQLite persistence.
//
// The only state that survives a restart is the auth token, kept in the key/value settings table:
//   - [SettingsRepository] : upsert, lookup and delete of settings rows
//   - [TokenRepository] : the auth token under the fixed key [TokenKey]
package repositories
