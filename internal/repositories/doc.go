// Package repositories implements SQLite persistence for credentials.
//
// Key Implementations:
//   - [SecretRepository] : key/value secret storage backing the sqlite storage backend
//
// The schema is owned by the embedded migrations in the shared package; callers run
// [shared.RunMigrations] before constructing a repository.
package repositories
