// Package secrets provides the credential store backends used by the auth session.
//
// Every backend satisfies [auth.SecretStore]:
//   - [KeyringStore] : the operating system keychain via go-keyring
//   - [FileStore] : a 0600 JSON file guarded by a cross-process file lock
//   - [MemoryStore] : process-local storage for tests and throwaway sessions
//
// The sqlite backend lives in the repositories package. [Open] picks a backend from
// configuration.
package secrets
