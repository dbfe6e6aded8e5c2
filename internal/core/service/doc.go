// Package service holds the authentication services used by IPC listeners.
//
//   - CredentialStore: username to SHA-1 password hash, loaded from an account
//     file and optionally reloaded when the file changes
//   - HandshakeGuard: per-address rate limiting and an address allowlist
//     applied before a handshake is read
//
// Both are safe for concurrent use by many handshakes.
package service
