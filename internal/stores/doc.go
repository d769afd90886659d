// Package stores contains the Redis-backed record stores owned exclusively
// by the authguard engine: unverified two-factor setup material and per-IP
// reputation records.
//
// # Design
//
// Records are binary-encoded with a leading version byte. Read-modify-write
// operations (reputation failure counting) run inside a Redis WATCH
// transaction with a bounded optimistic retry loop, so concurrent writers
// for the same key never lose updates.
//
// # What this package must NOT do
//
//   - Store plaintext backup codes. Only hashes reach the pending store.
//   - Import authguard or any sibling package.
package stores
