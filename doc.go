// Package authguard provides an embeddable account-security engine: signed
// session tokens, time-based two-factor authentication with single-use backup
// codes, and IP reputation tracking that escalates repeated abuse into
// permanent bans.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authguard is the public surface. It exposes [Engine], [Builder], [Config],
// sentinel errors, and value types (TwoFactorSetup, SuspiciousIP, etc.). All
// internal coordination — pending-setup storage, reputation records, attempt
// limiting, audit dispatch — lives under internal/ and is never exported.
// Credential persistence belongs to the caller behind [CredentialStore].
//
// # What this package must NOT do
//
//   - Expose Redis clients, internal stores, or record encodings in its
//     public API.
//   - Persist plaintext backup codes or TOTP secrets outside the pending
//     setup window.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//
// # Performance contract
//
// VerifySession is the hot path: signature and expiry checks only, no store
// round-trips. Authenticate adds a single reputation lookup. Two-factor and
// reputation writes are allowed one Redis round-trip plus a bounded
// compare-and-set retry loop.
package authguard
