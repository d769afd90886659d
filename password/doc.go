// Package password implements password hashing and verification with
// Argon2id defaults.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Verification reads the cost parameters embedded in the stored hash, so
// raising the configured costs never invalidates existing hashes.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy beyond
// the minimum length is enforced by the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply plaintext and receive hashes.
//   - Import any other authguard package.
//   - Log plaintext passwords or hash parameters at runtime.
package password
