// Package token mints and verifies the stateless bearer session tokens used
// by the authguard engine.
//
// # Design
//
// Tokens are JWTs signed with a process-wide secret (HS256) or key pair
// (Ed25519) injected at construction. Validity is determined entirely by
// signature and expiry: there is no server-side revocation list, and rotating
// the signing secret invalidates every outstanding token.
//
// # What this package must NOT do
//
//   - Perform I/O. Verify is a pure function on the hot path.
//   - Import authguard or any sibling package.
package token
