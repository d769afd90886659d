// Package middleware exposes HTTP adapters for authguard.Engine gateway
// checks.
//
// # Guards
//
//   - [Guard] — bearer-token authentication for every route.
//   - [RequireSecondFactor] — two-factor step-up for sensitive routes,
//     layered inside Guard.
//
// Each guard reads the Authorization header, resolves the client address,
// calls the Engine, and injects the authenticated user ID into the request
// context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself — all decisions are delegated to
// Engine.Authenticate and Engine.RequireSecondFactor.
//
// # What this package must NOT do
//
//   - Parse or create tokens directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject from the Engine.
package middleware
