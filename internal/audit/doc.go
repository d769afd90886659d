// Package audit defines the audit event model and the asynchronous
// dispatcher that forwards events to caller-supplied sinks.
//
// # Architecture boundaries
//
// This package owns event buffering and delivery. Event naming and emission
// points belong to the root package.
//
// # What this package must NOT do
//
//   - Block a security flow on a slow sink. A full buffer drops the event
//     and counts it.
//   - Import authguard or any sibling package.
package audit
