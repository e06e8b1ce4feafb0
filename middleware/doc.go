// Package middleware exposes HTTP middleware built on top of
// courseauth.Service token validation.
//
// # Guards
//
//   - [Guard] — validates the bearer access token and injects the
//     authenticated identity into the request context.
//   - [RequireRole] — layered on Guard, additionally checks the caller's
//     role.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Service calls. It does NOT
// implement authentication logic itself — every decision is delegated to
// Service.Introspect.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to the Service).
//   - Access Redis (the Service handles I/O).
//   - Make authorization decisions beyond pass/reject and the role check.
package middleware
