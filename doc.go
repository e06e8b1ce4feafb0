// Package courseauth is the session-credential service of the course
// platform: it issues, validates, refreshes and revokes the JWT pairs that
// authenticate every request against the platform backend.
//
// The package is designed for concurrent server workloads: Service methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// courseauth is the public surface. It exposes [Service], [Builder],
// [Config] and value types (Session, AccountSummary, MetricsSnapshot).
// Token signing lives in the token subpackage, the Redis revocation cache
// in revocation, password hashing in password; flow orchestration lives
// under internal/ and is never exported. The credential store and the HTTP
// layer are collaborators: callers supply a [UserStore] implementation
// (userstore ships the GORM one) and translate Service results to
// transport responses themselves.
//
// # Session policy
//
// One live session per account: every login overwrites the account's
// refresh-token record, so the previous session's refresh token fails with
// [ErrRefreshRevoked] on its next use. Refresh does not rotate the refresh
// token; it stays valid until its own expiry or an explicit logout.
//
// # What this package must NOT do
//
//   - Expose Redis clients, store internals, or signing keys in its public API.
//   - Perform I/O outside of Service methods (construction via Builder is
//     allocation-only until Build).
//   - Hold ambient per-request state; identity travels in results, never in
//     globals.
package courseauth
