// Package flows contains pure-function orchestrators for every Service
// operation.
//
// Each flow function (RunLogin, RunRefresh, RunValidate, etc.) accepts a
// typed dependency struct and returns a result with a classified failure
// kind instead of an error chain. The root package maps failure kinds to
// sentinel errors, metrics and audit events. This design enables exhaustive
// unit testing with stub dependencies and keeps the Service type thin.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import courseauth (to avoid import cycles).
//   - Perform I/O directly — all I/O is mediated through dependency funcs.
package flows
