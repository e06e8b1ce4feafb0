// Package revocation provides the Redis-backed revocation cache: one live
// refresh-token record per account and a TTL-bounded blacklist of access
// tokens invalidated before natural expiry.
//
// # Architecture boundaries
//
// This package owns single-key Redis operations only. It does NOT interpret
// token contents or enforce session policy — those responsibilities belong
// to the Service. Every account's refresh key is independent of every other
// key, so no multi-key transactions are needed.
//
// # What this package must NOT do
//
//   - Import courseauth or token (no upward imports).
//   - Store raw bearer strings as Redis keys (blacklist keys are hashed).
package revocation
