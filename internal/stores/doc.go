// Package stores provides the Redis-backed, short-lived one-time code store used by
// email verification and password recovery.
//
// # Design
//
// One key per purpose and identity holds the current code (or a composite value).
// Issuance deletes any previous entry before writing, so a reissued code always
// supersedes the old one. Consumption is a compare-and-delete Lua script: the entry
// is removed only if it still holds the value the caller matched against.
//
// # Architecture boundaries
//
// This package owns persistence and atomicity for transient codes. It does NOT
// generate codes, compose values or decide what a mismatch means to the user;
// those belong to the authkit engine.
//
// # What this package must NOT do
//
//   - Import authkit or any sibling internal package.
//   - Log or expose plaintext codes.
package stores
