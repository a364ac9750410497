// Package internal contains helper utilities that are intentionally private to authkit,
// chiefly secure random generation for one-time codes.
//
// # Sub-packages
//
//   - config: service configuration loaded with cleanenv
//   - flows: pure-function flow orchestrators used by Engine operations
//   - logctx: request-scoped slog logger carried in context
//   - security: read-only security posture report
//   - stores: Redis-backed one-time code store
//
// # What this package must NOT do
//
//   - Export types that appear in the public authkit API.
//   - Be imported by any package outside the authkit module.
package internal
