// Package authkit issues, rotates and revokes credential tokens and manages
// single-use verification codes for email confirmation and password recovery.
//
// # Tokens
//
// A short-lived access token is presented as a bearer header. A long-lived
// refresh token travels only in an HttpOnly cookie and carries the user's
// token version. Bumping that version with [Engine.RevokeSessions] rejects
// every refresh token minted before; access tokens run out on their own.
// There is no server-side session record.
//
// # One-time codes
//
// Verification and reset codes live in Redis under a per-purpose key with a
// one hour TTL. Issuing a code replaces the previous one and redeeming it
// deletes it atomically, so a code works at most once.
//
// # Collaborators
//
// The engine depends on a [UserStore], a [Mailer] and a [PasswordHasher].
// Adapters live in storage/postgres, storage/memory, mailer and password; the
// HTTP surface lives in httpapi and middleware.
//
//	engine, err := authkit.New().
//		WithConfig(cfg).
//		WithRedis(rdb).
//		WithUserStore(users).
//		WithMailer(sender).
//		Build()
package authkit
