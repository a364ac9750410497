// Package jwt issues and verifies the two signed token classes used by authkit:
// short-lived access tokens and long-lived refresh tokens carrying a token version.
//
// Each class is signed with its own key so that a leaked access-signing key cannot
// mint refresh tokens and vice versa. A "typ" claim additionally pins every token to
// its class. Verification is pure computation over the configured keys.
package jwt
