// Package middleware gates HTTP handlers on a valid bearer access token.
//
//   - [Require] rejects the request with 401 unless a valid token is presented.
//   - [Optional] lets requests without an Authorization header through
//     unauthenticated, but still rejects a header that does not validate.
//
// On success the resolved user is attached with authkit.WithUser. All token
// decisions are delegated to the engine.
package middleware
