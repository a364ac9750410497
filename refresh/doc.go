// Package refresh carries refresh tokens between server and browser.
//
// The token rides in an HttpOnly cookie scoped to the refresh endpoint, so
// scripts cannot read it and the browser only sends it where it is redeemed.
// Verification and rotation belong to the engine; this package only moves the
// opaque string.
package refresh
