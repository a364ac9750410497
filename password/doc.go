// Package password hashes and verifies passwords with Argon2id.
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Length policy beyond the byte ceiling (minimum length, character rules)
// belongs to the caller. The package never stores or logs plaintext.
package password
