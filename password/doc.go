// Package password implements password hashing and verification with Argon2id.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Verification reads the cost parameters out of the stored digest, so deployed
// hashes remain verifiable after the configured parameters change.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Credential storage and
// account policy live in the engine; callers supply plaintext and receive
// digests. Plaintext passwords are never logged.
package password
