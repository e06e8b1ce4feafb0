// Package password implements credential hashing and verification.
//
// [Argon2] is the default hasher; output is the PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Bcrypt] exists for compatibility with accounts migrated from the prior
// platform, whose hashes were produced by bcrypt.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply plaintext and receive hashes.
//   - Import any other courseauth package.
//   - Log plaintext passwords or hash parameters at runtime.
package password
