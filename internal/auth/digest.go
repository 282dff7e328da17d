package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"strconv"
)

// saltPrefix is the fixed application-wide salt prefix. It is part of the
// stored digest format and must not change: digests written by earlier
// installations would stop verifying.
const saltPrefix = "fablock"

// Digest computes the stored form of a credential using the legacy scheme:
// the salt is the fixed prefix concatenated with the decimal length of the
// input, and the digest is base64(SHA-256(salt + plaintext)).
//
// The scheme is deterministic (no per-record salt) and the comparison in
// Verify is not constant-time. It is kept for compatibility with digests
// already in the field; do not extend it to new credential types.
func Digest(plain string) string {
	salt := saltPrefix + strconv.Itoa(len(plain))
	sum := sha256.Sum256([]byte(salt + plain))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Verify reports whether plain matches the stored digest. It never fails on
// well-formed string input; a malformed stored digest simply never matches.
func Verify(plain, storedDigest string) bool {
	return Digest(plain) == storedDigest
}
