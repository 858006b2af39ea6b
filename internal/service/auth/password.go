// Package auth provides credential derivation, verification, and JWT
// session token services.
package auth

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// Key-derivation parameters. HashPassword must remain a pure function of
// (password, salt): verification recomputes the hash with the stored salt,
// so changing any parameter invalidates every stored credential.
const (
	// saltLength is the number of random bytes in a freshly generated salt.
	saltLength = 16

	// hashIterations is the PBKDF2 iteration count.
	hashIterations = 10000

	// hashKeyLength is the derived-key length in bytes.
	hashKeyLength = 64
)

// GenerateSalt produces a fresh random salt, base64-encoded for storage.
// It draws from crypto/rand and fails rather than falling back to a weaker
// source.
func GenerateSalt() (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(salt), nil
}

// HashPassword derives a storage-safe hash from the password and salt using
// PBKDF2 with SHA-512. The result is base64-encoded text. Same inputs always
// yield the same output.
func HashPassword(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), hashIterations, hashKeyLength, sha512.New)
	return base64.StdEncoding.EncodeToString(key)
}

// PasswordVerifier defines the interface for checking passwords against
// stored credentials.
type PasswordVerifier interface {
	// Verify reports whether password matches the stored hash when derived
	// with the stored salt.
	Verify(password, storedHash, storedSalt string) bool
}

// PBKDF2Verifier implements PasswordVerifier by recomputing the derivation
// and comparing in constant time.
type PBKDF2Verifier struct{}

// NewPBKDF2Verifier creates a new PBKDF2Verifier.
func NewPBKDF2Verifier() *PBKDF2Verifier {
	return &PBKDF2Verifier{}
}

// Verify implements the PasswordVerifier interface. The comparison is
// constant-time with respect to the hash contents.
func (v *PBKDF2Verifier) Verify(password, storedHash, storedSalt string) bool {
	computed := HashPassword(password, storedSalt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}
