// Package crypto implements server-side password salting, hashing and verification.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
)

// saltAlphabet is the fixed 26-symbol alphabet salts are drawn from.
const saltAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// DefaultSaltLength matches the salt length used for stored credentials.
const DefaultSaltLength = 30

// GenerateSalt returns a salt of length characters drawn uniformly from
// the uppercase alphabet using a CSPRNG.
func GenerateSalt(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("salt length must be positive")
	}
	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	out := make([]byte, length)
	for i, b := range raw {
		out[i] = saltAlphabet[int(b)%len(saltAlphabet)]
	}
	return string(out), nil
}

// HashPassword returns the hex SHA-256 digest of password||salt.
// Both inputs must be non-empty.
func HashPassword(password, salt string) (string, error) {
	if password == "" || salt == "" {
		return "", errors.New("empty password/salt")
	}
	sum := sha256.Sum256([]byte(password + salt))
	return hex.EncodeToString(sum[:]), nil
}

// VerifyPassword recomputes the digest and compares it with the expected one
// in constant time.
func VerifyPassword(password, salt, expected string) bool {
	got, err := HashPassword(password, salt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}
