// Package capability encodes structured payloads into opaque, authenticated
// tokens. A token is the only state a deferred action (account activation,
// removal approval) carries; nothing is stored server-side.
package capability

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeyLen is the symmetric key size the codec requires.
const KeyLen = chacha20poly1305.KeySize

// ErrInvalidToken covers every decode failure: malformed encoding, wrong
// key, truncated or tampered ciphertext. Callers must not distinguish them.
var ErrInvalidToken = errors.New("invalid capability token")

// Codec seals and opens payloads with a process-lifetime symmetric key.
// The key is set at construction, never rotated and never persisted, so
// tokens do not survive a process restart. Safe for concurrent use.
type Codec struct {
	key []byte
}

// GenerateKey returns a fresh random codec key.
func GenerateKey() ([]byte, error) {
	k := make([]byte, KeyLen)
	if _, err := rand.Read(k); err != nil {
		return nil, fmt.Errorf("read random: %w", err)
	}
	return k, nil
}

// NewCodec constructs a codec around an injected key.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) != KeyLen {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeyLen, len(key))
	}
	return &Codec{key: append([]byte(nil), key...)}, nil
}

// Encode serializes payload as JSON and encrypts it with XChaCha20-Poly1305
// under a random nonce. The result is URL-safe base64 of nonce||ciphertext.
func (c *Codec) Encode(payload any) (string, error) {
	plain, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	out := make([]byte, 0, len(nonce)+len(plain)+aead.Overhead())
	out = append(out, nonce...)
	out = append(out, aead.Seal(nil, nonce, plain, nil)...)
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Decode reverses Encode into dst. Any failure — bad encoding, short blob,
// authentication mismatch, bad JSON — yields ErrInvalidToken so the token
// format leaks nothing about why a token was rejected.
func (c *Codec) Decode(token string, dst any) error {
	blob, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return ErrInvalidToken
	}
	if len(blob) < chacha20poly1305.NonceSizeX {
		return ErrInvalidToken
	}
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return ErrInvalidToken
	}
	nonce := blob[:chacha20poly1305.NonceSizeX]
	ct := blob[chacha20poly1305.NonceSizeX:]
	plain, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return ErrInvalidToken
	}
	if err := json.Unmarshal(plain, dst); err != nil {
		return ErrInvalidToken
	}
	return nil
}
