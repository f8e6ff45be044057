// Package crypto implements the token codec and keyed signature primitives.
package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/edulabs/labgate/internal/errs"
)

// KeyLen is the required codec key length in bytes.
const KeyLen = chacha20poly1305.KeySize

// Codec encrypts short payload strings into opaque URL-safe tokens and back.
// The key is fixed for the process lifetime; a token issued by one instance is
// decodable by any instance sharing the key.
type Codec struct {
	key []byte
}

// NewCodec constructs a Codec from a 32-byte key.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) != KeyLen {
		return nil, fmt.Errorf("codec key must be %d bytes, got %d", KeyLen, len(key))
	}
	k := append([]byte(nil), key...)
	return &Codec{key: k}, nil
}

// Encode encrypts plaintext with a random nonce and returns
// base64url(nonce || ciphertext). The same plaintext encodes differently on
// every call.
func (c *Codec) Encode(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)
	out = append(out, aead.Seal(nil, nonce, []byte(plaintext), nil)...)
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Decode reverses Encode. Any malformed, truncated, or tampered input fails
// with ErrInvalidToken; Decode never distinguishes the failure modes to the
// caller.
func (c *Codec) Decode(opaque string) (string, error) {
	blob, err := base64.RawURLEncoding.DecodeString(opaque)
	if err != nil {
		return "", errs.ErrInvalidToken
	}
	if len(blob) < chacha20poly1305.NonceSizeX {
		return "", errs.ErrInvalidToken
	}
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", err
	}
	nonce := blob[:chacha20poly1305.NonceSizeX]
	ct := blob[chacha20poly1305.NonceSizeX:]
	pt, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", errs.ErrInvalidToken
	}
	return string(pt), nil
}
