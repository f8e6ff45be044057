package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Signer computes HMAC-SHA256 signatures over message strings with a
// process-wide key. Deterministic: verification recomputes the signature
// independently.
type Signer struct {
	key []byte
}

// NewSigner constructs a Signer. The key may be any length; SHA-256 block
// handling is done by the HMAC construction.
func NewSigner(key []byte) *Signer {
	return &Signer{key: append([]byte(nil), key...)}
}

// Sign returns the base64url HMAC-SHA256 of msg.
func (s *Signer) Sign(msg string) string {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(msg))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// Verify reports whether sig is the valid signature of msg, comparing in
// constant time.
func (s *Signer) Verify(msg, sig string) bool {
	return hmac.Equal([]byte(s.Sign(msg)), []byte(sig))
}
