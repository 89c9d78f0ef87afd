package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Signer computes HMAC-SHA256 tamper signatures over chain hashes.
// The MAC key is derived from the configured secret with HKDF so that the raw
// secret is never used directly and each purpose gets its own key.
type Signer struct {
	key []byte
}

// NewSigner derives a 32-byte key for purpose from secret.
func NewSigner(secret, purpose string) (*Signer, error) {
	if secret == "" {
		return nil, fmt.Errorf("signing secret must not be empty")
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose)), key); err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}
	return &Signer{key: key}, nil
}

// Sign returns the hex HMAC of value.
func (s *Signer) Sign(value string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature is the HMAC of value, in constant time.
func (s *Signer) Verify(value, signature string) bool {
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(value))
	return hmac.Equal(mac.Sum(nil), expected)
}
