package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Signer signs and verifies payloads with a shared secret.
type Signer interface {
	Sign(payload []byte) string
	Verify(payload []byte, signature string) bool
}

// HMACSHA256Signer produces lowercase hex HMAC-SHA256 digests.
type HMACSHA256Signer struct {
	secret []byte
}

func NewHMACSHA256Signer(secret string) *HMACSHA256Signer {
	return &HMACSHA256Signer{secret: []byte(secret)}
}

func (s *HMACSHA256Signer) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares in constant time. Hex case and surrounding whitespace of
// the provided signature are ignored.
func (s *HMACSHA256Signer) Verify(payload []byte, signature string) bool {
	provided, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(signature)))
	if err != nil || len(provided) == 0 {
		return false
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)

	return hmac.Equal(mac.Sum(nil), provided)
}
