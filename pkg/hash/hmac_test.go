package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHMACSHA256Signer(t *testing.T) {
	s := NewHMACSHA256Signer("secret")
	body := []byte(`{"verification":{"id":"abc"}}`)

	sig := s.Sign(body)

	assert.Len(t, sig, 64)
	assert.True(t, s.Verify(body, sig))
	assert.True(t, s.Verify(body, strings.ToUpper(sig)))
	assert.False(t, s.Verify([]byte(`{"verification":{"id":"abd"}}`), sig))
	assert.False(t, s.Verify(body, ""))
	assert.False(t, s.Verify(body, "not-hex"))
	assert.False(t, NewHMACSHA256Signer("other").Verify(body, sig))
}

func TestHMACSHA256Signer_KnownVector(t *testing.T) {
	// RFC 4231 test case 2
	s := NewHMACSHA256Signer("Jefe")

	got := s.Sign([]byte("what do ya want for nothing?"))

	assert.Equal(t, "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843", got)
}
