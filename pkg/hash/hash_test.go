package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCredentialRoundTrip(t *testing.T) {
	hashed, err := Credential("a-long-enough-api-key")
	require.NoError(t, err)
	require.NotEqual(t, "a-long-enough-api-key", hashed)

	require.NoError(t, CompareCredential(hashed, "a-long-enough-api-key"))
	require.Error(t, CompareCredential(hashed, "a-different-api-key!!"))
}

func TestCredentialRejectsShortKeys(t *testing.T) {
	_, err := Credential("short")
	require.Error(t, err)
}

func TestSignatureIsDeterministic(t *testing.T) {
	a := Signature("key-0123456789abcdef", "GET", "/api/v1/sync/queue?limit=5", 1700000000)
	b := Signature("key-0123456789abcdef", "GET", "/api/v1/sync/queue?limit=5", 1700000000)
	require.Equal(t, a, b)
	require.Len(t, a, 64)
}

func TestSignatureBindsAllInputs(t *testing.T) {
	base := Signature("key-0123456789abcdef", "GET", "/api/v1/sync/queue", 1700000000)

	require.NotEqual(t, base, Signature("key-0123456789abcdeX", "GET", "/api/v1/sync/queue", 1700000000))
	require.NotEqual(t, base, Signature("key-0123456789abcdef", "POST", "/api/v1/sync/queue", 1700000000))
	require.NotEqual(t, base, Signature("key-0123456789abcdef", "GET", "/api/v1/sync/queue?x=1", 1700000000))
	require.NotEqual(t, base, Signature("key-0123456789abcdef", "GET", "/api/v1/sync/queue", 1700000001))
}

func TestVerifySignature(t *testing.T) {
	sig := Signature("key-0123456789abcdef", "POST", "/api/v1/sync/ack", 1700000000)

	require.True(t, VerifySignature("key-0123456789abcdef", "POST", "/api/v1/sync/ack", 1700000000, sig))

	tampered := []byte(sig)
	if tampered[0] == 'a' {
		tampered[0] = 'b'
	} else {
		tampered[0] = 'a'
	}
	require.False(t, VerifySignature("key-0123456789abcdef", "POST", "/api/v1/sync/ack", 1700000000, string(tampered)))
	require.False(t, VerifySignature("key-0123456789abcdef", "POST", "/api/v1/sync/ack", 1700000000, ""))
}
