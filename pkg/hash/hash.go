package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// Credential hashes a device API key for storage. Keys shorter than 16
// characters are refused; provisioning generates 32-byte random keys.
func Credential(apiKey string) (string, error) {
	if len(apiKey) < 16 {
		return "", fmt.Errorf("api key must be at least 16 characters")
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash api key: %w", err)
	}

	return string(hashedBytes), nil
}

// CompareCredential checks an API key against its stored bcrypt hash.
func CompareCredential(hashedCredential, apiKey string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedCredential), []byte(apiKey))
}

// Signature computes the request signature a device sends alongside its API
// key: HMAC-SHA256 over method, path-with-query and unix timestamp, keyed by
// SHA-256 of the API key so the raw key never acts as MAC key material.
func Signature(apiKey, method, pathWithQuery string, timestamp int64) string {
	key := sha256.Sum256([]byte(apiKey))
	mac := hmac.New(sha256.New, key[:])
	fmt.Fprintf(mac, "%s\n%s\n%d", method, pathWithQuery, timestamp)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature recomputes the expected signature and compares it in
// constant time.
func VerifySignature(apiKey, method, pathWithQuery string, timestamp int64, provided string) bool {
	expected := Signature(apiKey, method, pathWithQuery, timestamp)
	return hmac.Equal([]byte(expected), []byte(provided))
}
